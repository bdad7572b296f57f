package booru

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"boorudl/pkg/errors"
	"boorudl/pkg/logger"
)

// Client talks to a Danbooru-style JSON API over HTTPS
type Client struct {
	httpClient *http.Client
	endpoints  *Endpoints
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a new board API client
func NewClient(endpoints *Endpoints, timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoints: endpoints,
		headers: map[string]string{
			"Accept": "application/json",
		},
		logger: log,
	}
}

// Endpoints returns the URL builder this client was created with
func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.Redacted(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.Redacted(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.Redacted(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(url string, target interface{}) error {
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus fails unless the response indicates success. The
// message carries the numeric status and reason phrase.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.Redacted(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: msg,
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.Redacted(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: msg,
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.Redacted(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: msg,
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.Redacted(),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: msg,
			Code:    resp.StatusCode,
		}
	}
}

// FetchPost fetches a single post's metadata. A decoded post without a file
// URL is the restricted/deleted case and fails with a missing_file error.
func (c *Client) FetchPost(id int) (*Post, error) {
	url := c.endpoints.PostURL(id)

	c.logger.DebugWithFields("fetching post", map[string]interface{}{
		"post_id": id,
	})

	var post Post
	if err := c.GetJSON(url, &post); err != nil {
		return nil, err
	}

	if post.FileURL == "" {
		c.logger.WarnWithFields("post has no file URL", map[string]interface{}{
			"post_id": id,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeMissingFile,
			Message: fmt.Sprintf("post %d has no file URL", id),
			Code:    0,
		}
	}

	return &post, nil
}

// FetchPool fetches a pool and parses its ordered post-ID list. A pool with
// zero posts is valid.
func (c *Client) FetchPool(id int) (*Pool, error) {
	url := c.endpoints.PoolURL(id)

	c.logger.DebugWithFields("fetching pool", map[string]interface{}{
		"pool_id": id,
	})

	var payload poolPayload
	if err := c.GetJSON(url, &payload); err != nil {
		return nil, err
	}

	ids, err := ParsePostIDs(payload.PostIDs)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("pool %d: %v", id, err),
			Code:    0,
		}
	}

	return &Pool{
		ID:      payload.ID,
		Name:    payload.Name,
		PostIDs: ids,
	}, nil
}

// FetchPostCount fetches the total number of posts matching a tag query
func (c *Client) FetchPostCount(tags []string) (int, error) {
	url := c.endpoints.PostCountURL(tags)

	c.logger.DebugWithFields("fetching post count", map[string]interface{}{
		"tags": tags,
	})

	var payload countPayload
	if err := c.GetJSON(url, &payload); err != nil {
		return 0, err
	}

	return payload.Counts.Posts, nil
}

// FetchPostPage fetches one page of a tag search. The list endpoint already
// returns full post metadata, so no per-post fetch is needed afterwards.
func (c *Client) FetchPostPage(tags []string, page int) ([]Post, error) {
	url := c.endpoints.PostsPageURL(tags, page)

	c.logger.DebugWithFields("fetching post page", map[string]interface{}{
		"tags": tags,
		"page": page,
	})

	var posts []Post
	if err := c.GetJSON(url, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// FetchFile downloads a file, conditionally when modifiedSince is non-zero.
// It returns the body, the response's Last-Modified time when parseable, and
// whether the server reported the file unchanged (304, no bytes transferred).
func (c *Client) FetchFile(url string, modifiedSince time.Time) ([]byte, time.Time, bool, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, time.Time{}, false, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}
	if !modifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", modifiedSince.UTC().Format(http.TimeFormat))
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.logger.DebugWithFields("file unchanged on server", map[string]interface{}{
			"url": url,
		})
		return nil, time.Time{}, true, nil
	}

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, time.Time{}, false, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, time.Time{}, false, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read file body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var lastModified time.Time
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			lastModified = t
		}
	}

	c.logger.DebugWithFields("file downloaded", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, lastModified, false, nil
}
