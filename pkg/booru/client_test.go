package booru

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorudl/pkg/errors"
	"boorudl/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := m.handler(req)
	if resp != nil {
		// Real transports always populate Response.Request for client requests.
		resp.Request = req
	}
	return resp, err
}

// Helper function to create a response
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// Helper function to create a client whose responses come from a map keyed
// by request URL. Unmatched URLs return 404.
func newTestClient(log logger.Logger, responses map[string]interface{}) *Client {
	mockHTTPClient := &http.Client{
		Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
			if response, exists := responses[req.URL.String()]; exists {
				switch v := response.(type) {
				case error:
					return nil, v
				case int:
					return newResponse(v, ""), nil
				case string:
					return newResponse(http.StatusOK, v), nil
				default:
					responseBody, _ := json.Marshal(v)
					return newResponse(http.StatusOK, string(responseBody)), nil
				}
			}
			return newResponse(http.StatusNotFound, ""), nil
		}},
		Timeout: 30 * time.Second,
	}

	client := NewClient(NewEndpoints("danbooru.donmai.us", ""), 30*time.Second, log)
	client.httpClient = mockHTTPClient
	return client
}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	endpoints := NewEndpoints("danbooru.donmai.us", "")
	client := NewClient(endpoints, 30*time.Second, log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, endpoints, client.Endpoints())
	assert.Equal(t, "application/json", client.headers["Accept"])
}

func TestSetHeader(t *testing.T) {
	client := NewClient(NewEndpoints("", ""), 30*time.Second, logger.NewTestLogger())

	client.SetHeader("User-Agent", "boorudl-test")
	assert.Equal(t, "boorudl-test", client.headers["User-Agent"])
}

func TestCheckResponseStatus(t *testing.T) {
	client := newTestClient(logger.NewTestLogger(), nil)

	tests := []struct {
		name         string
		statusCode   int
		expectedType errors.ErrorType
		wantErr      bool
	}{
		{name: "200 OK", statusCode: http.StatusOK},
		{name: "201 Created", statusCode: http.StatusCreated},
		{name: "401 Unauthorized", statusCode: http.StatusUnauthorized, expectedType: errors.ErrorTypeAuth, wantErr: true},
		{name: "403 Forbidden", statusCode: http.StatusForbidden, expectedType: errors.ErrorTypeAuth, wantErr: true},
		{name: "404 Not Found", statusCode: http.StatusNotFound, expectedType: errors.ErrorTypeNotFound, wantErr: true},
		{name: "500 Internal Server Error", statusCode: http.StatusInternalServerError, expectedType: errors.ErrorTypeServerError, wantErr: true},
		{name: "503 Service Unavailable", statusCode: http.StatusServiceUnavailable, expectedType: errors.ErrorTypeServerError, wantErr: true},
		{name: "429 Too Many Requests", statusCode: http.StatusTooManyRequests, expectedType: errors.ErrorTypeUnknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newResponse(tt.statusCode, "")
			req, _ := http.NewRequest(http.MethodGet, "https://danbooru.donmai.us/posts/1.json", nil)
			resp.Request = req

			err := client.checkResponseStatus(resp)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *errors.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.expectedType, apiErr.Type)
			assert.Equal(t, tt.statusCode, apiErr.Code)
			assert.Contains(t, apiErr.Message, http.StatusText(tt.statusCode))
		})
	}
}

func TestGetJSON(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/posts/1.json": Post{ID: 1, MD5: "abc", FileExt: "jpg", FileURL: "https://cdn.example/abc.jpg"},
		})

		var post Post
		err := client.GetJSON("https://danbooru.donmai.us/posts/1.json", &post)
		require.NoError(t, err)
		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "abc", post.MD5)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/posts/1.json": "<html>not json</html>",
		})

		var post Post
		err := client.GetJSON("https://danbooru.donmai.us/posts/1.json", &post)
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
	})

	t.Run("error status short-circuits decoding", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/posts/1.json": http.StatusInternalServerError,
		})

		var post Post
		err := client.GetJSON("https://danbooru.donmai.us/posts/1.json", &post)
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeServerError, apiErr.Type)
	})
}

func TestFetchPost(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/posts/123.json": Post{
				ID: 123, MD5: "d41d8cd98f00b204e9800998ecf8427e", FileExt: "png",
				FileURL: "https://cdn.example/d41d8cd98f00b204e9800998ecf8427e.png",
			},
		})

		post, err := client.FetchPost(123)
		require.NoError(t, err)
		assert.Equal(t, 123, post.ID)
		assert.Equal(t, "png", post.FileExt)
	})

	t.Run("restricted post has no file URL", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/posts/123.json": Post{ID: 123},
		})

		post, err := client.FetchPost(123)
		assert.Nil(t, post)
		require.Error(t, err)
		assert.True(t, errors.IsMissingFile(err))
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), nil)

		_, err := client.FetchPost(999)
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
	})
}

func TestFetchPool(t *testing.T) {
	t.Run("preserves pool order", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/pools/42.json": map[string]interface{}{
				"id":       42,
				"name":     "example_pool",
				"post_ids": "30 10 20",
			},
		})

		pool, err := client.FetchPool(42)
		require.NoError(t, err)
		assert.Equal(t, 42, pool.ID)
		assert.Equal(t, "example_pool", pool.Name)
		assert.Equal(t, []int{30, 10, 20}, pool.PostIDs)
	})

	t.Run("empty pool", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/pools/42.json": map[string]interface{}{
				"id":       42,
				"name":     "empty",
				"post_ids": "",
			},
		})

		pool, err := client.FetchPool(42)
		require.NoError(t, err)
		assert.Equal(t, 0, pool.Size())
	})

	t.Run("malformed post_ids", func(t *testing.T) {
		client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
			"https://danbooru.donmai.us/pools/42.json": map[string]interface{}{
				"id":       42,
				"post_ids": "1 x 3",
			},
		})

		_, err := client.FetchPool(42)
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
	})
}

func TestFetchPostCount(t *testing.T) {
	client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
		"https://danbooru.donmai.us/counts/posts.json?tags=scenery": map[string]interface{}{
			"counts": map[string]interface{}{"posts": 45},
		},
	})

	count, err := client.FetchPostCount([]string{"scenery"})
	require.NoError(t, err)
	assert.Equal(t, 45, count)
}

func TestFetchPostPage(t *testing.T) {
	client := newTestClient(logger.NewTestLogger(), map[string]interface{}{
		"https://danbooru.donmai.us/posts.json?limit=20&page=2&tags=scenery": []Post{
			{ID: 21, MD5: "aa", FileExt: "jpg", FileURL: "https://cdn.example/aa.jpg"},
			{ID: 22, MD5: "bb", FileExt: "png", FileURL: "https://cdn.example/bb.png"},
		},
	})

	posts, err := client.FetchPostPage([]string{"scenery"}, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, 21, posts[0].ID)
	assert.Equal(t, 22, posts[1].ID)
}

func TestFetchFile(t *testing.T) {
	lastModified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ims := r.Header.Get("If-Modified-Since"); ims != "" {
			if t, err := http.ParseTime(ims); err == nil && !lastModified.After(t) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
		w.Write([]byte("image bytes"))
	}))
	defer server.Close()

	client := NewClient(NewEndpoints("danbooru.donmai.us", ""), 30*time.Second, logger.NewTestLogger())

	t.Run("unconditional download", func(t *testing.T) {
		data, lm, notModified, err := client.FetchFile(server.URL+"/file.jpg", time.Time{})
		require.NoError(t, err)
		assert.False(t, notModified)
		assert.Equal(t, []byte("image bytes"), data)
		assert.True(t, lm.Equal(lastModified))
	})

	t.Run("not modified", func(t *testing.T) {
		data, _, notModified, err := client.FetchFile(server.URL+"/file.jpg", lastModified)
		require.NoError(t, err)
		assert.True(t, notModified)
		assert.Nil(t, data)
	})

	t.Run("stale local copy re-downloads", func(t *testing.T) {
		stale := lastModified.Add(-24 * time.Hour)
		data, _, notModified, err := client.FetchFile(server.URL+"/file.jpg", stale)
		require.NoError(t, err)
		assert.False(t, notModified)
		assert.Equal(t, []byte("image bytes"), data)
	})
}
