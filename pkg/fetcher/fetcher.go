// Package fetcher drives the per-mode download pipelines: resolving an
// ordered batch of posts, deriving output filenames, and mirroring files to
// disk, isolating failures so one bad post never aborts a batch.
package fetcher

import (
	"bytes"
	"fmt"
	"time"

	"boorudl/pkg/booru"
	"boorudl/pkg/logger"
	"boorudl/pkg/storage"
)

// Client is the slice of the board API the orchestrators need
type Client interface {
	FetchPost(id int) (*booru.Post, error)
	FetchPool(id int) (*booru.Pool, error)
	FetchPostCount(tags []string) (int, error)
	FetchPostPage(tags []string, page int) ([]booru.Post, error)
	FetchFile(url string, modifiedSince time.Time) ([]byte, time.Time, bool, error)
}

// Result is the outcome of one post's fetch, name, download pipeline
type Result struct {
	PostID   int
	Filename string
	Fresh    bool // file already current locally, no bytes transferred
	Err      error
}

// Summary aggregates a batch run
type Summary struct {
	Downloaded int
	Fresh      int
	Failed     int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d downloaded, %d fresh, %d failed", s.Downloaded, s.Fresh, s.Failed)
}

// Total returns the number of posts the batch attempted.
func (s Summary) Total() int {
	return s.Downloaded + s.Fresh + s.Failed
}

// Fetcher orchestrates the download pipeline for all three modes. Execution
// is strictly sequential, one request in flight at a time.
type Fetcher struct {
	client  Client
	storage *storage.Manager
	logger  logger.Logger
}

// New creates a new Fetcher
func New(client Client, store *storage.Manager, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		client:  client,
		storage: store,
		logger:  log,
	}
}

// FetchPosts downloads an explicit list of posts in the given order,
// naming each file after its checksum. Per-post failures are logged and
// skipped; the batch itself never fails.
func (f *Fetcher) FetchPosts(ids []int) Summary {
	namer := NewMD5Namer()

	var summary Summary
	for i, id := range ids {
		res := f.fetchOne(id, namer, i)
		f.record(&summary, res)
	}

	f.logger.InfoWithFields("post batch finished", map[string]interface{}{
		"requested":  len(ids),
		"downloaded": summary.Downloaded,
		"fresh":      summary.Fresh,
		"failed":     summary.Failed,
	})

	return summary
}

// FetchPool downloads every post of a pool in pool order. Files are named
// by zero-padded pool position unless useMD5 selects checksum naming. The
// pool fetch itself failing is fatal; per-post failures are isolated, and
// the position index still advances for a failed post so surviving files
// keep their original pool positions.
func (f *Fetcher) FetchPool(id int, useMD5 bool) (Summary, error) {
	pool, err := f.client.FetchPool(id)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch pool %d: %w", id, err)
	}

	f.logger.InfoWithFields("pool resolved", map[string]interface{}{
		"pool_id":   pool.ID,
		"pool_name": pool.Name,
		"posts":     pool.Size(),
	})

	var namer Namer
	if useMD5 {
		namer = NewMD5Namer()
	} else {
		namer = NewSequenceNamer(pool.Size())
	}

	var summary Summary
	for i, postID := range pool.PostIDs {
		res := f.fetchOne(postID, namer, i)
		f.record(&summary, res)
	}

	f.logger.InfoWithFields("pool batch finished", map[string]interface{}{
		"pool_id":    pool.ID,
		"posts":      pool.Size(),
		"downloaded": summary.Downloaded,
		"fresh":      summary.Fresh,
		"failed":     summary.Failed,
	})

	return summary, nil
}

// FetchTags downloads every post matching a tag query. The total count and
// each page listing are fetched at the run level, so a failure there aborts
// the whole run; per-post download failures within a page are isolated as
// in the other modes. Pages are issued in order starting at 1.
func (f *Fetcher) FetchTags(tags []string) (Summary, error) {
	count, err := f.client.FetchPostCount(tags)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch post count: %w", err)
	}

	pages := PageCount(count)
	f.logger.InfoWithFields("tag query resolved", map[string]interface{}{
		"tags":  tags,
		"count": count,
		"pages": pages,
	})

	namer := NewMD5Namer()

	var summary Summary
	for page := 1; page <= pages; page++ {
		posts, err := f.client.FetchPostPage(tags, page)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		// The list endpoint returns full metadata, so posts go straight to
		// the download step. A restricted post still shows up here without
		// a file URL and is isolated the same way a failed fetch would be.
		for i := range posts {
			res := f.download(&posts[i], namer, i)
			f.record(&summary, res)
		}
	}

	f.logger.InfoWithFields("tag batch finished", map[string]interface{}{
		"tags":       tags,
		"downloaded": summary.Downloaded,
		"fresh":      summary.Fresh,
		"failed":     summary.Failed,
	})

	return summary, nil
}

// PageCount computes how many pages of the fixed page size cover count posts
func PageCount(count int) int {
	return (count + booru.PageSize - 1) / booru.PageSize
}

// fetchOne runs the full pipeline for a single post ID: fetch metadata,
// derive the filename, mirror the file. No step is retried; the first
// failure ends the attempt for this post only.
func (f *Fetcher) fetchOne(id int, namer Namer, index int) Result {
	post, err := f.client.FetchPost(id)
	if err != nil {
		return Result{PostID: id, Err: err}
	}

	return f.download(post, namer, index)
}

// download mirrors a post's file to disk under the derived filename. When a
// local file of that name exists the request is conditional, and a 304
// leaves the file untouched.
func (f *Fetcher) download(post *booru.Post, namer Namer, index int) Result {
	if post.FileURL == "" {
		return Result{PostID: post.ID, Err: fmt.Errorf("post %d has no file URL", post.ID)}
	}

	filename := namer.Name(post, index)

	var modifiedSince time.Time
	if modTime, exists := f.storage.ModTime(filename); exists {
		modifiedSince = modTime
	}

	data, lastModified, notModified, err := f.client.FetchFile(post.FileURL, modifiedSince)
	if err != nil {
		return Result{PostID: post.ID, Filename: filename, Err: err}
	}

	if notModified {
		return Result{PostID: post.ID, Filename: filename, Fresh: true}
	}

	if err := f.storage.Save(bytes.NewReader(data), filename, lastModified); err != nil {
		return Result{PostID: post.ID, Filename: filename, Err: err}
	}

	return Result{PostID: post.ID, Filename: filename}
}

// record folds one per-post result into the batch summary, logging failures
// with enough context to identify the offending post.
func (f *Fetcher) record(summary *Summary, res Result) {
	switch {
	case res.Err != nil:
		summary.Failed++
		f.logger.ErrorWithFields("post failed", map[string]interface{}{
			"post_id": res.PostID,
			"error":   res.Err.Error(),
		})
	case res.Fresh:
		summary.Fresh++
		f.logger.DebugWithFields("file already current", map[string]interface{}{
			"post_id":  res.PostID,
			"filename": res.Filename,
		})
	default:
		summary.Downloaded++
		f.logger.InfoWithFields("file downloaded", map[string]interface{}{
			"post_id":  res.PostID,
			"filename": res.Filename,
		})
	}
}
