package booru

import (
	"fmt"
	"strconv"
	"strings"
)

// Post is the subset of post metadata the downloader consumes. MD5 and
// FileURL are absent for posts the viewer is not authorized to see.
type Post struct {
	ID      int    `json:"id"`
	MD5     string `json:"md5"`
	FileExt string `json:"file_ext"`
	FileURL string `json:"file_url"`
}

// Pool is an ordered collection of posts. PostIDs preserves pool order.
type Pool struct {
	ID      int
	Name    string
	PostIDs []int
}

// Size returns the number of posts in the pool
func (p *Pool) Size() int {
	return len(p.PostIDs)
}

// poolPayload mirrors the wire format: post IDs arrive as one
// space-delimited string.
type poolPayload struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	PostIDs string `json:"post_ids"`
}

// countPayload mirrors the counts endpoint response
type countPayload struct {
	Counts struct {
		Posts int `json:"posts"`
	} `json:"counts"`
}

// ParsePostIDs splits a space-delimited post-ID string into an ordered list.
// An empty string is a valid pool with zero posts.
func ParsePostIDs(s string) ([]int, error) {
	fields := strings.Fields(s)
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid post id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
