package booru

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// Scheme is the fixed request scheme
	Scheme = "https"

	// DefaultHost is the board this tool targets unless configured otherwise
	DefaultHost = "danbooru.donmai.us"

	// PageSize is the fixed number of posts requested per page in tag searches
	PageSize = 20
)

// Endpoints builds absolute request URLs for a board host, embedding an
// optional credential in the authority component.
type Endpoints struct {
	host string
	auth string
}

// NewEndpoints creates an Endpoints for the given host. auth is the raw
// userinfo string ("login:api_key"); empty means unauthenticated. The string
// is embedded verbatim, a malformed credential simply produces a malformed
// URL surfaced later as an HTTP failure.
func NewEndpoints(host, auth string) *Endpoints {
	if host == "" {
		host = DefaultHost
	}
	return &Endpoints{host: host, auth: auth}
}

// BuildURL combines the fixed scheme and host with an endpoint path and
// query string, injecting the credential when present.
func (e *Endpoints) BuildURL(endpoint string) string {
	if e.auth != "" {
		return fmt.Sprintf("%s://%s@%s%s", Scheme, e.auth, e.host, endpoint)
	}
	return fmt.Sprintf("%s://%s%s", Scheme, e.host, endpoint)
}

// PostURL constructs the URL for fetching a single post's metadata
func (e *Endpoints) PostURL(id int) string {
	return e.BuildURL(fmt.Sprintf("/posts/%d.json", id))
}

// PoolURL constructs the URL for fetching a pool
func (e *Endpoints) PoolURL(id int) string {
	return e.BuildURL(fmt.Sprintf("/pools/%d.json", id))
}

// PostsPageURL constructs the URL for one page of a tag search
func (e *Endpoints) PostsPageURL(tags []string, page int) string {
	params := url.Values{}
	params.Set("tags", JoinTags(tags))
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("limit", fmt.Sprintf("%d", PageSize))

	return e.BuildURL("/posts.json?" + params.Encode())
}

// PostCountURL constructs the URL for the total result count of a tag search
func (e *Endpoints) PostCountURL(tags []string) string {
	params := url.Values{}
	params.Set("tags", JoinTags(tags))

	return e.BuildURL("/counts/posts.json?" + params.Encode())
}

// JoinTags combines tag strings into the single space-delimited tags
// parameter the board expects; conjunction is implicit AND.
func JoinTags(tags []string) string {
	return strings.Join(tags, " ")
}
