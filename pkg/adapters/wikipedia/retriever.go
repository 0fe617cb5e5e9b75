// Package wikipedia implements the resource retriever against the MediaWiki
// search API. It needs no credentials, which makes it the default retriever
// for the service.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

const (
	defaultAPIURL    = "https://en.wikipedia.org/w/api.php"
	defaultPageURL   = "https://en.wikipedia.org/wiki/"
	defaultUserAgent = "espalier/1.0 (https://github.com/espalier-ai/espalier)"
	defaultLimit     = 3
)

// search snippets come back with <span class="searchmatch"> markup.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Retriever searches Wikipedia articles and satisfies ports.Retriever.
type Retriever struct {
	apiURL    string
	pageURL   string
	userAgent string
	http      *http.Client
}

type Option func(*Retriever)

// WithAPIURL points the retriever at a different MediaWiki endpoint, e.g. a
// language edition or a test server. Page links are derived from it.
func WithAPIURL(api string) Option {
	return func(r *Retriever) {
		if api == "" {
			return
		}
		r.apiURL = api
		r.pageURL = strings.TrimSuffix(api, "/w/api.php") + "/wiki/"
	}
}

// WithUserAgent overrides the User-Agent header. Wikimedia asks API clients
// to identify themselves.
func WithUserAgent(ua string) Option {
	return func(r *Retriever) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(r *Retriever) { r.http = hc }
}

func New(opts ...Option) *Retriever {
	r := &Retriever{
		apiURL:    defaultAPIURL,
		pageURL:   defaultPageURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Search runs a full-text article search. Zero hits return an empty slice.
func (r *Retriever) Search(ctx context.Context, query string, filters ports.SearchFilters) ([]domain.Resource, error) {
	limit := filters.MaxResults
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
		"format":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	resources := make([]domain.Resource, 0, len(parsed.Query.Search))
	for _, hit := range parsed.Query.Search {
		resources = append(resources, domain.Resource{
			Title:   hit.Title,
			URL:     r.pageURL + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
			Snippet: tagPattern.ReplaceAllString(hit.Snippet, ""),
		})
	}
	return resources, nil
}

var _ ports.Retriever = (*Retriever)(nil)
