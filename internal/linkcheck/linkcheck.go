// Package linkcheck verifies that external hyperlinks in a documentation
// corpus still resolve. URLs are deduplicated across documents and fetched
// once by a bounded worker pool, with HEAD-then-GET fallback, retries on
// transient failures, and per-host politeness delays.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/types"
)

// State describes the outcome of checking one URL.
type State string

const (
	StateOK      State = "ok"
	StateBroken  State = "broken"
	StateSkipped State = "skipped"
	StateTimeout State = "timeout"
	StateError   State = "error"
)

// LinkResult is the check outcome for a single deduplicated URL.
type LinkResult struct {
	// URL is the checked destination, fragment included
	URL string `json:"url" yaml:"url"`
	// State is the outcome classification
	State State `json:"state" yaml:"state"`
	// StatusCode is the final HTTP status, 0 if the request never completed
	StatusCode int `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	// Err describes the failure, empty on success
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
	// Duration is the wall time of the check including retries
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Documents lists corpus paths referencing this URL, sorted
	Documents []string `json:"documents" yaml:"documents"`
}

// Report aggregates link check results for a corpus.
type Report struct {
	Total   int          `json:"total" yaml:"total"`
	OK      int          `json:"ok" yaml:"ok"`
	Broken  int          `json:"broken" yaml:"broken"`
	Skipped int          `json:"skipped" yaml:"skipped"`
	Results []LinkResult `json:"results" yaml:"results"`
}

// HasBroken reports whether any link failed the check.
func (r Report) HasBroken() bool {
	return r.Broken > 0
}

// Options configures a Checker.
type Options struct {
	// Concurrency bounds parallel fetches; 0 uses the default of 8
	Concurrency int
	// Timeout bounds each request attempt; 0 uses the default of 10s
	Timeout time.Duration
	// Retries is how many extra attempts transient failures get; default 2
	Retries int
	// UserAgent overrides the request User-Agent header
	UserAgent string
	// IgnorePatterns skips URLs containing any of these substrings
	IgnorePatterns []string
	// CheckFragments verifies #fragments against ids in fetched HTML
	CheckFragments bool
	// PerHostDelay spaces out requests hitting the same host
	PerHostDelay time.Duration
}

const defaultUserAgent = "docsentry-linkcheck/1.0"

// Checker verifies external URLs. The result cache persists across calls, so
// a watch loop re-checking a corpus only fetches URLs it has not seen.
type Checker struct {
	opts   Options
	client *http.Client

	mu    sync.Mutex
	cache map[string]*LinkResult

	hostMu   sync.Mutex
	hostLast map[string]time.Time
}

// New creates a Checker.
func New(opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return &Checker{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		cache:    make(map[string]*LinkResult),
		hostLast: make(map[string]time.Time),
	}
}

// CheckCorpus checks every distinct external URL referenced by the registry's
// documents and returns a report sorted by URL.
func (c *Checker) CheckCorpus(ctx context.Context, reg *registry.DocumentRegistry) Report {
	refs := collectExternal(reg)

	urls := make([]string, 0, len(refs))
	for u := range refs {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	results := make([]LinkResult, len(urls))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result := c.CheckURL(ctx, urls[idx])
				result.Documents = refs[urls[idx]]
				results[idx] = result
			}
		}()
	}

	for idx := range urls {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			// Mark the rest skipped; workers drain what they already took.
			for rest := idx; rest < len(urls); rest++ {
				if results[rest].URL == "" {
					results[rest] = LinkResult{
						URL:       urls[rest],
						State:     StateSkipped,
						Err:       ctx.Err().Error(),
						Documents: refs[urls[rest]],
					}
				}
			}
			close(jobs)
			wg.Wait()
			return summarize(results)
		}
	}
	close(jobs)
	wg.Wait()

	return summarize(results)
}

func summarize(results []LinkResult) Report {
	report := Report{Total: len(results), Results: results}
	for _, r := range results {
		switch r.State {
		case StateOK:
			report.OK++
		case StateSkipped:
			report.Skipped++
		default:
			report.Broken++
		}
	}
	return report
}

// collectExternal gathers distinct external URLs and the sorted document
// paths that reference each.
func collectExternal(reg *registry.DocumentRegistry) map[string][]string {
	refs := make(map[string]map[string]bool)
	for _, doc := range reg.GetAll() {
		for _, link := range doc.Links {
			if link.Kind != types.LinkExternal {
				continue
			}
			if refs[link.Target] == nil {
				refs[link.Target] = make(map[string]bool)
			}
			refs[link.Target][doc.Path] = true
		}
	}

	out := make(map[string][]string, len(refs))
	for u, docs := range refs {
		paths := make([]string, 0, len(docs))
		for p := range docs {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		out[u] = paths
	}
	return out
}

// CheckURL checks one URL, consulting the cache first.
func (c *Checker) CheckURL(ctx context.Context, rawURL string) LinkResult {
	c.mu.Lock()
	if cached, ok := c.cache[rawURL]; ok {
		c.mu.Unlock()
		return *cached
	}
	c.mu.Unlock()

	result := c.checkUncached(ctx, rawURL)

	c.mu.Lock()
	c.cache[rawURL] = &result
	c.mu.Unlock()

	return result
}

// InvalidateCache drops all cached results, forcing fresh fetches.
func (c *Checker) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*LinkResult)
}

func (c *Checker) checkUncached(ctx context.Context, rawURL string) LinkResult {
	start := time.Now()
	result := LinkResult{URL: rawURL}

	for _, pattern := range c.opts.IgnorePatterns {
		if strings.Contains(rawURL, pattern) {
			result.State = StateSkipped
			result.Err = "matches ignore pattern " + pattern
			return result
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		result.State = StateError
		result.Err = "invalid URL: " + err.Error()
		return result
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		result.State = StateSkipped
		result.Err = "scheme " + parsed.Scheme + " is never fetched"
		return result
	}

	fragment := parsed.Fragment
	parsed.Fragment = ""
	fetchURL := parsed.String()

	var lastErr error
	var status int
	var body string

	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				result.State = StateSkipped
				result.Err = ctx.Err().Error()
				result.Duration = time.Since(start)
				return result
			}
		}

		c.waitForHost(parsed.Host)

		needBody := c.opts.CheckFragments && fragment != ""
		status, body, lastErr = c.fetch(ctx, fetchURL, needBody)
		if lastErr != nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = fmt.Errorf("status %d", status)
			continue
		}
		break
	}

	result.Duration = time.Since(start)
	result.StatusCode = status

	switch {
	case lastErr != nil && isTimeout(lastErr):
		result.State = StateTimeout
		result.Err = lastErr.Error()
	case lastErr != nil:
		result.State = StateBroken
		result.Err = lastErr.Error()
	case status >= 400:
		result.State = StateBroken
		result.Err = fmt.Sprintf("status %d", status)
	case c.opts.CheckFragments && fragment != "" && body != "" && !htmlHasFragment(body, fragment):
		result.State = StateBroken
		result.Err = fmt.Sprintf("page has no element with id or name %q", fragment)
	default:
		result.State = StateOK
	}

	return result
}

// fetch issues a HEAD request, falling back to GET when the server rejects
// HEAD or when the response body is needed for fragment checking.
func (c *Checker) fetch(ctx context.Context, fetchURL string, needBody bool) (int, string, error) {
	if !needBody {
		status, err := c.do(ctx, http.MethodHead, fetchURL, nil)
		if err == nil && status != http.StatusMethodNotAllowed &&
			status != http.StatusNotImplemented && status != http.StatusForbidden {
			return status, "", nil
		}
	}

	var body strings.Builder
	status, err := c.do(ctx, http.MethodGet, fetchURL, &body)
	return status, body.String(), err
}

func (c *Checker) do(ctx context.Context, method, fetchURL string, body *strings.Builder) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, fetchURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if body != nil && strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		// 1MB is plenty for locating an anchor id.
		buf := make([]byte, 32*1024)
		total := 0
		for total < 1024*1024 {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				body.Write(buf[:n])
				total += n
			}
			if readErr != nil {
				break
			}
		}
	}

	return resp.StatusCode, nil
}

// waitForHost enforces the per-host politeness delay.
func (c *Checker) waitForHost(host string) {
	if c.opts.PerHostDelay <= 0 {
		return
	}

	c.hostMu.Lock()
	last, seen := c.hostLast[host]
	now := time.Now()
	var wait time.Duration
	if seen {
		if elapsed := now.Sub(last); elapsed < c.opts.PerHostDelay {
			wait = c.opts.PerHostDelay - elapsed
		}
	}
	c.hostLast[host] = now.Add(wait)
	c.hostMu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout")
}

// htmlHasFragment reports whether the HTML document contains an element with
// the given id, or an <a name=...> matching it.
func htmlHasFragment(document, fragment string) bool {
	tokenizer := html.NewTokenizer(strings.NewReader(document))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return false
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		for _, attr := range token.Attr {
			if attr.Key == "id" && attr.Val == fragment {
				return true
			}
			if token.Data == "a" && attr.Key == "name" && attr.Val == fragment {
				return true
			}
		}
	}
}
