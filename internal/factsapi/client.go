// Package factsapi is the HTTP client for the remote facts service.
//
// Every response body is read in full as text before it is parsed, so a
// malformed payload (ErrMalformed) can be told apart from a transport failure
// (ErrTransport) in the logs. Callers decide which of these are fatal.
package factsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"factgrip/internal/domain"
	"factgrip/internal/logger"
)

// DefaultTimeout is used when no HTTP client is supplied
const DefaultTimeout = 10 * time.Second

// maxBodyInLog bounds how much of a response body ends up in errors and logs
const maxBodyInLog = 256

// Client talks to the facts service
type Client struct {
	baseURL        string
	httpClient     *http.Client
	suggestionSize int
	log            *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithSuggestionSize asks the service for at most n suggestions per request.
// Zero leaves the page size to the service.
func WithSuggestionSize(n int) Option {
	return func(c *Client) { c.suggestionSize = n }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the service rooted at baseURL, e.g.
// "http://localhost:8080/api"
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Or(c.log).WithPrefix("factsapi")
	return c
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Random fetches one random fact. A fact without an id is returned together
// with ErrIncomplete so callers can decide whether that is fatal.
func (c *Client) Random(ctx context.Context) (domain.Fact, error) {
	body, err := c.get(ctx, "/facts/random", false)
	if err != nil {
		return domain.Fact{}, err
	}

	var fact domain.Fact
	if err := json.Unmarshal(body, &fact); err != nil {
		c.log.Error("Failed to parse random fact", "body", truncate(body), "err", err)
		return domain.Fact{}, fmt.Errorf("%w: random fact: %v", ErrMalformed, err)
	}
	if fact.ID == "" {
		return fact, fmt.Errorf("%w: random fact has no id", ErrIncomplete)
	}
	return fact, nil
}

// ByTitle fetches the fact with the given exact title
func (c *Client) ByTitle(ctx context.Context, title string) (domain.Fact, error) {
	body, err := c.get(ctx, "/facts/title/"+url.PathEscape(title), false)
	if err != nil {
		return domain.Fact{}, err
	}

	var fact domain.Fact
	if err := json.Unmarshal(body, &fact); err != nil {
		c.log.Error("Failed to parse fact", "title", title, "body", truncate(body), "err", err)
		return domain.Fact{}, fmt.Errorf("%w: fact %q: %v", ErrMalformed, title, err)
	}
	if !fact.Complete() {
		return fact, fmt.Errorf("%w: fact %q lacks id, title or body", ErrIncomplete, title)
	}
	return fact, nil
}

// Autocomplete fetches the titles suggested for a partial query. An OK
// response with a non-JSON content type yields ErrContentType.
func (c *Client) Autocomplete(ctx context.Context, partial string) ([]string, error) {
	q := url.Values{}
	q.Set("partial", partial)
	if c.suggestionSize > 0 {
		q.Set("size", strconv.Itoa(c.suggestionSize))
	}

	body, err := c.get(ctx, "/facts/autocomplete?"+q.Encode(), true)
	if err != nil {
		return nil, err
	}

	var titles []string
	if err := json.Unmarshal(body, &titles); err != nil {
		c.log.Error("Failed to parse suggestions", "partial", partial, "body", truncate(body), "err", err)
		return nil, fmt.Errorf("%w: suggestions for %q: %v", ErrMalformed, partial, err)
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

// get performs a GET and returns the raw body of a 2xx response
func (c *Client) get(ctx context.Context, path string, requireJSON bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Path: path, Body: string(truncate(body))}
	}

	if requireJSON && !isJSON(resp.Header.Get("Content-Type")) {
		c.log.Warn("Non-JSON response", "path", path, "content_type", resp.Header.Get("Content-Type"), "body", truncate(body))
		return nil, fmt.Errorf("%w: %q", ErrContentType, resp.Header.Get("Content-Type"))
	}

	return body, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func truncate(body []byte) []byte {
	if len(body) > maxBodyInLog {
		return body[:maxBodyInLog]
	}
	return body
}

// IsCanceled reports whether err comes from an aborted request
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
