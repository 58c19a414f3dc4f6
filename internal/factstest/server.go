// Package factstest runs an in-process fake of the facts service for tests.
package factstest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tchap/go-patricia/v2/patricia"

	"factgrip/internal/domain"
)

// Endpoint names used by Hits
const (
	EndpointRandom       = "random"
	EndpointTitle        = "title"
	EndpointAutocomplete = "autocomplete"
)

// DefaultPageSize matches the service's autocomplete page size
const DefaultPageSize = 10

var errPageFull = errors.New("page full")

// Server serves the facts contract from an in-memory catalogue
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	byTitle     map[string]domain.Fact
	byID        map[string]domain.Fact
	ids         []string
	index       *patricia.Trie
	suggestions map[string][]string
	failTitles  map[string]int
	randomCode  int
	randomBody  string
	script      []string
	scriptPos   int
	contentType string
	delays      map[string]time.Duration
	hits        map[string]int
}

// NewServer starts a fake service holding facts. It is closed when the test
// ends.
func NewServer(t testing.TB, facts ...domain.Fact) *Server {
	t.Helper()

	s := &Server{
		byTitle:     make(map[string]domain.Fact),
		byID:        make(map[string]domain.Fact),
		index:       patricia.NewTrie(),
		suggestions: make(map[string][]string),
		failTitles:  make(map[string]int),
		delays:      make(map[string]time.Duration),
		hits:        make(map[string]int),
	}
	for _, f := range facts {
		s.Add(f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/facts/random", s.handleRandom)
	mux.HandleFunc("GET /api/facts/title/{title}", s.handleTitle)
	mux.HandleFunc("GET /api/facts/autocomplete", s.handleAutocomplete)

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL returns the API root to hand to a client
func (s *Server) BaseURL() string {
	return s.srv.URL + "/api"
}

// Close shuts the server down; later requests fail at the transport level
func (s *Server) Close() {
	s.srv.Close()
}

// Add stores a fact, assigning an id when it has none
func (s *Server) Add(f domain.Fact) domain.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if _, ok := s.byID[f.ID]; !ok {
		s.ids = append(s.ids, f.ID)
	}
	s.byID[f.ID] = f
	s.byTitle[f.Title] = f
	s.index.Set(patricia.Prefix(strings.ToLower(f.Title)), f.Title)
	return f
}

// SetSuggestions fixes the autocomplete answer for an exact partial
func (s *Server) SetSuggestions(partial string, titles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[partial] = titles
}

// FailTitle makes lookups of title answer with the given status
func (s *Server) FailTitle(title string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTitles[title] = status
}

// FailRandom makes the random endpoint answer with status; 0 restores it
func (s *Server) FailRandom(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.randomCode = status
}

// SetRandomBody makes the random endpoint answer 200 with a raw body
func (s *Server) SetRandomBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.randomBody = body
}

// ScriptRandom makes the random endpoint cycle through ids. An empty id
// serves a fact without an id.
func (s *Server) ScriptRandom(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = ids
	s.scriptPos = 0
}

// SetContentType overrides the autocomplete content type
func (s *Server) SetContentType(ct string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentType = ct
}

// SetDelay holds autocomplete answers for partial until d elapses or the
// client goes away
func (s *Server) SetDelay(partial string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[partial] = d
}

// Hits returns how many requests an endpoint received
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[EndpointRandom]++
	code, body := s.randomCode, s.randomBody
	var fact domain.Fact
	var found bool
	switch {
	case len(s.script) > 0:
		id := s.script[s.scriptPos%len(s.script)]
		s.scriptPos++
		if id == "" {
			fact, found = domain.Fact{Title: "anonymous", Body: "no id"}, true
		} else {
			fact, found = s.byID[id]
		}
	case len(s.ids) > 0:
		fact, found = s.byID[s.ids[rand.IntN(len(s.ids))]], true
	}
	s.mu.Unlock()

	switch {
	case code != 0:
		http.Error(w, http.StatusText(code), code)
	case body != "":
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	case !found:
		http.Error(w, "no facts", http.StatusNotFound)
	default:
		writeJSON(w, fact)
	}
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")

	s.mu.Lock()
	s.hits[EndpointTitle]++
	code := s.failTitles[title]
	fact, found := s.byTitle[title]
	s.mu.Unlock()

	switch {
	case code != 0:
		http.Error(w, http.StatusText(code), code)
	case !found:
		http.Error(w, "fact not found", http.StatusNotFound)
	default:
		writeJSON(w, fact)
	}
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("partial")
	size := pageSize(r.URL.Query())

	s.mu.Lock()
	s.hits[EndpointAutocomplete]++
	delay := s.delays[partial]
	ct := s.contentType
	titles, scripted := s.suggestions[partial]
	if !scripted {
		titles = s.prefixMatches(partial, size)
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if ct != "" {
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html>not json</html>")
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, titles)
}

// prefixMatches must be called with s.mu held
func (s *Server) prefixMatches(partial string, size int) []string {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if partial == "" {
		return nil
	}
	var titles []string
	_ = s.index.VisitSubtree(patricia.Prefix(partial), func(_ patricia.Prefix, item patricia.Item) error {
		titles = append(titles, item.(string))
		if len(titles) >= size {
			return errPageFull
		}
		return nil
	})
	return titles
}

func pageSize(q url.Values) int {
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		return n
	}
	return DefaultPageSize
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Fact builds a complete fact for title
func Fact(title string) domain.Fact {
	created := domain.ParseTimestamp("2024-05-01T10:00:00")
	return domain.Fact{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      "All about " + title + ".",
		Tag:       "test",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Facts builds one complete fact per title
func Facts(titles ...string) []domain.Fact {
	out := make([]domain.Fact, len(titles))
	for i, title := range titles {
		out[i] = Fact(title)
	}
	return out
}
