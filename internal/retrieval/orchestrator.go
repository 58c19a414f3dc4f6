// Package retrieval assembles result sets of facts from the facts service.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"factgrip/internal/domain"
	"factgrip/internal/factsapi"
	"factgrip/internal/logger"
)

// DefaultMaxResults caps how many suggested titles a query search fetches
const DefaultMaxResults = 10

// AttemptsPerFact bounds random fetching: at most AttemptsPerFact×count
// requests are made
const AttemptsPerFact = 3

// FactSource is the remote facts service
type FactSource interface {
	Random(ctx context.Context) (domain.Fact, error)
	ByTitle(ctx context.Context, title string) (domain.Fact, error)
	Autocomplete(ctx context.Context, partial string) ([]string, error)
}

// Outcome is the settled result of fetching one title
type Outcome struct {
	Title string
	Fact  domain.Fact
	Err   error
}

// OK reports whether the title produced a usable fact
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Orchestrator runs the fact retrieval operations. It holds no per-call
// state and is safe for concurrent use.
type Orchestrator struct {
	source     FactSource
	maxResults int
	log        *log.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMaxResults sets how many suggested titles SearchByQuery fetches
func WithMaxResults(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an orchestrator over source
func New(source FactSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     source,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logger.Or(o.log).WithPrefix("retrieval")
	return o
}

// MaxResults returns the title cap of SearchByQuery
func (o *Orchestrator) MaxResults() int {
	return o.maxResults
}

// FetchByTitle fetches one fact. Failures are logged and reported as not
// found.
func (o *Orchestrator) FetchByTitle(ctx context.Context, title string) (domain.Fact, bool) {
	fact, err := o.fetchTitle(ctx, title)
	if err != nil {
		o.logMiss(title, err)
		return domain.Fact{}, false
	}
	return fact, true
}

func (o *Orchestrator) fetchTitle(ctx context.Context, title string) (domain.Fact, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Fact{}, errors.New("empty title")
	}
	fact, err := o.source.ByTitle(ctx, title)
	if err != nil {
		return domain.Fact{}, err
	}
	if !fact.Complete() {
		return domain.Fact{}, fmt.Errorf("%w: fact %q", factsapi.ErrIncomplete, title)
	}
	return fact, nil
}

func (o *Orchestrator) logMiss(title string, err error) {
	switch {
	case factsapi.IsCanceled(err):
		o.log.Info("Fact request aborted", "title", title)
	case factsapi.IsPayload(err):
		o.log.Warn("Unusable fact", "title", title, "err", err)
	default:
		o.log.Error("Failed to fetch fact", "title", title, "err", err)
	}
}

// FetchRandom collects up to count distinct random facts. It stops after
// AttemptsPerFact×count requests and returns what it has. A fact without an
// id spends an attempt; any other failure aborts the whole fetch.
func (o *Orchestrator) FetchRandom(ctx context.Context, count int) ([]domain.Fact, error) {
	facts := make([]domain.Fact, 0, max(count, 0))
	if count <= 0 {
		return facts, nil
	}

	budget := AttemptsPerFact * count
	seen := make(map[string]bool, count)
	attempts := 0

	for attempts < budget && len(facts) < count {
		attempts++
		fact, err := o.source.Random(ctx)
		if err != nil {
			if errors.Is(err, factsapi.ErrIncomplete) {
				o.log.Warn("Skipping random fact without id", "attempt", attempts)
				continue
			}
			return nil, fmt.Errorf("random fact attempt %d/%d: %w", attempts, budget, err)
		}
		if seen[fact.ID] {
			o.log.Debug("Duplicate random fact", "id", fact.ID, "attempt", attempts)
			continue
		}
		seen[fact.ID] = true
		facts = append(facts, fact)
	}

	if len(facts) < count {
		o.log.Warn("Random fetch came up short", "wanted", count, "got", len(facts), "attempts", attempts)
	}
	return facts, nil
}

// SearchByQuery fetches the facts behind the titles the service suggests for
// query. Titles are fetched concurrently and individual failures are
// dropped. The result is in settle order with duplicate ids removed.
func (o *Orchestrator) SearchByQuery(ctx context.Context, query string) ([]domain.Fact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Fact{}, nil
	}

	titles, err := o.source.Autocomplete(ctx, query)
	if err != nil {
		if errors.Is(err, factsapi.ErrContentType) {
			o.log.Warn("Suggestions were not JSON, treating as empty", "query", query, "err", err)
			return []domain.Fact{}, nil
		}
		return nil, fmt.Errorf("suggestions for %q: %w", query, err)
	}
	if len(titles) == 0 {
		return []domain.Fact{}, nil
	}
	if len(titles) > o.maxResults {
		titles = titles[:o.maxResults]
	}

	outcomes := o.Settle(ctx, titles)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := make([]domain.Fact, 0, len(outcomes))
	failed := 0
	for _, out := range outcomes {
		if !out.OK() {
			failed++
			continue
		}
		facts = append(facts, out.Fact)
	}
	facts = domain.UniqueFacts(facts)

	o.log.Debug("Query search settled", "query", query, "titles", len(titles), "failed", failed, "facts", len(facts))
	return facts, nil
}

// Settle fetches every title concurrently and waits for all of them. The
// outcomes are in the order the requests finished; failures are logged and
// carried in Outcome.Err.
func (o *Orchestrator) Settle(ctx context.Context, titles []string) []Outcome {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(titles))
	)

	for _, title := range titles {
		g.Go(func() error {
			fact, err := o.fetchTitle(ctx, title)
			if err != nil {
				o.logMiss(title, err)
			}

			mu.Lock()
			outcomes = append(outcomes, Outcome{Title: title, Fact: fact, Err: err})
			mu.Unlock()

			// Failures stay in the outcome; the group itself never fails
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
