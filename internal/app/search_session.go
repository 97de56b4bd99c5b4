package app

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"foodfollow/internal/domain"
	"foodfollow/internal/metrics"
)

// DefaultDebounce is the quiet period before a typed query is sent.
const DefaultDebounce = 450 * time.Millisecond

// SearchState is the visible state of a SearchSession.
type SearchState string

// Search states. SearchStaleDiscarded never becomes the session state; it is
// the outcome of a dispatch overtaken by a newer generation.
const (
	SearchIdle           SearchState = "idle"
	SearchDebouncing     SearchState = "debouncing"
	SearchInFlight       SearchState = "in-flight"
	SearchSettled        SearchState = "settled"
	SearchStaleDiscarded SearchState = "stale-discarded"
)

// TextSearcher runs one catalog text search.
type TextSearcher interface {
	SearchByText(ctx context.Context, query string, pageSize int) ([]domain.Product, error)
}

// SearchSnapshot is a copy of the visible search state.
type SearchSnapshot struct {
	State      SearchState      `json:"state"`
	Query      string           `json:"query"`
	Generation uint64           `json:"generation"`
	Results    []domain.Product `json:"results"`
	Error      string           `json:"error,omitempty"`
	Discarded  uint64           `json:"discarded"`
}

// DispatchOutcome describes how one dispatched search ended: SearchSettled
// when applied, SearchStaleDiscarded when dropped.
type DispatchOutcome struct {
	Generation uint64
	Query      string
	State      SearchState
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SearchSessionOptions configures a SearchSession. Zero values pick defaults.
type SearchSessionOptions struct {
	Debounce  time.Duration
	PageSize  int
	AfterFunc AfterFunc
	OnOutcome func(DispatchOutcome)
	Metrics   *metrics.Metrics
}

// SearchSession debounces typed queries and guarantees that only the result
// of the latest generation is ever applied to the visible state.
type SearchSession struct {
	searcher  TextSearcher
	debounce  time.Duration
	pageSize  int
	afterFunc AfterFunc
	onOutcome func(DispatchOutcome)
	metrics   *metrics.Metrics

	mu     sync.Mutex
	gen    uint64
	stop   func() bool
	snap   SearchSnapshot
	subs   map[chan SearchSnapshot]struct{}
	closed bool
}

// NewSearchSession creates an idle session.
func NewSearchSession(searcher TextSearcher, opts SearchSessionOptions) *SearchSession {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Discard()
	}
	return &SearchSession{
		searcher:  searcher,
		debounce:  opts.Debounce,
		pageSize:  opts.PageSize,
		afterFunc: opts.AfterFunc,
		onOutcome: opts.OnOutcome,
		metrics:   opts.Metrics,
		snap:      SearchSnapshot{State: SearchIdle, Results: []domain.Product{}},
		subs:      make(map[chan SearchSnapshot]struct{}),
	}
}

// Input records a change of the query text. An unchanged query is ignored.
func (s *SearchSession) Input(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || query == s.snap.Query {
		return
	}
	s.resetLocked(query)
}

// Clear empties the query and the results.
func (s *SearchSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked("")
}

func (s *SearchSession) resetLocked(query string) {
	s.gen++
	s.stopTimerLocked()
	s.snap.Query = query
	s.snap.Generation = s.gen

	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		s.snap.State = SearchIdle
		s.snap.Results = []domain.Product{}
		s.snap.Error = ""
		s.publishLocked()
		return
	}

	gen := s.gen
	s.snap.State = SearchDebouncing
	s.stop = s.afterFunc(s.debounce, func() { s.dispatch(gen, q) })
	s.publishLocked()
}

func (s *SearchSession) stopTimerLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *SearchSession) dispatch(gen uint64, query string) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.stop = nil
	s.snap.State = SearchInFlight
	s.snap.Error = ""
	s.publishLocked()
	s.mu.Unlock()

	// In-flight requests are never aborted; a superseded result is dropped
	// when it arrives.
	products, err := s.searcher.SearchByText(context.Background(), query, s.pageSize)

	s.mu.Lock()
	if gen != s.gen {
		s.snap.Discarded++
		s.mu.Unlock()
		s.metrics.StaleDiscards.Inc()
		s.report(DispatchOutcome{Generation: gen, Query: query, State: SearchStaleDiscarded})
		return
	}
	if err != nil {
		s.snap.Results = []domain.Product{}
		s.snap.Error = ErrSearchFailed.Error()
	} else {
		if products == nil {
			products = []domain.Product{}
		}
		s.snap.Results = products
		s.snap.Error = ""
	}
	s.snap.State = SearchSettled
	s.publishLocked()
	s.mu.Unlock()

	s.report(DispatchOutcome{Generation: gen, Query: query, State: SearchSettled})
}

func (s *SearchSession) report(o DispatchOutcome) {
	if s.onOutcome != nil {
		s.onOutcome(o)
	}
}

// Snapshot returns the current visible state.
func (s *SearchSession) Snapshot() SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Result returns the product with the given code from the current results.
func (s *SearchSession) Result(code string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.snap.Results {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Subscribe returns a channel receiving a snapshot after every visible
// transition. Slow subscribers miss updates instead of blocking the session.
func (s *SearchSession) Subscribe() chan SearchSnapshot {
	ch := make(chan SearchSnapshot, 16)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *SearchSession) Unsubscribe(ch chan SearchSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *SearchSession) publishLocked() {
	snap := s.snap
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close tears the session down. Pending timers are stopped and any result
// still in flight is discarded on arrival.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.stopTimerLocked()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan SearchSnapshot]struct{}{}
}
