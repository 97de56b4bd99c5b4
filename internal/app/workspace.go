package app

import (
	"errors"
	"sync"
	"sync/atomic"

	"foodfollow/internal/domain"
)

// ErrResultNotFound indicates a product code that is not among the current
// search results.
var ErrResultNotFound = errors.New("product is not in the current search results")

// Workspace is one user's meal composition state: the draft, the live
// search and the scan hand-off slot.
type Workspace struct {
	Draft   *Draft
	Search  *SearchSession
	Pending *PendingScan

	scanning atomic.Bool
}

// AddResult adds the current search result with the given code to the draft.
// added is false when the food was already selected.
func (ws *Workspace) AddResult(code string) (food domain.FoodItem, added bool, err error) {
	p, ok := ws.Search.Result(code)
	if !ok {
		return domain.FoodItem{}, false, ErrResultNotFound
	}
	food = domain.NewFoodItem(p)
	return food, ws.Draft.Add(food), nil
}

// Workspaces lazily creates and owns one Workspace per user.
type Workspaces struct {
	searcher TextSearcher
	opts     SearchSessionOptions

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewWorkspaces creates a registry whose search sessions use searcher.
func NewWorkspaces(searcher TextSearcher, opts SearchSessionOptions) *Workspaces {
	return &Workspaces{searcher: searcher, opts: opts, items: make(map[string]*Workspace)}
}

// Get returns the workspace of user, creating it on first use.
func (w *Workspaces) Get(user string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.items[user]
	if !ok {
		ws = &Workspace{
			Draft:   NewDraft(),
			Search:  NewSearchSession(w.searcher, w.opts),
			Pending: NewPendingScan(),
		}
		w.items[user] = ws
	}
	return ws
}

// Close tears down every search session.
func (w *Workspaces) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for user, ws := range w.items {
		ws.Search.Close()
		delete(w.items, user)
	}
}
