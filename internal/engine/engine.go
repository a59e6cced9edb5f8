// Package engine is the client-side core: cached reads of the active space and
// its lists, and optimistic writes that roll back when the remote store fails.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"listshare/internal/cache"
	"listshare/internal/mutation"
	"listshare/internal/service"
	"listshare/internal/token"
)

var (
	// ErrNoSpace means no space token is stored.
	ErrNoSpace = errors.New("no space token")

	// ErrInvalidToken means the stored token matches no space. The token has
	// been cleared by the time this is returned.
	ErrInvalidToken = errors.New("space token does not match any space")

	// ErrMissingSpaceID is returned before any remote call when a list
	// operation has no space to scope it to.
	ErrMissingSpaceID = errors.New("space id is required")

	// ErrAuthorRequired is returned when creating a space without an author.
	ErrAuthorRequired = errors.New("author name is required")

	ErrInsertFailed = errors.New("insertion failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrNoData       = errors.New("no data found")

	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
)

// SpaceKey is the cache key of the space identified by tok.
func SpaceKey(tok string) string {
	return "space/" + tok
}

// ListsKey is the cache key of all lists of a space.
func ListsKey(spaceID string) string {
	return "lists/" + spaceID
}

// Engine coordinates the remote store, the query cache, and the token manager.
type Engine struct {
	store  service.Store
	tokens *token.Manager
	cache  *cache.Cache
	runner *mutation.Runner
	now    func() time.Time
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache uses c instead of a fresh cache.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithClock overrides time.Now for provisional timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine.
func New(store service.Store, tokens *token.Manager, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		tokens: tokens,
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New(cache.WithLogger(e.logger))
	}
	e.runner = mutation.NewRunner(e.cache, e.logger)
	return e
}

// Tokens returns the token manager.
func (e *Engine) Tokens() *token.Manager {
	return e.tokens
}

// Cache returns the query cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Space returns the space of the current token. Without a token the query is
// disabled and Space returns nil, nil; an unknown token also yields nil.
func (e *Engine) Space(ctx context.Context) (*service.Space, error) {
	tok, ok := e.tokens.Token()
	if !ok {
		return nil, nil
	}
	return e.spaceFor(ctx, tok)
}

func (e *Engine) spaceFor(ctx context.Context, tok string) (*service.Space, error) {
	return cache.Fetch(ctx, e.cache, SpaceKey(tok), func(ctx context.Context) (*service.Space, error) {
		sp, err := e.store.SpaceByToken(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoData, err)
		}
		return sp, nil
	})
}

// ActiveSpace returns the current space or explains why there is none.
// A token that matches no space is cleared along with the whole cache.
func (e *Engine) ActiveSpace(ctx context.Context) (service.Space, error) {
	tok, ok := e.tokens.Token()
	if !ok {
		e.cache.Clear()
		return service.Space{}, ErrNoSpace
	}
	sp, err := e.spaceFor(ctx, tok)
	if err != nil {
		return service.Space{}, err
	}
	if sp == nil {
		e.logger.Warn("stored space token matches no space, clearing it")
		if err := e.tokens.Clear(); err != nil {
			e.logger.Error("failed to clear space token", "err", err)
		}
		e.cache.Clear()
		return service.Space{}, ErrInvalidToken
	}
	return *sp, nil
}

// CreateSpace creates a space owned by author. The new token is persisted only
// once the remote insert succeeds and cleared if it fails.
func (e *Engine) CreateSpace(ctx context.Context, author string) (service.Space, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return service.Space{}, ErrAuthorRequired
	}
	tok := e.tokens.Generate()

	sp, err := mutation.Run(ctx, e.runner, mutation.Mutation[*service.Space, service.Space]{
		Key: SpaceKey(tok),
		Speculate: func(*service.Space) *service.Space {
			return &service.Space{Author: author, SpaceToken: tok, CreatedAt: e.now()}
		},
		Remote: func(ctx context.Context) (service.Space, error) {
			sp, err := e.store.InsertSpace(ctx, service.NewSpace{Author: author, SpaceToken: tok})
			if err != nil {
				return service.Space{}, fmt.Errorf("%w: %v", ErrInsertFailed, err)
			}
			if err := e.tokens.Save(tok); err != nil {
				return service.Space{}, fmt.Errorf("save space token: %w", err)
			}
			return sp, nil
		},
		Reconcile: func(_ *service.Space, sp service.Space) (*service.Space, bool) {
			return &sp, true
		},
	})
	if err != nil {
		if clearErr := e.tokens.Clear(); clearErr != nil {
			e.logger.Error("failed to clear space token", "err", clearErr)
		}
		return service.Space{}, err
	}
	e.logger.Debug("space created", "id", sp.ID)
	return sp, nil
}

// AllLists returns every list of a space ordered by creation time. Without a
// space ID the query is disabled and AllLists returns nil, nil.
func (e *Engine) AllLists(ctx context.Context, spaceID string) ([]service.List, error) {
	if spaceID == "" {
		return nil, nil
	}
	return cache.Fetch(ctx, e.cache, ListsKey(spaceID), func(ctx context.Context) ([]service.List, error) {
		lists, err := e.store.ListsBySpace(ctx, spaceID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoData, err)
		}
		if lists == nil {
			lists = []service.List{}
		}
		return service.SortLists(lists), nil
	})
}

// List returns one list of a space, or nil if there is no such list.
// It reads through the AllLists cache entry and never queries on its own.
func (e *Engine) List(ctx context.Context, spaceID, listID string) (*service.List, error) {
	lists, err := e.AllLists(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.ID == listID {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

// SaveList creates a list when listID is empty and updates it otherwise.
func (e *Engine) SaveList(ctx context.Context, spaceID, listID string, patch service.ListPatch) (service.List, error) {
	if spaceID == "" {
		return service.List{}, ErrMissingSpaceID
	}
	if listID == "" {
		return e.createList(ctx, spaceID, patch)
	}
	return e.updateList(ctx, spaceID, listID, patch)
}

func (e *Engine) createList(ctx context.Context, spaceID string, patch service.ListPatch) (service.List, error) {
	var title string
	if patch.Title != nil {
		title = *patch.Title
	}
	items := patch.Items
	if items == nil {
		items = []service.ListItem{}
	}
	provisional := service.List{
		Title:     title,
		Slug:      service.Slugify(title),
		Items:     items,
		CreatedAt: e.now(),
		SpaceID:   spaceID,
	}

	return mutation.Run(ctx, e.runner, mutation.Mutation[[]service.List, service.List]{
		Key: ListsKey(spaceID),
		Speculate: func(prev []service.List) []service.List {
			next := make([]service.List, 0, len(prev)+1)
			next = append(next, prev...)
			return service.SortLists(append(next, provisional))
		},
		Remote: func(ctx context.Context) (service.List, error) {
			created, err := e.store.InsertList(ctx, service.NewList{
				Title:   provisional.Title,
				Slug:    provisional.Slug,
				Items:   provisional.Items,
				SpaceID: spaceID,
			})
			if err != nil {
				return service.List{}, fmt.Errorf("%w: %v", ErrInsertFailed, err)
			}
			return created, nil
		},
		Reconcile: func(current []service.List, created service.List) ([]service.List, bool) {
			next := make([]service.List, 0, len(current)+1)
			replaced := false
			for _, l := range current {
				if !replaced && l.ID == "" {
					next = append(next, created)
					replaced = true
					continue
				}
				next = append(next, l)
			}
			if !replaced {
				next = append(next, created)
			}
			return service.SortLists(next), true
		},
	})
}

func (e *Engine) updateList(ctx context.Context, spaceID, listID string, patch service.ListPatch) (service.List, error) {
	return mutation.Run(ctx, e.runner, mutation.Mutation[[]service.List, service.List]{
		Key: ListsKey(spaceID),
		Speculate: func(prev []service.List) []service.List {
			return replaceList(prev, listID, func(l service.List) service.List {
				return patch.Apply(l)
			})
		},
		Remote: func(ctx context.Context) (service.List, error) {
			rows, err := e.store.UpdateList(ctx, listID, spaceID, patch)
			if err != nil {
				return service.List{}, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
			}
			if len(rows) == 0 {
				return service.List{}, fmt.Errorf("%w: no list %s in space %s", ErrUpdateFailed, listID, spaceID)
			}
			return rows[0], nil
		},
		Reconcile: func(current []service.List, updated service.List) ([]service.List, bool) {
			return replaceList(current, listID, func(service.List) service.List {
				return updated
			}), true
		},
	})
}

// replaceList removes the list matching id and appends fn(list) in its place,
// then restores creation order. Without a match the lists are unchanged.
func replaceList(lists []service.List, id string, fn func(service.List) service.List) []service.List {
	next := make([]service.List, 0, len(lists))
	var target *service.List
	for i := range lists {
		if target == nil && lists[i].ID == id {
			target = &lists[i]
			continue
		}
		next = append(next, lists[i])
	}
	if target == nil {
		return service.SortLists(lists)
	}
	return service.SortLists(append(next, fn(*target)))
}

// DeleteList removes a list. Deletion is immediate and irreversible.
func (e *Engine) DeleteList(ctx context.Context, spaceID, listID string) error {
	if spaceID == "" {
		return ErrMissingSpaceID
	}
	_, err := mutation.Run(ctx, e.runner, mutation.Mutation[[]service.List, struct{}]{
		Key: ListsKey(spaceID),
		Speculate: func(prev []service.List) []service.List {
			next := make([]service.List, 0, len(prev))
			for _, l := range prev {
				if l.ID != listID {
					next = append(next, l)
				}
			}
			return service.SortLists(next)
		},
		Remote: func(ctx context.Context) (struct{}, error) {
			if err := e.store.DeleteList(ctx, listID, spaceID); err != nil {
				return struct{}{}, fmt.Errorf("%w: %v", ErrDeleteFailed, err)
			}
			return struct{}{}, nil
		},
	})
	return err
}
