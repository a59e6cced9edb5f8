// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listshare/internal/service"
)

// BaseTime is the creation time of the first row inserted into a FakeStore.
// Each further insert is one second later.
var BaseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// UpdateCall records one UpdateList invocation.
type UpdateCall struct {
	ID      string
	SpaceID string
	Patch   service.ListPatch
}

// FakeStore is an in-memory implementation of service.Store for testing.
type FakeStore struct {
	mu     sync.RWMutex
	spaces []service.Space
	lists  []service.List
	seq    int
	clock  time.Time

	// NewSpaceID and NewListID override generated row IDs.
	NewSpaceID func() string
	NewListID  func() string

	// Error injection for testing
	SpaceByTokenErr error
	InsertSpaceErr  error
	ListsBySpaceErr error
	InsertListErr   error
	UpdateListErr   error
	DeleteListErr   error

	// BeforeListsBySpace runs at the start of ListsBySpace, outside the lock.
	BeforeListsBySpace func(ctx context.Context)

	// Calls records operation names in call order.
	Calls []string

	// Updates records every UpdateList call.
	Updates []UpdateCall
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{clock: BaseTime}
}

func (f *FakeStore) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *FakeStore) tick() time.Time {
	t := f.clock
	f.clock = f.clock.Add(time.Second)
	return t
}

func (f *FakeStore) nextID(prefix string, override func() string) string {
	if override != nil {
		return override()
	}
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// AddSpace seeds a space and returns it.
func (f *FakeStore) AddSpace(id, author, token string) service.Space {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp := service.Space{ID: id, Author: author, SpaceToken: token, CreatedAt: f.tick()}
	f.spaces = append(f.spaces, sp)
	return sp
}

// AddList seeds a list and returns it.
func (f *FakeStore) AddList(id, spaceID, title string, items ...service.ListItem) service.List {
	f.mu.Lock()
	defer f.mu.Unlock()
	if items == nil {
		items = []service.ListItem{}
	}
	l := service.List{
		ID:        id,
		Title:     title,
		Slug:      service.Slugify(title),
		Items:     cloneItems(items),
		CreatedAt: f.tick(),
		SpaceID:   spaceID,
	}
	f.lists = append(f.lists, l)
	return cloneList(l)
}

// Lists returns a copy of every stored list in insertion order.
func (f *FakeStore) Lists() []service.List {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.List, len(f.lists))
	for i, l := range f.lists {
		result[i] = cloneList(l)
	}
	return result
}

// Spaces returns a copy of every stored space.
func (f *FakeStore) Spaces() []service.Space {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Space, len(f.spaces))
	copy(result, f.spaces)
	return result
}

// SpaceByToken implements service.Store.
func (f *FakeStore) SpaceByToken(ctx context.Context, token string) (*service.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SpaceByToken")
	if f.SpaceByTokenErr != nil {
		return nil, f.SpaceByTokenErr
	}
	for _, sp := range f.spaces {
		if sp.SpaceToken == token {
			found := sp
			return &found, nil
		}
	}
	return nil, nil
}

// InsertSpace implements service.Store.
func (f *FakeStore) InsertSpace(ctx context.Context, space service.NewSpace) (service.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertSpace")
	if f.InsertSpaceErr != nil {
		return service.Space{}, f.InsertSpaceErr
	}
	sp := service.Space{
		ID:         f.nextID("space", f.NewSpaceID),
		Author:     space.Author,
		SpaceToken: space.SpaceToken,
		CreatedAt:  f.tick(),
	}
	f.spaces = append(f.spaces, sp)
	return sp, nil
}

// ListsBySpace implements service.Store.
func (f *FakeStore) ListsBySpace(ctx context.Context, spaceID string) ([]service.List, error) {
	if f.BeforeListsBySpace != nil {
		f.BeforeListsBySpace(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListsBySpace")
	if f.ListsBySpaceErr != nil {
		return nil, f.ListsBySpaceErr
	}
	var result []service.List
	for _, l := range f.lists {
		if l.SpaceID == spaceID {
			result = append(result, cloneList(l))
		}
	}
	return result, nil
}

// InsertList implements service.Store.
func (f *FakeStore) InsertList(ctx context.Context, list service.NewList) (service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertList")
	if f.InsertListErr != nil {
		return service.List{}, f.InsertListErr
	}
	items := list.Items
	if items == nil {
		items = []service.ListItem{}
	}
	l := service.List{
		ID:        f.nextID("list", f.NewListID),
		Title:     list.Title,
		Slug:      list.Slug,
		Items:     cloneItems(items),
		CreatedAt: f.tick(),
		SpaceID:   list.SpaceID,
	}
	f.lists = append(f.lists, l)
	return cloneList(l), nil
}

// UpdateList implements service.Store.
func (f *FakeStore) UpdateList(ctx context.Context, id, spaceID string, patch service.ListPatch) ([]service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateList")
	f.Updates = append(f.Updates, UpdateCall{ID: id, SpaceID: spaceID, Patch: clonePatch(patch)})
	if f.UpdateListErr != nil {
		return nil, f.UpdateListErr
	}
	var updated []service.List
	for i, l := range f.lists {
		if l.ID == id && l.SpaceID == spaceID {
			f.lists[i] = clonePatch(patch).Apply(l)
			updated = append(updated, cloneList(f.lists[i]))
		}
	}
	return updated, nil
}

// DeleteList implements service.Store.
func (f *FakeStore) DeleteList(ctx context.Context, id, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteList")
	if f.DeleteListErr != nil {
		return f.DeleteListErr
	}
	kept := f.lists[:0]
	for _, l := range f.lists {
		if l.ID == id && l.SpaceID == spaceID {
			continue
		}
		kept = append(kept, l)
	}
	f.lists = kept
	return nil
}

func cloneItems(items []service.ListItem) []service.ListItem {
	if items == nil {
		return nil
	}
	out := make([]service.ListItem, len(items))
	copy(out, items)
	return out
}

func cloneList(l service.List) service.List {
	l.Items = cloneItems(l.Items)
	return l
}

func clonePatch(p service.ListPatch) service.ListPatch {
	if p.Title != nil {
		title := *p.Title
		p.Title = &title
	}
	p.Items = cloneItems(p.Items)
	return p
}
