package engine

import (
	"context"

	"listshare/internal/service"
)

// These helpers read the cached list, derive the new item sequence, and send
// the whole sequence through SaveList.

func (e *Engine) loadList(ctx context.Context, spaceID, listID string) (service.List, error) {
	if spaceID == "" {
		return service.List{}, ErrMissingSpaceID
	}
	l, err := e.List(ctx, spaceID, listID)
	if err != nil {
		return service.List{}, err
	}
	if l == nil {
		return service.List{}, ErrListNotFound
	}
	return *l, nil
}

func hasItem(items []service.ListItem, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// CreateList creates a list titled title with no items.
func (e *Engine) CreateList(ctx context.Context, spaceID, title string) (service.List, error) {
	return e.SaveList(ctx, spaceID, "", service.ListPatch{Title: &title, Items: []service.ListItem{}})
}

// RenameList changes a list's title. The slug is left as created.
func (e *Engine) RenameList(ctx context.Context, spaceID, listID, title string) (service.List, error) {
	if _, err := e.loadList(ctx, spaceID, listID); err != nil {
		return service.List{}, err
	}
	return e.SaveList(ctx, spaceID, listID, service.ListPatch{Title: &title})
}

// AddItem appends a new incomplete item to a list.
func (e *Engine) AddItem(ctx context.Context, spaceID, listID, content string) (service.ListItem, error) {
	l, err := e.loadList(ctx, spaceID, listID)
	if err != nil {
		return service.ListItem{}, err
	}
	item := service.NewListItem(content)
	_, err = e.SaveList(ctx, spaceID, listID, service.ListPatch{Items: service.AppendItem(l.Items, item)})
	if err != nil {
		return service.ListItem{}, err
	}
	return item, nil
}

// SetItemCompleted checks or unchecks an item.
func (e *Engine) SetItemCompleted(ctx context.Context, spaceID, listID, itemID string, completed bool) error {
	l, err := e.loadList(ctx, spaceID, listID)
	if err != nil {
		return err
	}
	if !hasItem(l.Items, itemID) {
		return ErrItemNotFound
	}
	items := service.MarkItemIncomplete(itemID, l.Items)
	if completed {
		items = service.MarkItemCompleted(itemID, l.Items)
	}
	_, err = e.SaveList(ctx, spaceID, listID, service.ListPatch{Items: items})
	return err
}

// EditItem replaces an item's content.
func (e *Engine) EditItem(ctx context.Context, spaceID, listID, itemID, content string) error {
	l, err := e.loadList(ctx, spaceID, listID)
	if err != nil {
		return err
	}
	if !hasItem(l.Items, itemID) {
		return ErrItemNotFound
	}
	_, err = e.SaveList(ctx, spaceID, listID, service.ListPatch{Items: service.UpdateItemContent(itemID, l.Items, content)})
	return err
}

// RemoveItem deletes an item from a list.
func (e *Engine) RemoveItem(ctx context.Context, spaceID, listID, itemID string) error {
	l, err := e.loadList(ctx, spaceID, listID)
	if err != nil {
		return err
	}
	if !hasItem(l.Items, itemID) {
		return ErrItemNotFound
	}
	_, err = e.SaveList(ctx, spaceID, listID, service.ListPatch{Items: service.DeleteItem(itemID, l.Items)})
	return err
}
