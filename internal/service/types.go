// Package service defines the domain types and the remote store boundary.
package service

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Space is a tenant boundary owning zero or more lists.
// SpaceToken is the space's only credential.
type Space struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	SpaceToken string    `json:"space_token"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSpace is the insert payload for a space.
type NewSpace struct {
	Author     string `json:"author"`
	SpaceToken string `json:"space_token"`
}

// List is a to-do list belonging to exactly one space.
type List struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Items     []ListItem `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	SpaceID   string     `json:"space_id"`
}

// ListItem is a checkable entry owned by its list.
type ListItem struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// NewList is the insert payload for a list.
type NewList struct {
	Title   string
	Slug    string
	Items   []ListItem
	SpaceID string
}

// ListPatch carries the fields of a list update.
// A nil field is left unchanged; a non-nil empty Items clears the list.
type ListPatch struct {
	Title *string
	Items []ListItem
}

// Apply returns l with the patch fields merged over it.
func (p ListPatch) Apply(l List) List {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Items != nil {
		l.Items = p.Items
	}
	return l
}

// AllCompleted reports whether the list has items and every one is completed.
func (l List) AllCompleted() bool {
	if len(l.Items) == 0 {
		return false
	}
	for _, item := range l.Items {
		if !item.Completed {
			return false
		}
	}
	return true
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases title and collapses every whitespace run into one hyphen.
func Slugify(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}

// SortLists returns a copy of lists ordered by ascending CreatedAt.
// Lists created at the same instant are ordered by ID.
func SortLists(lists []List) []List {
	if lists == nil {
		return nil
	}
	sorted := make([]List, len(lists))
	copy(sorted, lists)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}
