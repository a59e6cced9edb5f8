package commands

import (
	"errors"
	"testing"
	"time"

	"listshare/internal/engine"
	"listshare/internal/service"
)

func TestParseItemRef_NumericOnly(t *testing.T) {
	ref, n, err := ParseItemRef([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.HasList {
		t.Error("expected HasList to be false")
	}
	if ref.Num != 5 || n != 1 {
		t.Errorf("expected Num 5 consuming 1, got %d consuming %d", ref.Num, n)
	}
}

func TestParseItemRef_CombinedRef(t *testing.T) {
	ref, n, err := ParseItemRef([]string{"b12", "rest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ref.HasList || ref.List != "b" {
		t.Errorf("expected list b, got %+v", ref)
	}
	if ref.Num != 12 || n != 1 {
		t.Errorf("expected Num 12 consuming 1, got %d consuming %d", ref.Num, n)
	}
}

func TestParseItemRef_MultiLetter(t *testing.T) {
	ref, _, err := ParseItemRef([]string{"aa3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.List != "aa" || ref.Num != 3 {
		t.Errorf("expected aa3, got %+v", ref)
	}
}

func TestParseItemRef_SeparatedRef(t *testing.T) {
	ref, n, err := ParseItemRef([]string{"c", "3", "new", "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.List != "c" || ref.Num != 3 || n != 2 {
		t.Errorf("expected c 3 consuming 2, got %+v consuming %d", ref, n)
	}
}

func TestParseItemRef_Errors(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr error
		wantMsg string
	}{
		{nil, ErrItemRefRequired, "item reference required"},
		{[]string{"a"}, ErrItemRefRequired, "item reference required"},
		{[]string{"a", "x"}, ErrInvalidItemRef, "invalid item reference: a"},
		{[]string{"a1b"}, ErrInvalidItemRef, "invalid item reference: a1b"},
		{[]string{"A1"}, ErrInvalidItemRef, "invalid item reference: A1"},
		{[]string{"-1"}, ErrInvalidItemRef, "invalid item reference: -1"},
	}
	for _, tt := range tests {
		_, _, err := ParseItemRef(tt.args)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%v: expected %v, got %v", tt.args, tt.wantErr, err)
			continue
		}
		if err.Error() != tt.wantMsg {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.wantMsg, err.Error())
		}
	}
}

func TestLetterPosition(t *testing.T) {
	tests := map[string]int{"a": 1, "z": 26, "aa": 27, "az": 52, "ba": 53}
	for letters, want := range tests {
		if got := letterPosition(letters); got != want {
			t.Errorf("letterPosition(%q) = %d, want %d", letters, got, want)
		}
	}
}

func testLists() []service.List {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, title string, i int) service.List {
		return service.List{ID: id, Title: title, Slug: service.Slugify(title), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return []service.List{
		mk("id-1", "Groceries", 0),
		mk("id-2", "Road Trip", 1),
		mk("id-3", "b", 2),
		mk("id-4", "Chores", 3),
		mk("id-5", "chores", 4),
	}
}

func TestResolveList(t *testing.T) {
	lists := testLists()
	tests := []struct {
		ref     string
		wantPos int
		wantID  string
	}{
		{"id-4", 4, "id-4"},
		{"2", 2, "id-2"},
		{"a", 1, "id-1"},
		{"b", 2, "id-2"},
		{"c", 3, "id-3"},
		{"road-trip", 2, "id-2"},
		{"ROAD TRIP", 2, "id-2"},
		{" groceries ", 1, "id-1"},
	}
	for _, tt := range tests {
		pos, l, err := ResolveList(lists, tt.ref)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.ref, err)
			continue
		}
		if pos != tt.wantPos || l.ID != tt.wantID {
			t.Errorf("%q: expected %d/%s, got %d/%s", tt.ref, tt.wantPos, tt.wantID, pos, l.ID)
		}
	}
}

func TestResolveList_Errors(t *testing.T) {
	lists := testLists()
	tests := []struct {
		ref     string
		wantErr error
	}{
		{"", engine.ErrListNotFound},
		{"9", engine.ErrListNotFound},
		{"zz", engine.ErrListNotFound},
		{"nothing", engine.ErrListNotFound},
		{"chores", ErrAmbiguousList},
	}
	for _, tt := range tests {
		_, _, err := ResolveList(lists, tt.ref)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%q: expected %v, got %v", tt.ref, tt.wantErr, err)
		}
	}
}
