package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"listshare/internal/engine"
	"listshare/internal/output"
	"listshare/internal/service"
)

var (
	// ErrItemRefRequired indicates no item reference was provided.
	ErrItemRefRequired = errors.New("item reference required")

	// ErrInvalidItemRef indicates a malformed item reference.
	ErrInvalidItemRef = errors.New("invalid item reference")

	// ErrAmbiguousList indicates a list reference matching several lists.
	ErrAmbiguousList = errors.New("ambiguous list name")
)

// ItemRef represents a parsed item reference.
type ItemRef struct {
	List    string // list letters, empty if none
	Num     int    // 1-based item number
	HasList bool   // true if list letters were provided
}

// ParseItemRef parses an item reference from the start of args and reports
// how many args it consumed.
//
// Parsing rules:
// 1. If first arg is all digits → item number, list from --list
// 2. If first arg is <letters><digits> (e.g., a1, b12) → combined reference
// 3. If first arg is letters and second arg is all digits → separated reference (a 1)
// 4. If first arg is letters with no second arg → error: item reference required
// 5. Otherwise → error: invalid item reference: <ref>
func ParseItemRef(args []string) (ItemRef, int, error) {
	if len(args) == 0 {
		return ItemRef{}, 0, ErrItemRefRequired
	}
	first := args[0]

	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, first)
		}
		return ItemRef{Num: num}, 1, nil
	}

	letters := leadingLetters(first)
	if letters == "" {
		return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, first)
	}

	if rest := first[len(letters):]; rest != "" {
		if !isAllDigits(rest) {
			return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, first)
		}
		num, err := strconv.Atoi(rest)
		if err != nil {
			return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, first)
		}
		return ItemRef{List: letters, Num: num, HasList: true}, 1, nil
	}

	if len(args) < 2 {
		return ItemRef{}, 0, ErrItemRefRequired
	}
	if !isAllDigits(args[1]) {
		return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, first)
	}
	num, err := strconv.Atoi(args[1])
	if err != nil {
		return ItemRef{}, 0, fmt.Errorf("%w: %s", ErrInvalidItemRef, args[1])
	}
	return ItemRef{List: letters, Num: num, HasList: true}, 2, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// leadingLetters returns the run of a-z at the start of s.
func leadingLetters(s string) string {
	i := 0
	for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
		i++
	}
	return s[:i]
}

// letterPosition is the inverse of output.ListLetter.
func letterPosition(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		n = n*26 + int(letters[i]-'a') + 1
		if n > 1<<20 {
			return 0
		}
	}
	return n
}

// ResolveList finds a list in lists (creation order) by id, 1-based position,
// letter, slug, or case-insensitive title, in that order. It returns the
// list's 1-based position.
func ResolveList(lists []service.List, ref string) (int, service.List, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, service.List{}, fmt.Errorf("%w: list reference required", engine.ErrListNotFound)
	}

	for i, l := range lists {
		if l.ID == ref {
			return i + 1, l, nil
		}
	}

	if isAllDigits(ref) {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(lists) {
			return n, lists[n-1], nil
		}
	}

	if leadingLetters(ref) == ref {
		if n := letterPosition(ref); n >= 1 && n <= len(lists) && output.ListLetter(n) == ref {
			return n, lists[n-1], nil
		}
	}

	lower := strings.ToLower(ref)
	var matches []int
	for i, l := range lists {
		if l.Slug == lower || strings.ToLower(strings.TrimSpace(l.Title)) == lower {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return 0, service.List{}, fmt.Errorf("%w: %s", engine.ErrListNotFound, ref)
	case 1:
		return matches[0] + 1, lists[matches[0]], nil
	default:
		return 0, service.List{}, fmt.Errorf("%w: %s", ErrAmbiguousList, ref)
	}
}

// findList loads the lists of the active space and resolves ref among them.
func findList(ctx context.Context, sess *Session, ref string) (int, service.List, error) {
	lists, err := sess.Engine.AllLists(ctx, sess.Space.ID)
	if err != nil {
		return 0, service.List{}, err
	}
	return ResolveList(lists, ref)
}

// itemTarget is a resolved item reference.
type itemTarget struct {
	pos  int
	list service.List
	item service.ListItem
}

// findItem resolves an item reference from args, using listFlag when the
// reference carries no list letters. It returns the args left after the
// reference.
func findItem(ctx context.Context, sess *Session, listFlag string, args []string) (itemTarget, []string, error) {
	ref, consumed, err := ParseItemRef(args)
	if err != nil {
		return itemTarget{}, nil, err
	}
	if listFlag != "" && ref.HasList {
		return itemTarget{}, nil, fmt.Errorf("%w: cannot use both --list and list letter", ErrInvalidItemRef)
	}
	listRef := ref.List
	if !ref.HasList {
		if listFlag == "" {
			return itemTarget{}, nil, fmt.Errorf("%w: %s (use a%s or --list)", ErrInvalidItemRef, args[0], args[0])
		}
		listRef = listFlag
	}

	pos, list, err := findList(ctx, sess, listRef)
	if err != nil {
		return itemTarget{}, nil, err
	}
	if ref.Num < 1 || ref.Num > len(list.Items) {
		return itemTarget{}, nil, fmt.Errorf("%w: %s%d", engine.ErrItemNotFound, output.ListLetter(pos), ref.Num)
	}
	return itemTarget{pos: pos, list: list, item: list.Items[ref.Num-1]}, args[consumed:], nil
}
