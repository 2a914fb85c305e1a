package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField names an Item field that List can order by
type SortField string

const (
	SortByID        SortField = "id"
	SortByText      SortField = "text"
	SortByIsDone    SortField = "isDone"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

// SortMode is a (field, direction) pair.
// Order < 0 is ascending, anything else is descending.
type SortMode struct {
	Field SortField
	Order int
}

// Ascending reports whether the mode sorts A→Z
func (m SortMode) Ascending() bool {
	return m.Order < 0
}

func (m SortMode) String() string {
	return fmt.Sprintf("%s:%d", m.Field, m.Order)
}

// defaultListSort is used by List callers that don't care about order
var defaultListSort = SortMode{Field: SortByCreatedAt, Order: -1}

// parseSortField validates a field name from a request
func parseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByID, SortByText, SortByIsDone, SortByCreatedAt, SortByUpdatedAt:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// parseSortMode builds a SortMode from request values
// An empty field falls back to def; an empty order means ascending.
// Order is normalized to -1 or 1.
func parseSortMode(field, order string, def SortMode) (SortMode, error) {
	if field == "" {
		return def, nil
	}

	f, err := parseSortField(field)
	if err != nil {
		return SortMode{}, err
	}

	o := -1
	if order != "" {
		o, err = strconv.Atoi(order)
		if err != nil {
			return SortMode{}, fmt.Errorf("invalid sort order %q", order)
		}
	}

	// Only the sign matters; normalize so modes compare equal
	if o < 0 {
		o = -1
	} else {
		o = 1
	}
	return SortMode{Field: f, Order: o}, nil
}

// sortKey returns the field value coerced to a string.
// Booleans and timestamps are compared as text, not by their natural order:
// "false" < "true", and timestamps in their stored RFC 3339 form.
func (i Item) sortKey(f SortField) string {
	switch f {
	case SortByID:
		return i.ID
	case SortByText:
		return i.Text
	case SortByIsDone:
		return strconv.FormatBool(i.IsDone)
	case SortByCreatedAt:
		return i.CreatedAt.Format(time.RFC3339Nano)
	case SortByUpdatedAt:
		return i.UpdatedAt.Format(time.RFC3339Nano)
	}
	return ""
}

// newCollator returns a collator for the given BCP 47 tag ("" = root locale)
func newCollator(locale string) (*collate.Collator, error) {
	tag := language.Und
	if locale != "" {
		var err error
		tag, err = language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid sort locale %q: %w", locale, err)
		}
	}
	return collate.New(tag), nil
}

// sortItems orders items in place by the stringified field.
// Ties are broken on ID, so the order is total and flipping the direction
// reverses the slice exactly.
// A Collator is not safe for concurrent use; callers serialize access.
func sortItems(items []Item, mode SortMode, coll *collate.Collator) {
	slices.SortFunc(items, func(a, b Item) int {
		c := coll.CompareString(a.sortKey(mode.Field), b.sortKey(mode.Field))
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if !mode.Ascending() {
			c = -c
		}
		return c
	})
}
