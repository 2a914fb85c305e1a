package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultStorageKey is the storage key the todo map lives under
const DefaultStorageKey = "todo_items"

var (
	// ErrEmptyText is returned when a todo would end up with no text
	ErrEmptyText = errors.New("todo text is required")
	// ErrNotFound is returned when no todo has the requested ID
	ErrNotFound = errors.New("todo not found")
	// ErrStorageWrite wraps any failure to persist the todo map
	ErrStorageWrite = errors.New("storage write failed")
)

// Item is a single todo entry
// The JSON field names are the persisted layout, so don't rename them
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Items is the whole persisted state: ID -> Item
type Items map[string]Item

// ItemPatch holds the fields Update may change; nil means "leave as is".
// ID and CreatedAt are deliberately absent.
type ItemPatch struct {
	Text   *string `json:"text,omitempty"`
	IsDone *bool   `json:"isDone,omitempty"`
}

// TodoStore gives CRUD and query access to the todo map kept in a Storage
// medium as a single JSON blob.
//
// Every exported method loads the blob, works on the decoded map and writes
// it back while holding mu, so concurrent requests in one process can't
// interleave. Another process writing the same key can still race.
type TodoStore struct {
	mu      sync.Mutex
	storage Storage
	key     string
	coll    *collate.Collator
	now     func() time.Time
	newID   func() string
}

// StoreOption configures a TodoStore
type StoreOption func(*TodoStore)

// WithCollator sets the collator used to compare sort keys
func WithCollator(c *collate.Collator) StoreOption {
	return func(s *TodoStore) { s.coll = c }
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *TodoStore) { s.now = now }
}

// NewTodoStore returns a store that keeps its state under key in storage.
// An empty key means DefaultStorageKey.
func NewTodoStore(storage Storage, key string, opts ...StoreOption) *TodoStore {
	if key == "" {
		key = DefaultStorageKey
	}

	s := &TodoStore{
		storage: storage,
		key:     key,
		coll:    collate.New(language.Und),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key the store persists under
func (s *TodoStore) Key() string {
	return s.key
}

// Ping checks that the storage medium can be read
func (s *TodoStore) Ping() error {
	_, err := s.storage.GetItem(s.key)
	if errors.Is(err, ErrNoItem) {
		return nil
	}
	return err
}

// Load returns the current state. It never fails: a missing, unreadable or
// corrupt blob is treated as empty and replaced with "{}".
func (s *TodoStore) Load() Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the persisted state with items
func (s *TodoStore) Save(items Items) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(items)
}

// List returns every item ordered by mode
func (s *TodoStore) List(mode SortMode) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	list := make([]Item, 0, len(items))
	for _, item := range items {
		list = append(list, item)
	}
	sortItems(list, mode, s.coll)
	return list
}

// Create adds a new, not-done item with the given text
func (s *TodoStore) Create(text string) (Item, error) {
	text, err := cleanText(text)
	if err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()

	id := s.newID()
	for {
		if _, taken := items[id]; !taken {
			break
		}
		id = s.newID()
	}

	now := s.now()
	item := Item{
		ID:        id,
		Text:      text,
		IsDone:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	items[id] = item

	if err := s.save(items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// FindOne returns the item with the given ID
func (s *TodoStore) FindOne(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.load()[id]
	return item, ok
}

// Update merges patch over an existing item and bumps UpdatedAt
func (s *TodoStore) Update(id string, patch ItemPatch) (Item, error) {
	if patch.Text != nil {
		text, err := cleanText(*patch.Text)
		if err != nil {
			return Item{}, err
		}
		patch.Text = &text
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	item, ok := items[id]
	if !ok {
		return Item{}, ErrNotFound
	}

	if patch.Text != nil {
		item.Text = *patch.Text
	}
	if patch.IsDone != nil {
		item.IsDone = *patch.IsDone
	}
	item.UpdatedAt = s.after(item.UpdatedAt)
	items[id] = item

	if err := s.save(items); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes the item with the given ID.
// Deleting an ID that isn't there succeeds without writing anything.
func (s *TodoStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	if _, ok := items[id]; !ok {
		return nil
	}
	delete(items, id)
	return s.save(items)
}

// Reset replaces the whole state with an empty map
func (s *TodoStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(Items{})
}

// ClearCompleted removes every done item with a single write
func (s *TodoStore) ClearCompleted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	removed := 0
	for id, item := range items {
		if item.IsDone {
			delete(items, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	return s.save(items)
}

// cleanText replaces invalid UTF-8 with U+FFFD, which is what encoding/json
// would write anyway. Storing the replaced form keeps the returned Item and
// the persisted blob in agreement. Whitespace counts as text.
func cleanText(text string) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}

// after returns the current time, nudged forward if the clock hasn't moved
// past prev, so UpdatedAt is strictly increasing
func (s *TodoStore) after(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func (s *TodoStore) load() Items {
	raw, err := s.storage.GetItem(s.key)
	if err != nil {
		if !errors.Is(err, ErrNoItem) {
			slog.Warn("failed to read todo state, resetting", "key", s.key, "error", err)
			storageResetsTotal.Inc()
		}
		s.resetBlob()
		return Items{}
	}

	// Decode through pointers so null entries (tombstones written by older
	// versions) can be told apart from real items
	var stored map[string]*Item
	err = json.Unmarshal([]byte(raw), &stored)
	if err == nil && stored == nil {
		err = errors.New("state is null")
	}
	if err != nil {
		slog.Warn("corrupt todo state, resetting", "key", s.key, "error", err)
		storageResetsTotal.Inc()
		s.resetBlob()
		return Items{}
	}

	items := make(Items, len(stored))
	for id, item := range stored {
		if item == nil {
			continue
		}
		if item.ID == "" {
			item.ID = id
		}
		items[id] = *item
	}

	todoItemsTotal.Set(float64(len(items)))
	return items
}

// save writes items, putting the previous blob back if the write fails
func (s *TodoStore) save(items Items) error {
	if items == nil {
		items = Items{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode state: %w", ErrStorageWrite, err)
	}

	previous, prevErr := s.storage.GetItem(s.key)

	if err := s.storage.SetItem(s.key, string(data)); err != nil {
		storageWriteFailuresTotal.Inc()
		if prevErr == nil {
			if rerr := s.storage.SetItem(s.key, previous); rerr != nil {
				slog.Error("failed to restore todo state", "key", s.key, "error", rerr)
			}
		}
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	todoItemsTotal.Set(float64(len(items)))
	return nil
}

func (s *TodoStore) resetBlob() {
	if err := s.storage.SetItem(s.key, "{}"); err != nil {
		slog.Error("failed to reset todo state", "key", s.key, "error", err)
	}
}
