package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// Health Endpoint
// =============================================================================

// healthHandler reports whether the server can read its storage medium
func healthHandler(store *TodoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := store.Ping(); err != nil {
			slog.Error("health check failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// =============================================================================
// Todos API
// =============================================================================

// todosAPI serves /api/todos on top of a TodoStore
type todosAPI struct {
	store *TodoStore
}

// ServeHTTP routes /api/todos requests based on method and path
//
//	GET    /api/todos                 list (?sort=<field>&order=<n>)
//	POST   /api/todos                 create
//	DELETE /api/todos                 reset
//	POST   /api/todos/clear-completed clear completed
//	GET    /api/todos/:id             fetch one
//	PATCH  /api/todos/:id             update
//	DELETE /api/todos/:id             delete
func (a *todosAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/todos")
	path = strings.TrimPrefix(path, "/")

	w.Header().Set("Content-Type", "application/json")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			a.list(w, r)
		case http.MethodPost:
			a.create(w, r)
		case http.MethodDelete:
			a.reset(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	case path == "clear-completed":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a.clearCompleted(w, r)

	case strings.Contains(path, "/"):
		writeError(w, http.StatusNotFound, "not found")

	default:
		switch r.Method {
		case http.MethodGet:
			a.get(w, r, path)
		case http.MethodPatch:
			a.update(w, r, path)
		case http.MethodDelete:
			a.delete(w, r, path)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (a *todosAPI) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := parseSortMode(q.Get("sort"), q.Get("order"), defaultListSort)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	json.NewEncoder(w).Encode(a.store.List(mode))
}

func (a *todosAPI) create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	item, err := a.store.Create(input.Text)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (a *todosAPI) get(w http.ResponseWriter, r *http.Request, id string) {
	item, ok := a.store.FindOne(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	json.NewEncoder(w).Encode(item)
}

func (a *todosAPI) update(w http.ResponseWriter, r *http.Request, id string) {
	var patch ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	item, err := a.store.Update(id, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	json.NewEncoder(w).Encode(item)
}

func (a *todosAPI) delete(w http.ResponseWriter, r *http.Request, id string) {
	// The store treats unknown IDs as a no-op; the API reports them as 404
	if _, ok := a.store.FindOne(id); !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := a.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *todosAPI) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Reset(); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *todosAPI) clearCompleted(w http.ResponseWriter, r *http.Request) {
	if err := a.store.ClearCompleted(); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps store errors onto HTTP statuses
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrStorageWrite):
		slog.Warn("todo change not saved", "error", err)
		writeError(w, http.StatusInsufficientStorage, "storage write failed")
	default:
		slog.Error("unexpected store error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
