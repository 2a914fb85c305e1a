package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestRouter builds the full router over a fresh in-memory BadgerDB
func newTestRouter(t *testing.T) (http.Handler, *TodoStore) {
	t.Helper()
	store := newTestStore(t, newBadgerTestStorage(t))
	return newRouter(store, newTodoView(store)), store
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createViaAPI(t *testing.T, h http.Handler, text string) Item {
	t.Helper()
	rr := doRequest(h, "POST", "/api/todos", `{"text":"`+text+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var item Item
	if err := json.Unmarshal(rr.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to parse created item: %v", err)
	}
	return item
}

// =============================================================================
// Health Endpoint Tests
// =============================================================================

func TestHealthHandler_ReturnsOK(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doRequest(h, "GET", "/health", "")

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response JSON: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
	if _, ok := result["timestamp"]; !ok {
		t.Error("expected 'timestamp' field in response")
	}
}

func TestHealthHandler_StorageUnreadable(t *testing.T) {
	storage := &flakyStorage{Storage: newBadgerTestStorage(t), getErr: errors.New("medium unavailable")}
	store := newTestStore(t, storage)

	rr := httptest.NewRecorder()
	healthHandler(store)(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"degraded"`) {
		t.Errorf("expected degraded status, got %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	createViaAPI(t, h, "counted")

	rr := doRequest(h, "GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	for _, name := range []string{"todoapp_items_total", "todoapp_http_requests_total", "todoapp_info"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Errorf("expected metric %s in output", name)
		}
	}
}

// =============================================================================
// Todos API Tests
// =============================================================================

func TestTodos_CreateAndList(t *testing.T) {
	h, _ := newTestRouter(t)

	created := createViaAPI(t, h, "Test Item")
	if created.Text != "Test Item" {
		t.Errorf("expected text 'Test Item', got '%s'", created.Text)
	}
	if created.IsDone {
		t.Error("expected new item to be not done")
	}
	if created.ID == "" {
		t.Error("expected an id")
	}

	rr := doRequest(h, "GET", "/api/todos", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", rr.Code)
	}

	var items []Item
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("failed to parse items list: %v", err)
	}
	if len(items) != 1 || items[0].ID != created.ID {
		t.Errorf("expected exactly the created item, got %+v", items)
	}
}

func TestTodos_ListEmptyIsArray(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doRequest(h, "GET", "/api/todos", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %s", rr.Body.String())
	}
}

func TestTodos_ListSorted(t *testing.T) {
	h, _ := newTestRouter(t)
	createViaAPI(t, h, "b")
	createViaAPI(t, h, "a")
	createViaAPI(t, h, "c")

	rr := doRequest(h, "GET", "/api/todos?sort=text&order=1", "")
	var items []Item
	json.Unmarshal(rr.Body.Bytes(), &items)

	var got []string
	for _, it := range items {
		got = append(got, it.Text)
	}
	if strings.Join(got, ",") != "c,b,a" {
		t.Errorf("expected c,b,a, got %v", got)
	}
}

func TestTodos_ListBadSort(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doRequest(h, "GET", "/api/todos?sort=priority", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestTodos_GetByID(t *testing.T) {
	h, _ := newTestRouter(t)
	created := createViaAPI(t, h, "Get Test")

	rr := doRequest(h, "GET", "/api/todos/"+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var fetched Item
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.Text != "Get Test" {
		t.Errorf("expected text 'Get Test', got '%s'", fetched.Text)
	}
}

func TestTodos_Patch(t *testing.T) {
	h, _ := newTestRouter(t)
	created := createViaAPI(t, h, "Before Update")

	rr := doRequest(h, "PATCH", "/api/todos/"+created.ID, `{"isDone":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var updated Item
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if !updated.IsDone {
		t.Error("expected item to be done")
	}
	if updated.Text != "Before Update" {
		t.Errorf("expected text to be unchanged, got '%s'", updated.Text)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected createdAt unchanged, got %v want %v", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("expected updatedAt to move forward, got %v", updated.UpdatedAt)
	}

	rr = doRequest(h, "PATCH", "/api/todos/"+created.ID, `{"text":"After Update"}`)
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Text != "After Update" || !updated.IsDone {
		t.Errorf("expected text change only, got %+v", updated)
	}
}

func TestTodos_PatchErrors(t *testing.T) {
	h, _ := newTestRouter(t)
	created := createViaAPI(t, h, "x")

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown id", "/api/todos/missing", `{"isDone":true}`, http.StatusNotFound},
		{"invalid json", "/api/todos/" + created.ID, `nope`, http.StatusBadRequest},
		{"empty text", "/api/todos/" + created.ID, `{"text":""}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(h, "PATCH", tt.path, tt.body)
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTodos_Delete(t *testing.T) {
	h, _ := newTestRouter(t)
	created := createViaAPI(t, h, "To Delete")

	rr := doRequest(h, "DELETE", "/api/todos/"+created.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(h, "GET", "/api/todos/"+created.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rr.Code)
	}

	rr = doRequest(h, "DELETE", "/api/todos/"+created.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestTodos_NotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, path := range []string{"/api/todos/999999", "/api/todos/a/b"} {
		rr := doRequest(h, "GET", path, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, rr.Code)
		}
	}
}

func TestTodos_InvalidJSON(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doRequest(h, "POST", "/api/todos", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestTodos_MissingText(t *testing.T) {
	h, store := newTestRouter(t)

	rr := doRequest(h, "POST", "/api/todos", `{"text":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if n := len(store.Load()); n != 0 {
		t.Errorf("expected no items, got %d", n)
	}
}

func TestTodos_ClearCompleted(t *testing.T) {
	h, store := newTestRouter(t)
	keep := createViaAPI(t, h, "keep")
	drop := createViaAPI(t, h, "drop")
	doRequest(h, "PATCH", "/api/todos/"+drop.ID, `{"isDone":true}`)

	rr := doRequest(h, "POST", "/api/todos/clear-completed", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	items := store.Load()
	if len(items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(items))
	}
	if _, ok := items[keep.ID]; !ok {
		t.Error("expected the open item to remain")
	}

	rr = doRequest(h, "GET", "/api/todos/clear-completed", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestTodos_Reset(t *testing.T) {
	h, store := newTestRouter(t)
	createViaAPI(t, h, "one")
	createViaAPI(t, h, "two")

	rr := doRequest(h, "DELETE", "/api/todos", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if n := len(store.Load()); n != 0 {
		t.Errorf("expected no items after reset, got %d", n)
	}
}

func TestTodos_MethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doRequest(h, "PUT", "/api/todos", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}

	rr = doRequest(h, "POST", "/api/todos/some-id", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestTodos_StorageFull(t *testing.T) {
	quota := newQuotaStorage(newBadgerTestStorage(t), len(testKey)+2) // room for "{}" only
	store := newTestStore(t, quota)
	h := newRouter(store, newTodoView(store))

	rr := doRequest(h, "POST", "/api/todos", `{"text":"too big"}`)
	if rr.Code != http.StatusInsufficientStorage {
		t.Errorf("expected status 507, got %d: %s", rr.Code, rr.Body.String())
	}
	if n := len(store.Load()); n != 0 {
		t.Errorf("expected no items, got %d", n)
	}
}
