package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	eventbus "github.com/graphload/graphload/internal/eventbus"
	events "github.com/graphload/graphload/internal/events"
	executor "github.com/graphload/graphload/internal/executor"
	gqlerr "github.com/graphload/graphload/internal/gqlerr"
	reqid "github.com/graphload/graphload/internal/reqid"
	schema "github.com/graphload/graphload/internal/schema"
)

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sdl := `type Query { hello: String }`
	sch, err := schema.BuildFromSDL("test.graphql", sdl)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	exec := executor.NewExecutor(rt, sch)
	form := gqlerr.NewFormatter(gqlerr.DebugFlags{IncludeMessage: true})
	return New(exec, form, opts...)
}

func postQuery(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostQuery(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var res Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := res.Data.(map[string]any)
	if data["hello"] != "world" {
		t.Fatalf("unexpected data: %v", res.Data)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestGetQuery(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("GET", "/?query={hello}", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"world"`)) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestBatchedRequests(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `[{"query":"{ hello }"},{"query":"{ hello }"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var res []Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
}

func TestErrorsAreFormatted(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockErrorResolver(gqlerr.NotFound("User", "42")),
	})
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{"query":"{ hello }"}`)
	var res Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", res.Errors)
	}
	if res.Errors[0].Category != gqlerr.CategoryClient {
		t.Fatalf("expected client category, got %s", res.Errors[0].Category)
	}
	if res.Errors[0].Message != "User not found." {
		t.Fatalf("unexpected message: %q", res.Errors[0].Message)
	}
}

func TestParseErrorReturnsOK(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{"query":"{ hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var res Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected syntax error, got %v", res.Errors)
	}
}

func TestMissingQuery(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithMaxBodyBytes(10))

	w := postQuery(t, h, `{"query":"1234567890"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var capturedID string
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if capturedID == "" {
		t.Fatalf("missing request id in context")
	}
	if got := w.Header().Get("X-Request-Id"); got != capturedID {
		t.Fatalf("response header %q does not match context id %q", got, capturedID)
	}
}

func TestHTTPEventsCarryRequestID(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var starts []events.HTTPStart
	var finishes []events.HTTPFinish
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) { finishes = append(finishes, e) })

	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	w := postQuery(t, h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if len(starts) != 1 || len(finishes) != 1 {
		t.Fatalf("got %d starts, %d finishes, want 1 each", len(starts), len(finishes))
	}
	rid := w.Header().Get("X-Request-Id")
	if starts[0].RequestID != rid || finishes[0].RequestID != rid {
		t.Fatalf("event ids %q/%q do not match header %q", starts[0].RequestID, finishes[0].RequestID, rid)
	}
	if starts[0].Method != "POST" || starts[0].Path != "/" {
		t.Fatalf("unexpected start event: %+v", starts[0])
	}
	if finishes[0].Status != http.StatusOK {
		t.Fatalf("unexpected finish status %d", finishes[0].Status)
	}
}

func TestGraphiQLServedOnHTMLGet(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("GraphiQL")) {
		t.Fatalf("expected GraphiQL page")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("DELETE", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
}
