package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	bodies []string
	err    error
	ctxErr error
}

func (f *fakeDispatcher) DispatchWebhook(ctx context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, string(body))
	f.ctxErr = ctx.Err()
	return f.err
}

func serve(t *testing.T, h *WebhookHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDispatchesInBackground(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{err: errors.New("router failed")}
	h := NewWebhookHandler(nil, d, "", time.Second)
	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(`{"update_id":1}`))
	rec := serve(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	h.Wait()
	if len(d.bodies) != 1 || d.bodies[0] != `{"update_id":1}` {
		t.Fatalf("unexpected dispatched bodies: %v", d.bodies)
	}
	if d.ctxErr != nil {
		t.Fatalf("dispatch context already done: %v", d.ctxErr)
	}
}

func TestWebhookChecksSecret(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	h := NewWebhookHandler(nil, d, "s3cret", time.Second)

	req := httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(`{}`))
	req.Header.Set(SecretHeader, "wrong")
	if rec := serve(t, h, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/bot/webhook", strings.NewReader(`{}`))
	req.Header.Set(SecretHeader, "s3cret")
	if rec := serve(t, h, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	h.Wait()
	if len(d.bodies) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(d.bodies))
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(nil, &fakeDispatcher{}, "", 0)
	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
