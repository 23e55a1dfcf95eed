package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeAuth struct {
	token string
	err   error
	codes []string
}

func (f *fakeAuth) AuthURL(state string) string {
	return "https://auth.example/authorize?state=" + state
}

func (f *fakeAuth) Exchange(ctx context.Context, code string) (string, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

func receiveResult(t *testing.T, handler *OAuthHandler) OAuthResult {
	t.Helper()
	select {
	case result := <-handler.Result():
		return result
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
		return OAuthResult{}
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("SuccessfulCallback", func(t *testing.T) {
		auth := &fakeAuth{token: "bearer-xyz"}
		handler := NewOAuthHandler(auth, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}

		result := receiveResult(t, handler)
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token != "bearer-xyz" {
			t.Errorf("expected exchanged token, got %q", result.Token)
		}
		if len(auth.codes) != 1 || auth.codes[0] != "auth-code" {
			t.Errorf("expected exchange with auth-code, got %v", auth.codes)
		}
	})

	t.Run("RejectsStateMismatch", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuth{token: "tok"}, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=auth-code", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if receiveResult(t, handler).Error() == nil {
			t.Error("expected error result for forged state")
		}
	})

	t.Run("RejectsMissingCode", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuth{}, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if receiveResult(t, handler).Error() == nil {
			t.Error("expected error result for denied authorization")
		}
	})

	t.Run("ExchangeFailurePropagates", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuth{err: errors.New("exchange failed")}, "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if receiveResult(t, handler).Error() == nil {
			t.Error("expected error result for failed exchange")
		}
	})

	t.Run("RepeatCallbackRejected", func(t *testing.T) {
		auth := &fakeAuth{token: "tok"}
		handler := NewOAuthHandler(auth, "state-1")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=first", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=replayed", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replayed callback, got %d", second.Code)
		}
		if len(auth.codes) != 1 {
			t.Errorf("replayed callback must not reach the exchange, got %v", auth.codes)
		}
	})

	t.Run("Routes", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeAuth{}, "state-1")
		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes %v", routes)
		}
	})
}
