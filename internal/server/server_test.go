package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hansdj/internal/shared"
	"golang.org/x/oauth2"
)

type fakeExchanger struct {
	codes []string
	err   error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh"}, nil
}

func callback(t *testing.T, h http.Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges code", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "xyz", "")

		rec := callback(t, h, "state=xyz&code=abc")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Spotify connected") {
			t.Error("expected success page")
		}

		result := <-h.Result()
		if result.Error() != nil || result.Token.AccessToken != "access-abc" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "xyz", "")

		rec := callback(t, h, "state=evil&code=abc")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(ex.codes) != 0 {
			t.Error("expected no exchange on state mismatch")
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("provider error", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "")

		rec := callback(t, h, "state=xyz&error=access_denied&error_description=nope")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{err: shared.ErrAuthFailed}, "xyz", "")

		rec := callback(t, h, "state=xyz&code=abc")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "xyz", "")

		callback(t, h, "state=xyz&code=one")
		rec := callback(t, h, "state=xyz&code=two")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(ex.codes) != 1 {
			t.Errorf("expected one exchange, got %v", ex.codes)
		}
	})

	t.Run("routes", func(t *testing.T) {
		if got := NewOAuthHandler(nil, "", "/auth/done").Routes(); got[0] != "/auth/done" {
			t.Errorf("expected custom path, got %v", got)
		}
		if got := NewOAuthHandler(nil, "", "").Routes(); got[0] != DefaultCallbackPath {
			t.Errorf("expected default path, got %v", got)
		}
	})
}

func TestCallbackPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"http://localhost:8080/callback", "/callback"},
		{"http://127.0.0.1:9000/spotify/cb", "/spotify/cb"},
		{"http://localhost:8080", DefaultCallbackPath},
		{"http://localhost:8080/", DefaultCallbackPath},
		{"::not a url", DefaultCallbackPath},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := CallbackPath(tt.uri); got != tt.want {
				t.Errorf("CallbackPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestBasicRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })

	t.Run("method routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("get", "/health", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Errorf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", ok)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("expected first then second, got %v", order)
		}
	})

	t.Run("logging middleware", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		r := NewBasicRouter()
		r.Use(Logging(logger))
		r.Handle(http.MethodGet, "/missing", http.NotFoundHandler())
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		if !strings.Contains(buf.String(), "status=404") {
			t.Errorf("expected status in log, got %q", buf.String())
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("delivers token", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "/callback")
		srv := NewCallbackServer("127.0.0.1:0", h, nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		go func() {
			resp, err := http.Get(fmt.Sprintf("http://%s/callback?state=xyz&code=abc", srv.Addr()))
			if err == nil {
				resp.Body.Close()
			}
		}()

		token, err := srv.Wait(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("expected token, got %v", err)
		}
		if token.AccessToken != "access-abc" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("times out", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(&fakeExchanger{}, "xyz", ""), nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		if _, err := srv.Wait(context.Background(), 10*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("callback error", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "")
		srv := NewCallbackServer("127.0.0.1:0", h, nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		h.Send(OAuthResult{err: fmt.Errorf("invalid state parameter")})

		if _, err := srv.Wait(context.Background(), time.Second); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("address in use", func(t *testing.T) {
		first := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(nil, "", ""), nil)
		if err := first.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer first.Wait(context.Background(), time.Millisecond)

		second := NewCallbackServer(first.Addr(), NewOAuthHandler(nil, "", ""), nil)
		if err := second.Start(); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
