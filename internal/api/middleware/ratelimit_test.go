package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakeScripter answers every script call with a fixed result.
type fakeScripter struct {
	val  []interface{}
	err  error
	keys []string
}

func (f *fakeScripter) result(ctx context.Context, keys []string) *redis.Cmd {
	f.keys = keys
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.val)
	}
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx, keys)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx, keys)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx, keys)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx, keys)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

var limitCfg = RateLimitConfig{Enabled: true, Capacity: 5, RefillInterval: time.Second}

func runLimited(t *testing.T, s redis.Scripter, cfg RateLimitConfig) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/auth/login")

	called := false
	handler := RateLimit(cfg, s, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestRateLimit_Allows(t *testing.T) {
	s := &fakeScripter{val: []interface{}{int64(1), int64(4), int64(0)}}

	rec, called := runLimited(t, s, limitCfg)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d called=%v", rec.Code, called)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("unexpected remaining header %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if len(s.keys) != 1 || s.keys[0] != "rl:ip:10.0.0.1:route:POST /auth/login" {
		t.Fatalf("unexpected key %v", s.keys)
	}
}

func TestRateLimit_Blocks(t *testing.T) {
	s := &fakeScripter{val: []interface{}{int64(0), int64(0), int64(1500)}}

	rec, called := runLimited(t, s, limitCfg)
	if called {
		t.Fatal("should not reach next")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	s := &fakeScripter{err: errors.New("connection refused")}

	rec, called := runLimited(t, s, limitCfg)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through on redis error, got %d", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	s := &fakeScripter{val: []interface{}{int64(0), int64(0), int64(0)}}

	_, called := runLimited(t, s, RateLimitConfig{Enabled: false})
	if !called {
		t.Fatal("expected disabled limiter to pass through")
	}
	if s.keys != nil {
		t.Fatal("expected no script call")
	}
}
