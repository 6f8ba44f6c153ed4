package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/lessico/pkg/dict"
)

func TestChain_Order(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		calls = append(calls, "endpoint")
		return "ok", nil
	})
	resp, err := ep(context.Background(), nil)
	if err != nil || resp != "ok" {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
	if got := strings.Join(calls, ","); got != "a,b,c,endpoint" {
		t.Errorf("order = %s", got)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	failing := Logging(logger, "add_term")(func(context.Context, any) (any, error) {
		return nil, dict.ValidationErr("English_Translation", "", "term is empty")
	})

	ctx := WithRequestID(WithTransport(context.Background(), "mcp"), "req-1")
	if _, err := failing(ctx, nil); !errors.Is(err, dict.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "endpoint=add_term", "transport=mcp", "request_id=req-1", "kind=ValidationError"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestGetTransport_Default(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Errorf("GetTransport = %q, want http", got)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{dict.ValidationErr("Notes", "", "term is empty"), `ValidationError: column "Notes": term is empty`},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := ErrorText(tt.err); got != tt.want {
			t.Errorf("ErrorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ep := Recover(logger)(func(context.Context, any) (any, error) {
		panic("boom")
	})
	resp, err := ep(context.Background(), nil)
	if resp != nil || err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("log = %q", buf.String())
	}
}
