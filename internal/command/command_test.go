package command

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testRunner() *Runner {
	return New(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestFuncCapturesOutput(t *testing.T) {
	fn := testRunner().Func("echo hello")

	v, err := fn(context.Background())
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	out, ok := v.(string)
	if !ok {
		t.Fatalf("result type = %T, want string", v)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q, want %q", out, "hello")
	}
}

func TestFuncReportsExitStatus(t *testing.T) {
	fn := testRunner().Func("echo oops >&2; exit 3")

	_, err := fn(context.Background())
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "exit status 3") {
		t.Errorf("error = %q, want exit status 3", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("error = %q, want captured stderr", err)
	}
}

func TestTruncateBoundsOutput(t *testing.T) {
	long := strings.Repeat("x", maxErrOutput*2)
	got := truncate([]byte(long))
	if len(got) != maxErrOutput+3 {
		t.Errorf("len(truncate) = %d, want %d", len(got), maxErrOutput+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated output missing ellipsis")
	}
}
