// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{})

	Info().Str("k", "v").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("missing message in output: %s", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("missing field in output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(Config{})

	Debug().Msg("invisible")
	Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "invisible") {
		t.Errorf("debug message leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestCtxCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	Ctx(ctx).Info().Msg("traced")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("request id missing from output: %s", buf.String())
	}
}

func TestCtxChainsWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{})

	// Error/Warn/Info have pointer receivers; chaining directly off Ctx
	// must work on a bare context as well.
	Ctx(context.Background()).Error().Str("tenant", "t1").Msg("boom")

	out := buf.String()
	if !strings.Contains(out, `"message":"boom"`) {
		t.Errorf("missing message in output: %s", out)
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("bare context must not carry a request id: %s", out)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty id for bare context, got %q", id)
	}
	ctx := ContextWithRequestID(context.Background(), "abc")
	if id := RequestIDFromContext(ctx); id != "abc" {
		t.Errorf("expected abc, got %q", id)
	}
}
