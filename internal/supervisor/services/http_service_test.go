// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vidfeed/vidfeed/internal/cache"
)

// mockServer blocks in ListenAndServe until Shutdown is called.
type mockServer struct {
	started  atomic.Bool
	shutdown atomic.Bool
	closeCh  chan struct{}
	startErr error
}

func newMockServer() *mockServer {
	return &mockServer{closeCh: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	<-m.closeCh
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdown.Store(true)
	close(m.closeCh)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give the listener goroutine a moment to start.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if !srv.shutdown.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServiceStartFailure(t *testing.T) {
	srv := newMockServer()
	srv.startErr = errors.New("address in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(errors.Unwrap(err), srv.startErr) {
		t.Errorf("expected wrapped start error, got %v", err)
	}
}

func TestJanitorSweepsExpiredEntries(t *testing.T) {
	c := cache.New(5 * time.Millisecond)
	c.Set("k", "v")

	svc := NewJanitorService([]*cache.Cache{c}, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = svc.Serve(ctx)

	if c.Size() != 0 {
		t.Errorf("expected janitor to remove expired entries, size=%d", c.Size())
	}
}
