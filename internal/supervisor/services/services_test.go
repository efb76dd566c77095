// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/staynav/internal/aggregate"
	"github.com/tomtom215/staynav/internal/trust"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*SyncLoopService)(nil)
	_ suture.Service = (*CheckpointGCService)(nil)
	_ suture.Service = (*RunnerService)(nil)
)

// mockHTTPServer blocks in ListenAndServe until Shutdown.
type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	listening   chan struct{}
	stopCh      chan struct{}
	stopOnce    sync.Once
	shutdowns   atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{listening: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.listening <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.stopOnce.Do(func() { close(m.stopCh) })
	return m.shutdownErr
}

func TestHTTPServerService(t *testing.T) {
	t.Parallel()

	t.Run("drains on cancellation", func(t *testing.T) {
		t.Parallel()
		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, ":0", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		<-server.listening
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if server.shutdowns.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", server.shutdowns.Load())
		}
	})

	t.Run("startup failure", func(t *testing.T) {
		t.Parallel()
		bind := errors.New("bind: address already in use")
		server := newMockHTTPServer()
		server.listenErr = bind

		if err := NewHTTPServerService(server, ":0", time.Second).Serve(context.Background()); !errors.Is(err, bind) {
			t.Errorf("Serve() = %v, want %v", err, bind)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		t.Parallel()
		stuck := errors.New("shutdown timeout")
		server := newMockHTTPServer()
		server.shutdownErr = stuck
		svc := NewHTTPServerService(server, ":0", time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-server.listening
		cancel()

		if err := <-errCh; !errors.Is(err, stuck) {
			t.Errorf("Serve() = %v, want %v", err, stuck)
		}
	})

	t.Run("default timeout", func(t *testing.T) {
		t.Parallel()
		if svc := NewHTTPServerService(newMockHTTPServer(), ":0", 0); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
		}
	})
}

type mockSyncer struct {
	calls  atomic.Int32
	report aggregate.SourceReport
}

func (m *mockSyncer) SyncSources(context.Context) aggregate.RunStats {
	m.calls.Add(1)
	return aggregate.RunStats{Sources: []aggregate.SourceReport{m.report}, RawRecords: 2}
}

type mockReevaluator struct {
	calls atomic.Int32
	err   error
}

func (m *mockReevaluator) Run(context.Context) (trust.ReevaluationStats, error) {
	m.calls.Add(1)
	return trust.ReevaluationStats{Scanned: 2}, m.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSyncLoopService(t *testing.T) {
	t.Parallel()

	t.Run("syncs then re-evaluates on every tick", func(t *testing.T) {
		t.Parallel()
		syncer := &mockSyncer{report: aggregate.SourceReport{SourceID: "partner-a", Status: "ok"}}
		reeval := &mockReevaluator{}
		svc := NewSyncLoopService(syncer, reeval, 10*time.Millisecond, true)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitFor(t, func() bool { return reeval.calls.Load() >= 2 })
		cancel()
		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if syncer.calls.Load() < reeval.calls.Load() {
			t.Errorf("syncs %d < re-evaluations %d", syncer.calls.Load(), reeval.calls.Load())
		}
	})

	t.Run("re-evaluation failure keeps the loop alive", func(t *testing.T) {
		t.Parallel()
		syncer := &mockSyncer{report: aggregate.SourceReport{SourceID: "partner-a", Error: "timeout"}}
		reeval := &mockReevaluator{err: errors.New("db locked")}
		svc := NewSyncLoopService(syncer, reeval, 10*time.Millisecond, false)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitFor(t, func() bool { return reeval.calls.Load() >= 2 })
		cancel()
		<-errCh
	})

	t.Run("no reevaluator", func(t *testing.T) {
		t.Parallel()
		syncer := &mockSyncer{}
		svc := NewSyncLoopService(syncer, nil, time.Hour, true)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		waitFor(t, func() bool { return syncer.calls.Load() == 1 })
		cancel()
		<-errCh
	})
}

type mockCollector struct {
	calls atomic.Int32
	ratio atomic.Value
}

func (m *mockCollector) RunGC(ratio float64) error {
	m.calls.Add(1)
	m.ratio.Store(ratio)
	return errors.New("nothing to collect")
}

func TestCheckpointGCService(t *testing.T) {
	t.Parallel()
	store := &mockCollector{}
	svc := NewCheckpointGCService(store, 5*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitFor(t, func() bool { return store.calls.Load() >= 2 })
	cancel()
	<-errCh
	if got := store.ratio.Load(); got != 0.5 {
		t.Errorf("discard ratio = %v, want default 0.5", got)
	}
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunnerService(t *testing.T) {
	t.Parallel()

	early := NewRunnerService("event-recorder", runnerFunc(func(context.Context) error { return nil }))
	if err := early.Serve(context.Background()); err == nil {
		t.Error("early nil return should be reported as a failure")
	}

	boom := errors.New("router closed")
	failing := NewRunnerService("event-recorder", runnerFunc(func(context.Context) error { return boom }))
	if err := failing.Serve(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Serve() = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocking := NewRunnerService("event-recorder", runnerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	if err := blocking.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if blocking.String() != "event-recorder" {
		t.Errorf("String() = %q", blocking.String())
	}
}
