package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestServerGracefulShutdown(t *testing.T) {
	logger := zap.NewNop()

	requestStarted := make(chan struct{})
	releaseRequest := make(chan struct{})
	defer func() {
		select {
		case <-releaseRequest:
		default:
			close(releaseRequest)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/image/validate", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-requestStarted:
		default:
			close(requestStarted)
		}
		<-releaseRequest
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"Clear","blurPercentage":0}`))
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := &http.Server{Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- serveHTTPServer(ctx, server, 2*time.Second, logger, listener)
	}()

	addr := listener.Addr().String()
	waitForServer(t, addr)

	client := &http.Client{Timeout: 2 * time.Second}
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := client.Post("http://"+addr+"/api/image/validate", "multipart/form-data", nil)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-requestStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("request did not start in time")
	}

	cancel()

	time.Sleep(50 * time.Millisecond)
	close(releaseRequest)

	select {
	case resp := <-respCh:
		t.Cleanup(func() { resp.Body.Close() })
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("unexpected status: %d body: %s", resp.StatusCode, string(body))
		}
	case err := <-errCh:
		t.Fatalf("request failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server did not shutdown cleanly: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not exit after shutdown")
	}
}

func TestServeHTTPServerReturnsListenerErrors(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	listener.Close()

	err = serveHTTPServer(context.Background(), &http.Server{}, time.Second, zap.NewNop(), listener)
	if err == nil {
		t.Fatal("expected error from closed listener")
	}
}

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupCache(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestRunCacheCleanup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cleaner := &countingCleaner{}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		runCacheCleanup(ctx, cleaner, 10*time.Millisecond, zap.New(core))
		close(finished)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cleaner.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}

	if cleaner.calls.Load() < 2 {
		t.Fatalf("expected at least 2 cleanup runs, got %d", cleaner.calls.Load())
	}
	if logs.FilterMessage("Cache cleanup removed stale entries").Len() == 0 {
		t.Fatal("expected cleanup to be logged")
	}
}

func TestRunCacheCleanupLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cleaner := &countingCleaner{err: errors.New("redis down")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runCacheCleanup(ctx, cleaner, 5*time.Millisecond, zap.New(core))

	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessage("Cache cleanup failed").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if logs.FilterMessage("Cache cleanup failed").Len() == 0 {
		t.Fatal("expected failure to be logged")
	}
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s did not become ready", addr)
}
