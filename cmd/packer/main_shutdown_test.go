package main

import (
	"bytes"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// sendOnNotify makes signalNotify deliver sig as soon as a channel registers.
func sendOnNotify(t *testing.T, sig os.Signal) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- sig
		}()
	}
}

func TestShutdownDrainsServerOnSignal(t *testing.T) {
	sendOnNotify(t, syscall.SIGTERM)

	server := &http.Server{}
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	core, logs := observer.New(zapcore.InfoLevel)
	if err := shutdown(server, time.Second, zap.New(core)); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}

	entries := logs.FilterMessage("shutting down server").All()
	if len(entries) != 1 {
		t.Fatalf("expected one shutdown log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["signal"]; got != syscall.SIGTERM.String() {
		t.Fatalf("expected signal %s in log, got %v", syscall.SIGTERM, got)
	}
}

func TestServeStopsOnSignal(t *testing.T) {
	sendOnNotify(t, os.Interrupt)

	done := make(chan error, 1)
	go func() {
		done <- run([]string{"--log-level", "error", "serve", "--port", "127.0.0.1:0", "--rate-limit-rps", "0"}, &bytes.Buffer{})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected serve to return after the interrupt signal")
	}
}
