// Package testutil provides shared helpers for asynchronous tests.
package testutil

import (
	"testing"
	"time"
)

// Common test timeouts.
const (
	DefaultTimeout = 5 * time.Second
	ShortTimeout   = time.Second
)

// Receive returns the next value from ch or fails the test after timeout.
func Receive[T any](t testing.TB, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %s: %s", timeout, msg)
	}
	var zero T
	return zero
}

// Eventually polls cond every 5ms until it holds or timeout passes.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met after %s: %s", timeout, msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
