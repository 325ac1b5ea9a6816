package testing

import (
	"context"
	"testing"
	"time"

	"github.com/imamik/stratus/internal/provisioning"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// AssertKind fails the test unless err classifies as kind.
func AssertKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Errorf("expected %s error but got nil", kind)
		return
	}
	if got := provisioning.Kind(err); got != kind {
		t.Errorf("expected %s error, got %s: %v", kind, got, err)
	}
}
