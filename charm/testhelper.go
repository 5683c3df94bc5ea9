// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses temporary directories with a local BadgerDB for test isolation

package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient creates a client backed by BadgerDB in a temporary directory,
// avoiding the charm server dependency. The returned cleanup function closes it.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), AppName))
	if err != nil {
		t.Fatalf("Failed to open local kv: %v", err)
	}

	cleanup := func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	}

	return c, cleanup
}
