// ABOUTME: Test client backed by a temporary local BadgerDB
// ABOUTME: Used by packages that persist per-device state
package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient opens a Client over a BadgerDB in t.TempDir, closed on cleanup.
func NewTestClient(t testing.TB) *Client {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), AppName))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return c
}
