// Package testutil holds helpers shared by devtime tests.
package testutil

import (
	"os"
	"testing"
)

// SkipIfNoIntegration skips tests that need external programs when
// DEVTIME_TEST_SKIP_INTEGRATION is set.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("DEVTIME_TEST_SKIP_INTEGRATION") != "" {
		t.Skip("skipping integration test: DEVTIME_TEST_SKIP_INTEGRATION is set")
	}
}
