package plant

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// Suppress orchestrator logs during tests to keep CI output readable
	// Set DEBUG_TESTS=1 to see full logs: DEBUG_TESTS=1 go test ./plant/... -v
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}
