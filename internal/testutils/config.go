package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/logging"
)

// ConfigForTests loads the .env.test file and returns a valid config.
// This is the definitive way to get configuration for integration tests.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	// 1. Find project root by looking for go.mod to reliably locate .env.test
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			break
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}

	// 2. Manually read the .env.test file.
	env, err := godotenv.Read(filepath.Join(path, ".env.test"))
	if err != nil {
		t.Fatalf("failed to load .env.test file: %v", err)
	}

	// 3. Use t.Setenv so each test starts from the same environment.
	for key, value := range env {
		t.Setenv(key, value)
	}

	logging.New(env["LOG_FORMAT"], env["LOG_LEVEL"])

	// 4. Now that the environment is set, create the config.
	cfg, err := config.FromEnviron()
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}
