package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the ideas_agent binary for testing
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "ideas_agent")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/ideas_agent ./cmd/ideas_agent'", binaryPath)
	}

	return binaryPath
}
