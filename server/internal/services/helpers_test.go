package services

import (
	"testing"

	"nft-vault/shared/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "test"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return appLogger
}
