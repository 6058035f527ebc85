package services

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"palsanalytix/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}
