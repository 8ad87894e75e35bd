package common

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	debugLogger := SetupLogger(&LoggingOpts{Debug: true, Service: "test", Version: "v0"})
	assert.True(t, debugLogger.Enabled(context.Background(), slog.LevelDebug))

	infoLogger := SetupLogger(&LoggingOpts{JSON: true})
	assert.False(t, infoLogger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, infoLogger.Enabled(context.Background(), slog.LevelInfo))
}
