package obslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoErrorDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("converting document", zap.String("from", "XML"), zap.Int("events", 3))
		Warn("mapping policy unresolved", zap.String("header", "GS1-EPC-Format"))
		Error("conversion failed", zap.Error(assert.AnError))
		Debug("decoded event", zap.Int("sequence", 1))
	})
}

func TestConfigureTeesToExtraCore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	Configure(core)

	Info("hello", zap.String("k", "v"))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
}
