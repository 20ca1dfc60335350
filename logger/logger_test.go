package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPackageFuncsUseReplacedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	Info("[Resolve] 解析成功", String("trackId", "t1"), Int("n", 2))
	Warn("warn", ErrorField(errors.New("boom")))
	Debug("debug", Bool("ok", true))

	require.Equal(t, 3, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "[Resolve] 解析成功", first.Message)
	assert.Equal(t, "t1", first.ContextMap()["trackId"])
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}

func TestUninitializedIsNop(t *testing.T) {
	Replace(nil)
	assert.NotPanics(t, func() {
		Info("nothing")
		Sync()
		Named("x").Info("still nothing")
	})
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, InitLogger(DefaultConfig("DEBUG", path)))
	t.Cleanup(func() { Replace(nil) })

	Info("hello file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(DebugLevel))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(ErrorLevel))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
