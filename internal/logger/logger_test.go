package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "timestamp",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
		}),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// Session loggers carry the session id on every entry
func TestProperty_SessionLoggerTagsEntries(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("session_id is present and matches", prop.ForAll(
		func(sessionID string, message string) bool {
			var buf bytes.Buffer
			log := Session(bufferLogger(&buf), sessionID)
			log.Info(message)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["session_id"] == sessionID && entry["message"] == message
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_BuildsForEachEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		log, err := New(env)
		require.NoError(t, err, env)
		require.NotNil(t, log)
	}
}
