package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func caseQuery() (string, int64) {
	return "SELECT * FROM audit_cases WHERE bafin_id = 12345678", 1
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("queries log at debug under info level", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Info)

		gl.Trace(ctx, time.Now(), caseQuery, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zap.DebugLevel, entry.Level)
		assert.Contains(t, entry.ContextMap()["sql"], "audit_cases")
		assert.EqualValues(t, 1, entry.ContextMap()["rows"])
	})

	t.Run("failed query logs the error", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Error)

		gl.Trace(ctx, time.Now(), caseQuery, errors.New("connection reset"))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("record not found is suppressed", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Error)

		gl.Trace(ctx, time.Now(), caseQuery, gormlogger.ErrRecordNotFound)

		assert.Equal(t, 0, logs.Len())
	})

	t.Run("slow query logs at warn", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Warn)
		gl.slowThreshold = time.Nanosecond

		gl.Trace(ctx, time.Now().Add(-time.Second), caseQuery, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zap.WarnLevel, entry.Level)
		assert.Contains(t, entry.Message, "slow query")
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Silent)

		gl.Trace(ctx, time.Now(), caseQuery, errors.New("connection reset"))

		assert.Equal(t, 0, logs.Len())
	})

	t.Run("request id travels from context into the entry", func(t *testing.T) {
		log, logs := observedLogger()
		gl := NewGormLogger(log, gormlogger.Info)
		reqCtx := context.WithValue(ctx, RequestIDKey, "req-42")

		gl.Trace(reqCtx, time.Now(), caseQuery, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLoggerLogMode(t *testing.T) {
	log, logs := observedLogger()
	gl := NewGormLogger(log, gormlogger.Info)

	silenced := gl.LogMode(gormlogger.Silent)
	silenced.Info(context.Background(), "migration step %d", 3)

	// the original keeps its level
	gl.Info(context.Background(), "migration step %d", 4)
	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"trace", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.in))
		})
	}
}
