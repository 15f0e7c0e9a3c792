package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Options(t *testing.T) {
	l, _ := observed(zapcore.InfoLevel)

	gl := NewGormLogger(l, gormlogger.Info)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)

	gl = NewGormLogger(l, gormlogger.Warn,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l, _ := observed(zapcore.InfoLevel)
	gl := NewGormLogger(l, gormlogger.Info)

	changed, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Error, changed.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(l, gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "info %d", 1)
	gl.Warn(ctx, "warn %d", 2)
	gl.Error(ctx, "error %d", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn 2", entries[0].Message)
	assert.Equal(t, "error 3", entries[1].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, OrderIDKey, "MO-1")

	t.Run("query at info level", func(t *testing.T) {
		l, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(l, gormlogger.Info)

		gl.Trace(ctx, time.Now(), sqlFunc("SELECT * FROM direct_materials", 3), nil)

		entries := logs.FilterMessage("SQL query").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "SELECT * FROM direct_materials", fields["sql"])
		assert.EqualValues(t, 3, fields["rows"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "MO-1", fields["order_id"])
	})

	t.Run("slow query", func(t *testing.T) {
		l, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(l, gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-time.Second), sqlFunc("SELECT 1", 1), nil)
		assert.Equal(t, 1, logs.FilterMessage("Slow SQL").Len())
	})

	t.Run("error", func(t *testing.T) {
		l, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(l, gormlogger.Error)

		gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 0), errors.New("syntax error"))
		entries := logs.FilterMessage("SQL error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "syntax error", entries[0].ContextMap()["error"])
	})

	t.Run("record not found ignored by default", func(t *testing.T) {
		l, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(l, gormlogger.Error)

		gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())

		gl = NewGormLogger(l, gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(l, gormlogger.Silent)

		gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 0), errors.New("x"))
		assert.Zero(t, logs.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("verbose"))
}
