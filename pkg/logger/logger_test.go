package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	log, atom, err := New("warn")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, zapcore.WarnLevel, atom.Level())

	require.NoError(t, SetLevel(atom, "debug"))
	assert.Equal(t, zapcore.DebugLevel, atom.Level())
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New("loud")
	assert.Error(t, err)
}

func TestGormTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := NewGorm(zap.New(core).Sugar())

	sql := func() (string, int64) { return "SELECT 1", 1 }

	g.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "query failed", logs.All()[0].Message)

	// Plain queries are only logged at Info mode
	g.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 1, logs.Len())

	g.LogMode(gormlogger.Info).Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 2, logs.Len())

	g.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}
