package main

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncCounter struct {
	bytes.Buffer
	syncs atomic.Int32
}

func (s *syncCounter) Sync() error {
	s.syncs.Add(1)
	return nil
}

func TestFailedRunFlushesLogger(t *testing.T) {
	sink := &syncCounter{}
	newLogger = func(bool) (*zap.Logger, error) {
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return zap.New(zapcore.NewCore(enc, sink, zapcore.DebugLevel)), nil
	}
	t.Cleanup(func() {
		newLogger = buildLogger
		logger = nil
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--root", t.TempDir()})

	err := execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heco_outlook.json")
	assert.Positive(t, sink.syncs.Load())
	assert.Contains(t, sink.String(), "annualizing construction plan")
}
