package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json stdout", LogConfig{Level: "info", Format: "json", Output: "stdout"}, false},
		{"console stderr", LogConfig{Level: "debug", Format: "console", Output: "stderr"}, false},
		{"invalid level", LogConfig{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("test message")
		})
	}
}

func TestNewTracer_Disabled(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_EnabledWithoutEndpoint(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{
		ServiceName:  "test",
		Enabled:      true,
		SamplingRate: 0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", createSampler(1.0).Description())
	assert.Equal(t, "AlwaysOffSampler", createSampler(0).Description())
	assert.Contains(t, createSampler(0.25).Description(), "TraceIDRatioBased")
}
