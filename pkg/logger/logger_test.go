package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	custom := zap.NewExample()
	SetLogger(custom)
	assert.Same(t, custom, Logger())

	SetLogger(nil)
	require.NotNil(t, Logger())
	assert.NotSame(t, custom, Logger())
}

func TestNew(t *testing.T) {
	log, err := New("debug")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	_, err = New("chatty")
	require.Error(t, err)
}
