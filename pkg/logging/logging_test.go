package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("provider", "mymemory").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "mymemory", entry["provider"])
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("loud", "text", &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}
