package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "warn", "json"))
	t.Cleanup(func() {
		_ = Setup(os.Stderr, "info", "text")
	})

	log.Info("hidden")
	log.WithField("model", "gpt-4o").Warn("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "gpt-4o", entry["model"])
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	assert.Error(t, Setup(nil, "loud", "text"))
	assert.Error(t, Setup(nil, "info", "xml"))
}
