package transcription

import (
	"os"
	"testing"

	"github.com/GCUGrayArea/clipforge/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewFailsWithoutAPIKey(t *testing.T) {
	os.Unsetenv(config.TranscriptionAPIKeyEnv)
	_, err := New("https://example.invalid/transcribe")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewSucceedsWithAPIKey(t *testing.T) {
	t.Setenv(config.TranscriptionAPIKeyEnv, "key-123")
	c, err := New("https://example.invalid/transcribe")
	assert.NoError(t, err)
	assert.NotNil(t, c)
}
