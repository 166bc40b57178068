package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	t.Run("json format with fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewWithOutput(&buf, "debug", "json")
		require.NoError(t, err)

		logger.WithField("store", "store-aldi").Debug("searching")

		assert.Contains(t, buf.String(), `"store":"store-aldi"`)
		assert.Contains(t, buf.String(), `"msg":"searching"`)
	})

	t.Run("level filters output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewWithOutput(&buf, "warn", "text")
		require.NoError(t, err)

		logger.Info("hidden")
		assert.Empty(t, buf.String())
		assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	})

	t.Run("rejects bad level", func(t *testing.T) {
		_, err := NewWithOutput(&bytes.Buffer{}, "loud", "text")
		assert.Error(t, err)
	})

	t.Run("rejects bad format", func(t *testing.T) {
		_, err := NewWithOutput(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})
}
