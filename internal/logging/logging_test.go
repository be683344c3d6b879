package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, closer, err := New(Options{Level: "loud"})
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
	require.NoError(t, closer.Close())
}

func TestNewWritesJSONToRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "service.log")
	logger, closer, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("user_id", 7).Info("category created")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	require.Equal(t, "category created", entry["msg"])
	require.EqualValues(t, 7, entry["user_id"])
}
