package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
  "demos": [
    {"title": "Migraine follow-up", "body": "A patient calls back", "audio": "calls/one.mp3", "prosody": "calls/one.csv"}
  ],
  "emotions": ["sad", "joy"]
}`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(catalogJSON), 0o644))
	conf := "paths:\n" +
		"  catalog: " + filepath.Join(dir, "config.json") + "\n" +
		"  outputs: " + filepath.Join(dir, "outputs") + "\n" +
		"services:\n" +
		"  identity:\n" +
		"    url: \"\"\n" +
		"    login_url: https://id.example/login\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDemosCommand(t *testing.T) {
	out, err := run(t, "demos", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "emotions: sad, joy")
	assert.Contains(t, out, " 0  Migraine follow-up")
	assert.Contains(t, out, filepath.Join("calls", "one.csv"))
}

func TestReplayNeedsTimes(t *testing.T) {
	_, err := run(t, "replay", "--config", writeConfig(t))
	assert.ErrorContains(t, err, "--step")
}

func TestReplayNeedsLogin(t *testing.T) {
	_, err := run(t, "replay", "--config", writeConfig(t), "--at", "0,2.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://id.example/login")
}

func TestBadLogLevel(t *testing.T) {
	_, err := run(t, "demos", "--config", writeConfig(t), "--log-level", "loud")
	assert.ErrorContains(t, err, "log level")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger("warn", true, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	log.Info("hidden")
	log.WithField("session", "abc").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"session":"abc"`)
}

func TestReplayTimes(t *testing.T) {
	assert.Equal(t, []float64{3, 1}, replayTimes([]float64{3, 1}, 0.5, 10))
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, replayTimes(nil, 0.5, 2))
	assert.Equal(t, []float64{0}, replayTimes(nil, 1, 0))
}
