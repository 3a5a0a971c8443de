package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullManifest(t *testing.T) {
	data := []byte(`
component: webhook
instance: hooks-prod
owner: acme
db: ./spindle.db
props:
  channel: "#alerts"
  limit: 50
http:
  listen: ":9090"
  response_timeout_seconds: 10
`)

	m, err := Parse("test.yaml", data)
	require.NoError(t, err)
	assert.Equal(t, "webhook", m.Component)
	assert.Equal(t, "hooks-prod", m.Instance)
	assert.Equal(t, "acme", m.Owner)
	assert.Equal(t, "./spindle.db", m.DB)
	assert.Equal(t, "#alerts", m.Props["channel"])
	assert.Equal(t, 50, m.Props["limit"])
	require.NotNil(t, m.HTTP)
	assert.Equal(t, ":9090", m.HTTP.Listen)
	assert.Equal(t, 10, m.HTTP.ResponseTimeoutSeconds)
	assert.Nil(t, m.Timer)
}

func TestParse_TimerManifest(t *testing.T) {
	data := []byte(`
component: heartbeat
instance: beat-1
timer:
  interval_seconds: 30
`)

	m, err := Parse("test.yaml", data)
	require.NoError(t, err)
	require.NotNil(t, m.Timer)
	assert.Equal(t, 30, m.Timer.IntervalSeconds)
}

func TestParse_MissingComponentFailsSchema(t *testing.T) {
	data := []byte(`
instance: beat-1
`)

	_, err := Parse("test.yaml", data)
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeSchema, mErr.Code)
}

func TestParse_EmptyComponentFailsSchema(t *testing.T) {
	data := []byte(`
component: ""
instance: beat-1
`)

	_, err := Parse("test.yaml", data)
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeSchema, mErr.Code)
}

func TestParse_NegativeIntervalFailsSchema(t *testing.T) {
	data := []byte(`
component: heartbeat
instance: beat-1
timer:
  interval_seconds: -5
`)

	_, err := Parse("test.yaml", data)
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeSchema, mErr.Code)
}

func TestParse_BothSchedulesFailValidation(t *testing.T) {
	data := []byte(`
component: heartbeat
instance: beat-1
timer:
  interval_seconds: 30
  cron: "*/5 * * * *"
`)

	_, err := Parse("test.yaml", data)
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeInvalid, mErr.Code)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse("test.yaml", []byte("component: [unclosed"))
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeParseFailed, mErr.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, ErrCodeNotFound, mErr.Code)
}

func TestLoad_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte("component: heartbeat\ninstance: beat-1\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", m.Component)
}

func TestError_IncludesPathAndCode(t *testing.T) {
	err := &Error{Code: ErrCodeSchema, Path: "m.yaml", Message: "bad shape"}
	assert.Contains(t, err.Error(), "m.yaml")
	assert.Contains(t, err.Error(), ErrCodeSchema)
}
