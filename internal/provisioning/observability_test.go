package provisioning

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogObserver_Event(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(NewLogger(&buf, FormatJSON, 0))

	LogResourceCreated(obs.WithFields(map[string]string{"region": "eu-west-3"}), "storage", "bucket", "photos", "photos")

	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "bucket created", lines[0]["msg"])
	assert.Equal(t, "resource.created", lines[0]["event"])
	assert.Equal(t, "storage", lines[0]["phase"])
	assert.Equal(t, "photos", lines[0]["resource"])
	assert.Equal(t, "eu-west-3", lines[0]["region"])
	assert.Equal(t, "bucket", lines[0]["type"])
}

func TestLogObserver_FailureAndRetry(t *testing.T) {
	var buf bytes.Buffer
	obs := NewObserver(NewLogger(&buf, FormatJSON, 0))

	LogResourceFailed(obs, "compute", "instance", "i-1", &LaunchFailedError{InstanceID: "i-1", State: "terminated"})
	LogRetry(obs, "compute", "RunInstances", "throttled", errors.New("RequestLimitExceeded"))
	LogFallback(obs, "storage", "drain", "photos", "list-objects", errors.New("AccessDenied"))

	lines := jsonLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0]["error"], "terminated")
	assert.Equal(t, KindLaunchFailed, lines[0]["kind"])
	assert.Equal(t, "retry", lines[1]["event"])
	assert.Equal(t, "throttled", lines[1]["reason"])
	assert.Equal(t, "RequestLimitExceeded", lines[1]["cause"])
	assert.Equal(t, "fallback", lines[2]["event"])
	assert.Equal(t, "list-objects", lines[2]["path"])
}

func TestLogObserver_VerbosityGatesProgress(t *testing.T) {
	var quiet, verbose bytes.Buffer

	NewObserver(NewLogger(&quiet, FormatJSON, 0)).Progress("storage", 3, 0)
	NewObserver(NewLogger(&verbose, FormatJSON, 1)).Progress("storage", 3, 4)

	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), "progress: 3/4 (75%)")
}

func TestLogObserver_WithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewObserver(NewLogger(&bytes.Buffer{}, FormatJSON, 0))
	child := parent.WithFields(map[string]string{"bucket": "a"})

	assert.Empty(t, parent.contextFields)
	assert.Equal(t, "a", child.(*LogObserver).contextFields["bucket"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, FormatText, 0)
	log.Info("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, `"msg"="hello"`)
	assert.Contains(t, out, `"k"="v"`)
}

func TestResolveFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, resolveFormat(&bytes.Buffer{}, FormatAuto), "non-terminal writers get JSON")
	assert.Equal(t, FormatText, resolveFormat(&bytes.Buffer{}, FormatText))
	assert.Equal(t, FormatJSON, resolveFormat(&bytes.Buffer{}, FormatJSON))
}

func TestNopObserver(t *testing.T) {
	obs := NopObserver()
	obs.Event(Event{Type: EventResourceCreated, Message: "ignored"})
	assert.False(t, obs.Logger().Enabled())
}
