package eventlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

func TestWriter_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck // Close in defer is safe

	first := proto.NewAgentMsg(proto.KindRequest, proto.RoleOrchestrator, proto.RoleValuation)
	first.SetPayload(proto.KeyRequestID, "req-1")
	second := proto.NewAgentMsg(proto.KindResult, proto.RoleValuation, proto.RoleOrchestrator)
	second.SetPayload(proto.KeyRequestID, "req-1")

	require.NoError(t, w.WriteMessage(first))
	require.NoError(t, w.WriteMessage(second))

	path := w.CurrentLogFile()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(path, dir))
	assert.Contains(t, path, "events-")
	assert.True(t, strings.HasSuffix(path, ".jsonl"))

	msgs, err := ReadMessages(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	if v, ok := msgs[0].GetPayload(proto.KeyRequestID); assert.True(t, ok) {
		assert.Equal(t, "req-1", v)
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage(proto.NewAgentMsg(proto.KindRequest, proto.RoleOrchestrator, proto.RoleRisk)))
	path := w.CurrentLogFile()
	require.NoError(t, w.Close())

	w2, err := NewWriter(dir)
	require.NoError(t, err)
	defer w2.Close() //nolint:errcheck // Close in defer is safe
	require.NoError(t, w2.WriteMessage(proto.NewAgentMsg(proto.KindResult, proto.RoleRisk, proto.RoleOrchestrator)))

	msgs, err := ReadMessages(path)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestListLogFiles(t *testing.T) {
	dir := t.TempDir()

	files, err := ListLogFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	w, err := NewWriter(dir)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck // Close in defer is safe

	files, err = ListLogFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestReadMessages_MissingFile(t *testing.T) {
	_, err := ReadMessages("/nonexistent/events-2024-01-01.jsonl")
	assert.Error(t, err)
}
