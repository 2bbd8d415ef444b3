package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_FieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologJSON(&buf, "debug")
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Error(ctx, "failed", "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["err"])
}

func TestZerologLogger_WithAndDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologJSON(&buf, "info").With("module", "rest")

	log.Debug(context.Background(), "filtered")
	log.Info(context.Background(), "hello", "odd")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "rest", lines[0]["module"])
	assert.Equal(t, "odd", lines[0]["!BADKEY"])
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New("zerolog", "info", &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZerologLogger{}, l)

	_, err = New("logrus", "info", &buf)
	assert.Error(t, err)
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With("a", 1)
	l.Info(context.TODO(), "x")
	l.Error(context.TODO(), "x")
}
