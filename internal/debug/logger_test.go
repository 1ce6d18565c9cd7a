package debug

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, true)
	t.Cleanup(func() { InitWriter(&buf, false) })

	require.True(t, Enabled())
	Statement("read", "SELECT 1", time.Millisecond, nil)
	Statement("write", "DELETE FROM `t`", time.Millisecond, errors.New("gone"))

	out := buf.String()
	assert.Contains(t, out, "kind=read")
	assert.Contains(t, out, `sql="SELECT 1"`)
	assert.Contains(t, out, "statement failed")
	assert.Contains(t, out, "error=gone")
}

func TestDisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false)

	assert.False(t, Enabled())
	Debug("hidden")
	Error("hidden too")
	assert.Empty(t, buf.String())
}
