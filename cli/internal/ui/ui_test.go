package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	pterm.DisableStyling()
	var out, errOut bytes.Buffer
	p := &Printer{Out: &out, Err: &errOut}

	p.Success("created %s", "users")
	p.Plain("plain %d", 1)
	p.Error("failed %s", "posts")

	assert.Contains(t, out.String(), "created users")
	assert.Contains(t, out.String(), "plain 1\n")
	assert.Contains(t, errOut.String(), "failed posts")
	assert.NotContains(t, out.String(), "failed posts")
}

func TestTable(t *testing.T) {
	pterm.DisableStyling()
	var out bytes.Buffer
	p := &Printer{Out: &out}

	require.NoError(t, p.Table([]string{"Field", "Type"}, [][]string{{"_id", "int unsigned"}, {"email", "string(120)"}}))
	assert.Contains(t, out.String(), "Field")
	assert.Contains(t, out.String(), "string(120)")
}

func TestMarkdown(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out}

	require.NoError(t, p.Markdown("# users\n\nsome *text*"))
	assert.Contains(t, out.String(), "users")
	assert.Contains(t, out.String(), "text")
}

func TestState(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "applied", State(true))
	assert.Equal(t, "pending", State(false))
}
