package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}
	r.Start(8, "Embedding")
	r.Update(4, "batch 1")
	r.Finish()

	assert.Equal(t, "Embedding: 8 records\n[4/8] batch 1\nIndexing complete\n", buf.String())
}

func TestNewReporter_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.IsType(t, &CIReporter{}, NewReporter())
}

func TestTerminalReporter_UpdateBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{Out: &buf}
	r.Update(1, "ignored")
	r.Finish()
	assert.Empty(t, buf.String())

	r.Start(2, "Embedding")
	r.Update(1, "")
	assert.Contains(t, buf.String(), "(1/2)")
	r.Finish()
}
