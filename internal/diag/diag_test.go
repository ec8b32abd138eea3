package diag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/diag"
)

func TestErrorSetsFatal(t *testing.T) {
	sink := diag.NewSink("in.tpc")
	var buf bytes.Buffer
	sink.SetOutput(&buf)

	assert.False(t, sink.FatalError())
	sink.UseOfUndeclaredSymbol(3, 5, "x")
	assert.True(t, sink.FatalError())
	assert.Equal(t, 1, sink.ErrorCount())
	assert.Contains(t, buf.String(), "in.tpc:3:5")
}

func TestWarningsAndNotesDoNotSetFatal(t *testing.T) {
	sink := diag.NewSink("in.tpc")
	sink.SetOutput(&bytes.Buffer{})

	sink.NarrowingAssignment(1, 1)
	sink.UnusedSymbol(2, 1, "g")
	assert.False(t, sink.FatalError())
	assert.Equal(t, 1, sink.WarningCount())
	assert.Equal(t, 1, sink.NoteCount())
}

func TestDiagnosticsRecordedInEmissionOrder(t *testing.T) {
	sink := diag.NewSink("in.tpc")
	sink.SetOutput(&bytes.Buffer{})

	sink.NoStartFunction()
	sink.MainMustReturnInt(4, 1)

	ds := sink.Diagnostics()
	require.Len(t, ds, 2)
	assert.Equal(t, diag.Error, ds[0].Severity)
	assert.Equal(t, 0, ds[0].Line)
	assert.Equal(t, 4, ds[1].Line)
}

func TestCustomFormatsMessage(t *testing.T) {
	sink := diag.NewSink("in.tpc")
	var buf bytes.Buffer
	sink.SetOutput(&buf)

	sink.Custom(diag.Error, 7, 2, "unexpected %q", "foo")
	assert.Contains(t, buf.String(), `unexpected "foo"`)
}
