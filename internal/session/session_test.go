package session_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/session"
)

func TestRunSucceedsOnValidProgram(t *testing.T) {
	sess := session.New("t.tpc")
	sess.Sink.SetOutput(&bytes.Buffer{})

	var out bytes.Buffer
	code := sess.Run([]byte("int main() { return 0; }"), &out)

	assert.Equal(t, session.ExitOK, code)
	assert.Contains(t, out.String(), "_start:")
}

func TestRunReturnsParseErrorOnSyntaxError(t *testing.T) {
	sess := session.New("t.tpc")
	sess.Sink.SetOutput(&bytes.Buffer{})

	var out bytes.Buffer
	code := sess.Run([]byte("int main( { return 0; }"), &out)
	assert.Equal(t, session.ExitParseError, code)
}

func TestRunReturnsCompileErrorOnMissingMain(t *testing.T) {
	sess := session.New("t.tpc")
	sess.Sink.SetOutput(&bytes.Buffer{})

	var out bytes.Buffer
	code := sess.Run([]byte("int f() { return 0; }"), &out)
	assert.Equal(t, session.ExitCompileError, code)
}

func TestParsePopulatesTree(t *testing.T) {
	sess := session.New("t.tpc")
	sess.Sink.SetOutput(&bytes.Buffer{})

	ok := sess.Parse([]byte("int main() { return 0; }"))
	require.True(t, ok)
	require.NotNil(t, sess.Tree)
}

func TestBuildAndCheckPopulatesSymbolTables(t *testing.T) {
	sess := session.New("t.tpc")
	sess.Sink.SetOutput(&bytes.Buffer{})

	require.True(t, sess.Parse([]byte("int g; int main() { return g; }")))
	sess.BuildAndCheck()

	require.NotNil(t, sess.Globals)
	require.NotNil(t, sess.Funcs)
	assert.False(t, sess.Sink.FatalError())
}
