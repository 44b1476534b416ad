package prompt

import (
	"strings"
	"testing"

	"github.com/kadirpekel/shesha/internal/boundary"
	"github.com/stretchr/testify/require"
)

func TestRenderSystem_IncludesBoundary(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tok := boundary.Generate()
	out, err := a.RenderSystem(tok)
	require.NoError(t, err)
	require.Contains(t, out, string(tok)+"_BEGIN")
	require.Contains(t, out, string(tok)+"_END")
}

func TestRenderIterationZero_IncludesQuestion(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	out, err := a.RenderIterationZero("what is the capital of France?")
	require.NoError(t, err)
	require.Contains(t, out, "what is the capital of France?")
}

func TestRenderContextMetadata(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	out, err := a.RenderContextMetadata(2, 150, []int{100, 50})
	require.NoError(t, err)
	require.Contains(t, out, "2")
	require.Contains(t, out, "150")
	require.Contains(t, out, "100")
	require.Contains(t, out, "50")
}

func TestFormatCodeEcho_WrapsOutput(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tok := boundary.Generate()
	echo := a.FormatCodeEcho("print(1)", "1", tok)
	require.Contains(t, echo, "print(1)")
	require.Contains(t, echo, string(tok)+"_BEGIN")
	require.Contains(t, echo, string(tok)+"_END")
}

func TestRenderSubcall_NoStaticMarkers(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tok := boundary.Generate()
	wrapped := boundary.Wrap("doc text", tok)
	out, err := a.RenderSubcall("summarize this", wrapped)
	require.NoError(t, err)
	require.Contains(t, out, "summarize this")
	require.Contains(t, out, wrapped)
	require.False(t, strings.Contains(out, "<untrusted>"))
}
