package codeblock

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract_Ordered(t *testing.T) {
	text := "intro text\n```repl\nprint(1)\n```\nsome prose\n```python\nprint(2)\n```\ntrailing"
	blocks := Extract(text)
	require.Equal(t, []string{"print(1)", "print(2)"}, blocks)
}

func TestExtract_NoBlocks(t *testing.T) {
	require.Empty(t, Extract("just prose, no fences here"))
}

func TestExtract_IgnoresOtherFences(t *testing.T) {
	text := "```bash\necho hi\n```\n```repl\nFINAL(\"x\")\n```"
	blocks := Extract(text)
	require.Equal(t, []string{"FINAL(\"x\")"}, blocks)
}

func TestTruncate_Unchanged(t *testing.T) {
	s := "short output"
	require.Equal(t, s, Truncate(s, 20000))
}

func TestTruncate_Contract(t *testing.T) {
	s := strings.Repeat("x", 25000)
	out := Truncate(s, 20000)

	advisory := fmt.Sprintf("[Output truncated to %d of %d characters. Use llm_query() to analyze content you cannot see.]", 20000, 25000)
	require.Len(t, out, 20000+len(advisory))
	require.Contains(t, out, advisory)
	require.Contains(t, out, "25000")
	require.Contains(t, out, "20000")
	require.True(t, strings.HasPrefix(out, strings.Repeat("x", 20000)))
}
