// Package codeblock extracts fenced code blocks from a driver LLM reply
// and truncates sandbox output to the engine's per-block character budget
// (spec.md section 4.3).
package codeblock

import (
	"fmt"
	"regexp"
)

// fencePattern matches ```repl or ```python fences, capturing everything
// up to the closing ``` on its own line. (?s) lets "." span newlines.
var fencePattern = regexp.MustCompile("(?s)```(?:repl|python)\n(.*?)\n```")

// Extract returns the contents of every fenced repl/python block in text,
// in source order. Unfenced text is ignored (spec.md section 4.3).
func Extract(text string) []string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// Truncate returns output unchanged when it fits within maxChars.
// Otherwise it returns the first maxChars bytes followed by an advisory
// naming both the configured cap and the original length, matching the
// spec's exact wording (spec.md section 4.2): reimplementers must
// preserve this string verbatim since the model learns from it
// mid-conversation.
func Truncate(output string, maxChars int) string {
	if len(output) <= maxChars {
		return output
	}
	advisory := fmt.Sprintf("[Output truncated to %d of %d characters. Use llm_query() to analyze content you cannot see.]", maxChars, len(output))
	return output[:maxChars] + advisory
}
