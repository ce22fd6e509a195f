package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty string", input: "", expected: 0},
		{name: "single char", input: "a", expected: 1},
		{name: "exactly 4 chars", input: "abcd", expected: 1},
		{name: "5 chars rounds up", input: "abcde", expected: 2},
		{name: "long text 1000 chars", input: strings.Repeat("a", 1000), expected: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.input))
		})
	}
}

func TestTruncateOutput_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short output", truncateOutput("short output"))
}

func TestTruncateOutput_CutsAtLineBoundary(t *testing.T) {
	line := strings.Repeat("a", 100) + "\n"
	text := strings.Repeat(line, maxStorageChars/len(line)+10)

	out := truncateOutput(text)

	assert.Less(t, len(out), len(text))
	assert.Contains(t, out, "[TRUNCATED:")
	assert.True(t, strings.HasSuffix(strings.SplitN(out, "\n\n[TRUNCATED:", 2)[0], "a"),
		"truncated body should end mid-line content, not a partial trailing line")
}
