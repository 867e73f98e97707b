package ingestion

import (
	"regexp"
	"strings"
)

var decisionWordRegex = regexp.MustCompile(`\b(?:if|else|for|while|case|catch)\b`)

// decisionOperators are counted as raw substrings, so "?." and "??" count too.
var decisionOperators = []string{"&&", "||", "?"}

// Complexity returns the decision-point density of source per 100 lines:
// (1 + decision points) / lines * 100.
//
// This is a cheap lexical proxy, not cyclomatic complexity. Keywords inside
// strings and comments are counted like any other occurrence.
func Complexity(source string, lines int) float64 {
	if lines <= 0 {
		lines = 1
	}

	count := len(decisionWordRegex.FindAllStringIndex(source, -1))
	for _, op := range decisionOperators {
		count += strings.Count(source, op)
	}

	return float64(1+count) / float64(lines) * 100
}

// countLines counts newline-separated segments; an empty file has one line.
func countLines(source string) int {
	return strings.Count(source, "\n") + 1
}
