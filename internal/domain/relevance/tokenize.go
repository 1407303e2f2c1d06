package relevance

import (
	"regexp"
	"strings"
)

// minTokenLen is the shortest token kept by Tokenize; shorter ones carry no signal.
const minTokenLen = 4

var nonWordRegex = regexp.MustCompile(`[^a-z0-9_]+`)

var stopWords = map[string]struct{}{
	"of": {}, "in": {}, "to": {}, "and": {}, "the": {}, "a": {}, "an": {},
	"for": {}, "with": {}, "on": {}, "at": {}, "by": {}, "is": {}, "are": {},
}

// IsStopWord reports whether w is in the fixed stop-word set.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Tokenize lowercases text, splits it on runs of non-word characters and drops
// stop words and tokens of three characters or fewer.
func Tokenize(text string) []string {
	parts := nonWordRegex.Split(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) < minTokenLen || IsStopWord(p) {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}
