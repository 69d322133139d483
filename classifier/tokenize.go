package classifier

import (
	"strings"
	"unicode"
)

// stopWords are dropped before keyword matching. Includes request filler
// ("need", "something") common in assistant queries, not just articles.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"i": true, "you": true, "we": true, "they": true, "it": true, "me": true,
	"my": true, "our": true, "your": true, "their": true, "its": true,
	"is": true, "are": true, "was": true, "be": true, "been": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "by": true,
	"for": true, "with": true, "from": true, "about": true, "into": true,
	"this": true, "that": true, "these": true, "those": true,
	"can": true, "could": true, "would": true, "should": true, "will": true,
	"do": true, "does": true, "did": true, "have": true, "has": true, "had": true,
	"please": true, "need": true, "want": true, "like": true, "lets": true,
	"something": true, "anything": true, "some": true, "any": true, "up": true,
	"us": true, "them": true, "get": true, "go": true, "hey": true,
}

// normalize lowercases the text and replaces punctuation with spaces so
// phrase matching is insensitive to casing and trivial punctuation.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize splits normalized text into content tokens, dropping stop-words.
func tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stem strips common English suffixes. Deliberately light: just enough that
// "creating"/"created"/"creates" all land on the same stem as "create"
// within the edit-distance tolerance.
func stem(token string) string {
	switch {
	case len(token) > 5 && strings.HasSuffix(token, "ing"):
		return token[:len(token)-3]
	case len(token) > 4 && strings.HasSuffix(token, "ed"):
		return token[:len(token)-2]
	case len(token) > 4 && strings.HasSuffix(token, "es"):
		return token[:len(token)-2]
	case len(token) > 3 && strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	}
	return token
}

// editTolerance returns how many character edits a match may absorb for a
// token of the given length. Short tokens get none: "doc" vs "dog" is not a
// typo worth forgiving.
func editTolerance(length int) int {
	switch {
	case length >= 8:
		return 2
	case length >= 5:
		return 1
	}
	return 0
}

// tokensMatch reports whether a query token matches a keyword after
// stemming, within the edit-distance tolerance for the longer of the two.
func tokensMatch(token, keyword string) bool {
	a, b := stem(token), stem(keyword)
	if a == b {
		return true
	}
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	tol := editTolerance(max)
	if tol == 0 {
		return false
	}
	if abs(len(a)-len(b)) > tol {
		return false
	}
	return levenshtein(a, b) <= tol
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
