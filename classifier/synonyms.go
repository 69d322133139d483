package classifier

import "strings"

// builtinPhraseSynonyms rewrite multi-word idioms into canonical tokens
// before tokenization, so "put together a quarterly review" carries the
// same signal as "create a qbr".
var builtinPhraseSynonyms = map[string]string{
	"put together":            "create",
	"pull together":           "create",
	"set up":                  "schedule",
	"kick off":                "kickoff",
	"quarterly review":        "qbr",
	"quarterly business review": "qbr",
	"business review":         "qbr",
	"follow up":               "followup",
	"reach out":               "email",
	"write up":                "document",
	"check in":                "meeting",
}

// builtinTokenSynonyms are canonical-token groups for the fuzzy tier.
// Membership is bidirectional: any member of a group matches any other.
var builtinTokenSynonyms = map[string][]string{
	"create":   {"build", "draft", "prepare", "make", "generate", "compose", "produce", "assemble"},
	"email":    {"mail", "message", "note", "outreach", "followup"},
	"meeting":  {"call", "sync", "session", "conversation"},
	"schedule": {"book", "arrange", "organize"},
	"risk":     {"churn", "danger", "concern"},
	"report":   {"summary", "breakdown", "analysis"},
	"document": {"doc", "writeup", "memo"},
	"usage":    {"adoption", "engagement", "activity"},
	"customer": {"account", "client"},
	"renewal":  {"contract", "expansion"},
}

// synonymTable resolves tokens to their synonym group, with config-supplied
// groups merged over the built-ins.
type synonymTable struct {
	phrases map[string]string
	// groups maps every member token (stemmed) to the full group.
	groups map[string][]string
}

func newSynonymTable(extra map[string][]string) *synonymTable {
	t := &synonymTable{
		phrases: builtinPhraseSynonyms,
		groups:  make(map[string][]string),
	}
	t.merge(builtinTokenSynonyms)
	t.merge(extra)
	return t
}

func (t *synonymTable) merge(src map[string][]string) {
	for canonical, members := range src {
		group := append([]string{canonical}, members...)
		seen := make(map[string]bool, len(group))
		uniq := make([]string, 0, len(group))
		for _, g := range group {
			if !seen[g] {
				seen[g] = true
				uniq = append(uniq, g)
			}
		}
		for _, g := range uniq {
			t.groups[stem(g)] = mergeGroup(t.groups[stem(g)], uniq)
		}
	}
}

func mergeGroup(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, s := range append(existing, add...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// applyPhrases rewrites known multi-word idioms in normalized text.
func (t *synonymTable) applyPhrases(normalized string) string {
	out := normalized
	for phrase, canonical := range t.phrases {
		out = strings.ReplaceAll(out, phrase, canonical)
	}
	return out
}

// expand returns the token plus every member of its synonym group.
func (t *synonymTable) expand(token string) []string {
	group, ok := t.groups[stem(token)]
	if !ok {
		return []string{token}
	}
	out := make([]string, 0, len(group)+1)
	out = append(out, token)
	for _, g := range group {
		if g != token {
			out = append(out, g)
		}
	}
	return out
}
