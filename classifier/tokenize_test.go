package classifier

import "testing"

func TestNormalize(t *testing.T) {
	got := normalize("  Hey -- can you DRAFT an e-mail, please?! ")
	want := "hey can you draft an e mail please"
	if got != want {
		t.Errorf("normalize: got %q, want %q", got, want)
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	tokens := tokenize("i need to create something for the qbr")
	want := []string{"create", "qbr"}
	if len(tokens) != len(want) {
		t.Fatalf("got tokens %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"creating":  "creat",
		"created":   "creat",
		"creates":   "creat",
		"plans":     "plan",
		"meetings":  "meeting",
		"qbr":       "qbr",
		"was":       "was", // too short to strip
	}
	for in, want := range cases {
		if got := stem(in); got != want {
			t.Errorf("stem(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestTokensMatch(t *testing.T) {
	cases := []struct {
		token, keyword string
		want           bool
	}{
		{"schedule", "schedule", true},
		{"scheduling", "schedule", true},  // stems to schedul vs schedule, 1 edit
		{"schedul", "schedule", true},     // typo within tolerance
		{"kickof", "kickoff", true},       // 1 edit at length 7
		{"doc", "dog", false},             // short tokens get no tolerance
		{"email", "emails", true},
		{"meeting", "melting", false},     // stem meet vs melt, len 4, no tolerance
		{"quarterly", "quart", false},     // length gap beyond tolerance
	}
	for _, tc := range cases {
		if got := tokensMatch(tc.token, tc.keyword); got != tc.want {
			t.Errorf("tokensMatch(%q, %q): got %v, want %v", tc.token, tc.keyword, got, tc.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"draft", "draft", 0},
		{"qbr", "qbrs", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q): got %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPhraseSynonymRewrite(t *testing.T) {
	syn := newSynonymTable(nil)
	got := syn.applyPhrases("put together a deck for the quarterly review")
	if got != "create a deck for the qbr" {
		t.Errorf("unexpected rewrite: %q", got)
	}
}

func TestSynonymExpansion(t *testing.T) {
	syn := newSynonymTable(nil)
	expanded := syn.expand("build")
	found := false
	for _, v := range expanded {
		if v == "create" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'build' to expand to 'create', got %v", expanded)
	}
}

func TestConfigSynonymsMerge(t *testing.T) {
	syn := newSynonymTable(map[string][]string{"create": {"whipup"}})
	expanded := syn.expand("whipup")
	found := false
	for _, v := range expanded {
		if v == "create" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected config synonym to join the create group, got %v", expanded)
	}
}
