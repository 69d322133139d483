package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rohanthewiz/logger"

	"cscx/config"
	"cscx/task"
)

// Classifier maps free-text requests to task types with a confidence score.
// It holds no mutable state: the registry and synonym table are built once,
// so concurrent Classify calls are safe.
type Classifier struct {
	registry *task.Registry
	llm      CompletionClient
	cfg      config.ClassifierConfig
	syn      *synonymTable
}

// New creates a classifier. llm may be nil, in which case the fallback tier
// is skipped and low-confidence queries resolve from the heuristic tiers
// alone (or come back ambiguous).
func New(registry *task.Registry, llm CompletionClient, cfg config.ClassifierConfig) *Classifier {
	return &Classifier{
		registry: registry,
		llm:      llm,
		cfg:      cfg,
		syn:      newSynonymTable(cfg.Synonyms),
	}
}

// Classify runs the three matching tiers against the query. The phrase and
// keyword tiers are precision-biased, so whenever their best candidate sits
// below the fallback threshold the LLM tier is consulted to confirm or
// override. A best candidate under the ambiguity floor yields an Ambiguous
// outcome rather than a guess.
func (c *Classifier) Classify(ctx context.Context, query string, session SessionContext) Outcome {
	normalized := normalize(query)
	expanded := c.syn.applyPhrases(normalized)
	tokens := tokenize(expanded)

	candidates := c.matchPhrases(normalized)
	candidates = append(candidates, c.matchKeywords(tokens)...)

	best, found := bestOf(candidates)

	usedLLM := false
	if c.llm != nil && (!found || best.Confidence < c.cfg.FallbackThreshold) {
		if llmCand, err := c.consultLLM(ctx, query); err != nil {
			// The fallback tier must never abort classification; degrade
			// to the best heuristic candidate.
			logger.LogErr(err, "llm fallback classification failed", "query", query)
		} else if llmCand != nil {
			usedLLM = true
			candidates = append(candidates, *llmCand)
			if !found || llmCand.Confidence > best.Confidence {
				best, found = *llmCand, true
			}
		}
	}

	sortCandidates(candidates)

	if !found {
		return ambiguous(candidates)
	}

	boost := 0.0
	if def, ok := c.registry.Get(best.Type); ok &&
		session.ActiveCategory != "" && def.Category == session.ActiveCategory {
		boost = c.cfg.ContextBoost
	}
	confidence := best.Confidence + boost
	if confidence > 1.0 {
		confidence = 1.0
	}

	if confidence < c.cfg.AmbiguityFloor {
		return ambiguous(candidates)
	}

	logger.Info("Classified request",
		"task_type", best.Type,
		"confidence", fmt.Sprintf("%.2f", confidence),
		"tier", best.Tier,
		"used_llm", usedLLM)

	return Outcome{
		Result: &Result{
			Type:         best.Type,
			Confidence:   confidence,
			MatchedVia:   best.Tier,
			ContextBoost: boost,
			UsedLLM:      usedLLM,
			Candidates:   candidates,
		},
	}
}

// matchPhrases is the phrase-pattern tier: a registered trigger phrase
// contained in the normalized query scores the fixed phrase confidence.
func (c *Classifier) matchPhrases(normalized string) []Candidate {
	padded := " " + normalized + " "
	var out []Candidate
	for _, def := range c.registry.Definitions() {
		var matched []string
		for _, phrase := range def.TriggerPhrases {
			if strings.Contains(padded, " "+phrase+" ") {
				matched = append(matched, phrase)
			}
		}
		if len(matched) > 0 {
			out = append(out, Candidate{
				Type:       def.Type,
				Confidence: c.cfg.PhraseConfidence,
				Tier:       TierPhrase,
				Matched:    matched,
			})
		}
	}
	return out
}

// matchKeywords is the fuzzy tier: each content token is expanded through
// the synonym table and matched against a definition's keyword set with
// stemming and a small edit tolerance. Confidence grows with the share of
// content tokens covered, capped below the phrase tier's ceiling.
func (c *Classifier) matchKeywords(tokens []string) []Candidate {
	if len(tokens) == 0 {
		return nil
	}

	var out []Candidate
	for _, def := range c.registry.Definitions() {
		covered := 0
		var matched []string
		for _, tok := range tokens {
			if kw, ok := c.tokenHitsKeyword(tok, def.Keywords); ok {
				covered++
				matched = append(matched, kw)
			}
		}
		if covered == 0 {
			continue
		}

		coverage := float64(covered) / float64(len(tokens))
		confidence := c.cfg.FuzzyBase + (c.cfg.FuzzyCeiling-c.cfg.FuzzyBase)*coverage
		if confidence > c.cfg.FuzzyCeiling {
			confidence = c.cfg.FuzzyCeiling
		}

		out = append(out, Candidate{
			Type:       def.Type,
			Confidence: confidence,
			Tier:       TierKeyword,
			Matched:    matched,
		})
	}
	return out
}

func (c *Classifier) tokenHitsKeyword(token string, keywords []string) (string, bool) {
	variants := c.syn.expand(token)
	for _, kw := range keywords {
		for _, v := range variants {
			if tokensMatch(v, kw) {
				return kw, true
			}
		}
	}
	return "", false
}

// classifyPrompt instructs the model to pick from the closed task set.
const classifyPrompt = `You are a request classifier for a customer-success assistant.
Given a user request, pick the single best matching task type from the list, or "custom" if none fit.
Respond with only a JSON object: {"task_type": "...", "confidence": 0.0-1.0, "reason": "..."}`

type llmClassification struct {
	TaskType   string  `json:"task_type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// consultLLM is the fallback tier. The call runs under the configured
// timeout; any transport, timeout, or parse failure is reported to the
// caller, who degrades gracefully.
func (c *Classifier) consultLLM(ctx context.Context, query string) (*Candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString("Task types:\n")
	for _, def := range c.registry.Definitions() {
		fmt.Fprintf(&sb, "- %s (%s): e.g. %q\n", def.Type, def.Category, strings.Join(def.TriggerPhrases, `", "`))
	}
	fmt.Fprintf(&sb, "\nUser request: %s", query)

	raw, err := c.llm.Complete(callCtx, classifyPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	parsed, err := parseLLMClassification(raw)
	if err != nil {
		return nil, err
	}

	// "custom" or an unknown type from the model carries no candidate
	if _, ok := c.registry.Get(task.Type(parsed.TaskType)); !ok {
		return nil, nil
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Candidate{
		Type:       task.Type(parsed.TaskType),
		Confidence: confidence,
		Tier:       TierLLM,
		Matched:    []string{parsed.Reason},
	}, nil
}

// parseLLMClassification extracts the JSON object from a completion that
// may have prose around it.
func parseLLMClassification(raw string) (*llmClassification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion: %q", truncate(raw, 120))
	}

	var parsed llmClassification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("malformed classification JSON: %w", err)
	}
	if parsed.TaskType == "" {
		return nil, fmt.Errorf("classification JSON missing task_type")
	}
	return &parsed, nil
}

func bestOf(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, cand := range candidates {
		if !found || cand.Confidence > best.Confidence {
			best, found = cand, true
		}
	}
	return best, found
}

func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}

func ambiguous(candidates []Candidate) Outcome {
	clarify := "I couldn't confidently match that request to something I can do. Could you rephrase it?"
	if len(candidates) > 0 {
		names := make([]string, 0, 3)
		for i, cand := range candidates {
			if i == 3 {
				break
			}
			names = append(names, string(cand.Type))
		}
		clarify = fmt.Sprintf("I wasn't sure what you needed. Did you mean one of: %s?", strings.Join(names, ", "))
	}

	return Outcome{
		Ambiguous:  true,
		Clarify:    clarify,
		Candidates: candidates,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
