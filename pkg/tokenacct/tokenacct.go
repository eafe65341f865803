// Package tokenacct implements Token Accounting (C1): per-model token
// counting, per-model cost pricing, and cost-threshold classification.
// Token counts are approximate heuristics — no tokenizer library is wired
// in; see DESIGN.md for why no pack example ships a real tokenizer
// dependency.
package tokenacct

import "strings"

// family identifies a model's provider family, used to pick a tuned
// chars-per-token ratio.
type family int

const (
	familyUnknown family = iota
	familyOpenAI
	familyAnthropic
	familyGoogle
	familyMistral
)

// charsPerToken ratios are deliberately approximate, tuned per family from
// each vendor's publicly documented rule-of-thumb; none of them claims to
// be exact.
var charsPerTokenByFamily = map[family]float64{
	familyOpenAI:     4.0,
	familyAnthropic:  3.8,
	familyGoogle:     4.0,
	familyMistral:    4.0,
	familyUnknown:    4.0,
}

func classifyFamily(model string) family {
	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return familyOpenAI
	case strings.HasPrefix(model, "claude-"):
		return familyAnthropic
	case strings.HasPrefix(model, "gemini-"):
		return familyGoogle
	case strings.HasPrefix(model, "mistral-") || strings.HasPrefix(model, "open-mistral-"):
		return familyMistral
	default:
		return familyUnknown
	}
}

// CountTokens returns an approximate token count for text under model's
// family heuristic. Unknown model prefixes fall back to the conservative
// ≈4 chars/token estimator — a turn never fails just because a tokenizer
// family couldn't be resolved.
func CountTokens(model, text string) int {
	if len(text) == 0 {
		return 0
	}
	ratio := charsPerTokenByFamily[classifyFamily(model)]
	if ratio <= 0 {
		ratio = charsPerTokenByFamily[familyUnknown]
	}
	count := float64(len(text)) / ratio
	// Round up: a soft cost/threshold estimate should never undercount.
	n := int(count)
	if float64(n) < count {
		n++
	}
	return n
}

// Pricing is one model's $/1M-token input and output price.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// pricingTable is a static, illustrative snapshot of public per-model
// pricing for the models named in C3's provider variants. It is not
// live-fetched; pricing lookups never make a network call.
var pricingTable = map[string]Pricing{
	"gpt-4o":               {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":          {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"claude-3-5-sonnet":    {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-3-opus":        {InputPerMillion: 15.00, OutputPerMillion: 75.00},
	"claude-3-haiku":       {InputPerMillion: 0.25, OutputPerMillion: 1.25},
	"gemini-1.5-pro":       {InputPerMillion: 1.25, OutputPerMillion: 5.00},
	"gemini-1.5-flash":     {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	"mistral-large-latest": {InputPerMillion: 2.00, OutputPerMillion: 6.00},
	"open-mistral-7b":      {InputPerMillion: 0.25, OutputPerMillion: 0.25},
}

// defaultPricing is used for any model id not in pricingTable (e.g. the
// local-offline-stub provider), so cost accounting never fails for a
// missing entry — it is deliberately conservative but nonzero so threshold
// classification still has something to work with in tests.
var defaultPricing = Pricing{InputPerMillion: 1.00, OutputPerMillion: 3.00}

// Price returns model's per-million-token input/output pricing, falling
// back to defaultPricing for models not in the static table.
func Price(model string) Pricing {
	if p, ok := pricingTable[model]; ok {
		return p
	}
	return defaultPricing
}

// Cost computes the USD cost of a turn from its token counts and model.
func Cost(model string, inputTokens, outputTokens int64) float64 {
	p := Price(model)
	return float64(inputTokens)*p.InputPerMillion/1e6 + float64(outputTokens)*p.OutputPerMillion/1e6
}

// WarningLevel is the cost-threshold classification returned by Classify.
type WarningLevel string

const (
	WarningNone     WarningLevel = "none"
	WarningLow      WarningLevel = "low"
	WarningMedium   WarningLevel = "medium"
	WarningHigh     WarningLevel = "high"
	WarningCritical WarningLevel = "critical"
)

// Classify derives a WarningLevel from totalCost against a conversation's
// configured USD threshold, using fixed boundary ratios of that threshold.
func Classify(totalCost, threshold float64) WarningLevel {
	switch {
	case threshold <= 0:
		return WarningNone
	case totalCost < 0.5*threshold:
		return WarningNone
	case totalCost < 0.75*threshold:
		return WarningLow
	case totalCost < threshold:
		return WarningMedium
	case totalCost < 1.5*threshold:
		return WarningHigh
	default:
		return WarningCritical
	}
}
