// Package cost estimates the provider spend of an enrichment run.
package cost

import (
	"github.com/sells-group/phone-insight/internal/config"
	"github.com/sells-group/phone-insight/internal/model"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Trestle    TrestleRate          `yaml:"trestle" mapstructure:"trestle"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// TrestleRate holds caller ID lookup pricing.
type TrestleRate struct {
	PerLookup float64 `yaml:"per_lookup" mapstructure:"per_lookup"`
}

// PerplexityRate holds Perplexity pricing: a flat request fee plus tokens.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
	PerMTok  float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Lookup returns the cost of n caller ID lookups.
func (c *Calculator) Lookup(n int) float64 {
	return float64(n) * c.rates.Trestle.PerLookup
}

// Perplexity computes the cost of n queries and their token usage.
func (c *Calculator) Perplexity(n, input, output int) float64 {
	tokens := float64(input+output) / 1e6
	return float64(n)*c.rates.Perplexity.PerQuery + tokens*c.rates.Perplexity.PerMTok
}

// Claude computes the cost for a Claude API call. Unknown models cost 0.
func (c *Calculator) Claude(modelName string, input, output int) float64 {
	rate, ok := c.rates.Anthropic[modelName]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Run totals the cost of one enrichment run.
func (c *Calculator) Run(u model.Usage) float64 {
	total := c.Lookup(u.Lookups)
	if u.ResearchQueries == 0 {
		return total
	}
	switch u.ResearchProvider {
	case "anthropic":
		total += c.Claude(u.ResearchModel, u.InputTokens, u.OutputTokens)
	default:
		total += c.Perplexity(u.ResearchQueries, u.InputTokens, u.OutputTokens)
	}
	return total
}

// FromConfig builds Rates from the pricing section of the config, falling
// back to DefaultRates for Anthropic models the config does not list.
func FromConfig(p config.PricingConfig) Rates {
	rates := DefaultRates()
	rates.Trestle.PerLookup = p.Trestle.PerLookup
	rates.Perplexity = PerplexityRate{PerQuery: p.Perplexity.PerQuery, PerMTok: p.Perplexity.PerMTok}
	for name, mp := range p.Anthropic {
		rates.Anthropic[name] = ModelRate{Input: mp.Input, Output: mp.Output}
	}
	return rates
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Trestle:    TrestleRate{PerLookup: 0.01},
		Perplexity: PerplexityRate{PerQuery: 0.005, PerMTok: 1.0},
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	}
}
