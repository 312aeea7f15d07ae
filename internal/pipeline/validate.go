package pipeline

import (
	"time"

	"github.com/sells-group/phone-insight/internal/model"
)

// TimestampLayout is the ISO-8601 layout used for research timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Default personnel values for entries missing a usable name or title.
const (
	UnknownName  = "Unknown Name"
	UnknownTitle = "Unknown Title"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindStringList
	kindPersonnel
	kindConfidence
	kindTimestamp
)

// ruleInput is the context a rule may fall back on.
type ruleInput struct {
	hint BusinessHint
	now  time.Time
}

// fieldRule coerces one key of the research reply into the report.
// present is false when the key is missing from the reply.
type fieldRule struct {
	key   string
	kind  fieldKind
	apply func(r *model.SalesInsightReport, v any, present bool, in ruleInput)
}

var reportRules = []fieldRule{
	stringRule("companyName", func(r *model.SalesInsightReport) **string { return &r.CompanyName },
		func(in ruleInput) string { return in.hint.BusinessName }),
	stringRule("website", func(r *model.SalesInsightReport) **string { return &r.Website }, nil),
	stringRule("industry", func(r *model.SalesInsightReport) **string { return &r.Industry },
		func(in ruleInput) string { return in.hint.IndustryHint }),
	stringRule("location", func(r *model.SalesInsightReport) **string { return &r.Location },
		func(in ruleInput) string { return in.hint.LocationHint }),
	stringRule("companySize", func(r *model.SalesInsightReport) **string { return &r.CompanySize }, nil),
	{key: "keyPersonnel", kind: kindPersonnel, apply: applyPersonnel},
	stringRule("companyOverview", func(r *model.SalesInsightReport) **string { return &r.CompanyOverview }, nil),
	stringRule("productsServices", func(r *model.SalesInsightReport) **string { return &r.ProductsServices }, nil),
	stringRule("targetAudience", func(r *model.SalesInsightReport) **string { return &r.TargetAudience }, nil),
	stringRule("recentNewsTrigger", func(r *model.SalesInsightReport) **string { return &r.RecentNewsTrigger }, nil),
	listRule("potentialPainPoints", func(r *model.SalesInsightReport) *[]string { return &r.PotentialPainPoints }),
	listRule("techStackHints", func(r *model.SalesInsightReport) *[]string { return &r.TechStackHints }),
	listRule("conversationStarters", func(r *model.SalesInsightReport) *[]string { return &r.ConversationStarters }),
	{key: "aiConfidenceScore", kind: kindConfidence, apply: applyConfidence},
	{key: "researchTimestamp", kind: kindTimestamp, apply: applyTimestamp},
	listRule("researchSources", func(r *model.SalesInsightReport) *[]string { return &r.ResearchSources }),
}

// Validate coerces an untyped research reply into a report, field by field.
// Every field either takes the reply's value, when it has the expected shape,
// or its fallback. It never fails; Status, Error and Message are left unset.
func Validate(raw map[string]any, hint BusinessHint, now time.Time) model.SalesInsightReport {
	var r model.SalesInsightReport
	in := ruleInput{hint: hint, now: now}
	for _, rule := range reportRules {
		v, present := raw[rule.key]
		rule.apply(&r, v, present, in)
	}
	return r
}

func stringRule(key string, field func(*model.SalesInsightReport) **string, fallback func(ruleInput) string) fieldRule {
	return fieldRule{
		key:  key,
		kind: kindString,
		apply: func(r *model.SalesInsightReport, v any, _ bool, in ruleInput) {
			dst := field(r)
			if s, ok := v.(string); ok {
				*dst = &s
				return
			}
			*dst = nil
			if fallback != nil {
				*dst = model.StringPtr(fallback(in))
			}
		},
	}
}

// listRule keeps the string elements of a list and drops the rest. A value
// that is not a list leaves the field absent.
func listRule(key string, field func(*model.SalesInsightReport) *[]string) fieldRule {
	return fieldRule{
		key:  key,
		kind: kindStringList,
		apply: func(r *model.SalesInsightReport, v any, _ bool, _ ruleInput) {
			*field(r) = stringList(v)
		},
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func applyPersonnel(r *model.SalesInsightReport, v any, _ bool, _ ruleInput) {
	items, ok := v.([]any)
	if !ok {
		r.KeyPersonnel = nil
		return
	}

	people := make([]model.KeyPersonnel, 0, len(items))
	for _, item := range items {
		entry, _ := item.(map[string]any)
		p := model.KeyPersonnel{Name: UnknownName, Title: UnknownTitle}
		if s, ok := entry["name"].(string); ok {
			p.Name = s
		}
		if s, ok := entry["title"].(string); ok {
			p.Title = s
		}
		if s, ok := entry["linkedInUrl"].(string); ok {
			p.LinkedInURL = &s
		}
		if s, ok := entry["profileSummary"].(string); ok {
			p.ProfileSummary = &s
		}
		people = append(people, p)
	}
	r.KeyPersonnel = people
}

// applyConfidence keeps a valid label and maps any other present value to
// Medium. A missing or null label stays absent.
func applyConfidence(r *model.SalesInsightReport, v any, present bool, _ ruleInput) {
	r.AIConfidenceScore = nil
	if !present || v == nil {
		return
	}
	c := model.ConfidenceMedium
	if s, ok := v.(string); ok {
		if parsed, valid := model.ParseConfidence(s); valid {
			c = parsed
		}
	}
	r.AIConfidenceScore = &c
}

func applyTimestamp(r *model.SalesInsightReport, v any, _ bool, in ruleInput) {
	if s, ok := v.(string); ok {
		r.ResearchTimestamp = &s
		return
	}
	r.ResearchTimestamp = model.StringPtr(Timestamp(in.now))
}
