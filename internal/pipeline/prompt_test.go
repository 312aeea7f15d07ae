package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_LocationPhrase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hint BusinessHint
		want string
	}{
		{
			name: "location and area code",
			hint: BusinessHint{BusinessName: "Globex", LocationHint: "Reno, NV", AreaCodeHint: "775"},
			want: `Research the company named "Globex" potentially located near "Reno, NV" (Area Code: 775).`,
		},
		{
			name: "location only",
			hint: BusinessHint{BusinessName: "Globex", LocationHint: "Reno, NV"},
			want: `Research the company named "Globex" potentially located near "Reno, NV".`,
		},
		{
			name: "area code only",
			hint: BusinessHint{BusinessName: "Globex", AreaCodeHint: "775"},
			want: `Research the company named "Globex" potentially in Area Code 775.`,
		},
		{
			name: "neither",
			hint: BusinessHint{BusinessName: "Globex"},
			want: `Research the company named "Globex" with an unknown location.`,
		},
		{
			name: "industry",
			hint: BusinessHint{BusinessName: "Globex", IndustryHint: "Manufacturing", AreaCodeHint: "775"},
			want: `Research the company named "Globex" in the industry "Manufacturing" potentially in Area Code 775.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := BuildPrompt(tt.hint)
			assert.Contains(t, p.User, tt.want)
		})
	}
}

func TestBuildPrompt_Schema(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(BusinessHint{BusinessName: "Globex"})
	assert.Equal(t, researchSystemPrompt, p.System)
	assert.Contains(t, p.System, "ONLY valid, structured JSON")

	for _, key := range []string{
		"companyName", "website", "industry", "location", "companySize", "keyPersonnel",
		"linkedInUrl", "profileSummary", "companyOverview", "productsServices", "targetAudience",
		"recentNewsTrigger", "potentialPainPoints", "techStackHints", "conversationStarters",
		"aiConfidenceScore", "researchTimestamp", "researchSources",
	} {
		assert.Contains(t, p.User, `"`+key+`"`, key)
	}
	assert.Contains(t, p.User, "Max 3 relevant people")
	assert.Contains(t, p.User, "mark the corresponding JSON field as null")
	assert.Contains(t, p.User, "Output NO extra commentary")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	t.Parallel()
	hint := BusinessHint{BusinessName: "Globex", IndustryHint: "Retail", LocationHint: "Reno, NV", AreaCodeHint: "775"}
	assert.Equal(t, BuildPrompt(hint), BuildPrompt(hint))
}
