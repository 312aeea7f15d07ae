package pipeline

import (
	"fmt"
)

// ResearchPrompt is the system instruction and user brief sent to the
// research provider.
type ResearchPrompt struct {
	System string
	User   string
}

const researchSystemPrompt = "You are an expert sales intelligence researcher outputting ONLY valid, structured JSON based on the user's request format. You access the web to find and summarize information, including LinkedIn profiles, paying close attention to location hints."

const researchUserPrompt = `You are a sales intelligence researcher performing web searches to gather information.
Research the company named %q%s %s.

Provide your findings STRICTLY in the following JSON format.
- Prefer verified sources like the official company website, LinkedIn company pages, reputable news outlets, Crunchbase, government (.gov), or educational (.edu) sites when possible for facts like company size, key personnel, and recent news.
- For 'keyPersonnel', prioritize finding their official LinkedIn profile URL. If found, analyze the profile and provide a brief 1-2 sentence 'profileSummary' focusing on their recent experience, role focus, or key skills mentioned. If you cannot find a reliable LinkedIn profile URL or relevant summary information, set 'linkedInUrl' and/or 'profileSummary' to null respectively.
- You MUST NOT make up data. If you cannot verify something from a trustworthy source, mark the corresponding JSON field as null. Do not guess.
- Only return the valid JSON object as specified below. Output NO extra commentary, introduction, or explanation before or after the JSON block.

JSON Format:
{
  "companyName": "string | null",
  "website": "string | null",
  "industry": "string | null",
  "location": "string | null", // Should reflect the most likely location found
  "companySize": "string | null",
  "keyPersonnel": [{ "name": "string", "title": "string", "linkedInUrl": "string | null", "profileSummary": "string | null" }] | null, // Max 3 relevant people. Include LI profile URL and summary if found.
  "companyOverview": "string | null", // Concise description (1-2 sentences)
  "productsServices": "string | null", // Main offerings summary
  "targetAudience": "string | null", // Typical customer profile
  "recentNewsTrigger": "string | null", // ONE significant recent event (funding, launch, acquisition, key hire) - last 12-18 months
  "potentialPainPoints": ["string"] | null, // 2-3 potential challenges relevant to common B2B solutions based on their industry/size/news
  "techStackHints": ["string"] | null, // Any known tech used (if discoverable and relevant)
  "conversationStarters": ["string"] | null, // 2-3 specific opening lines referencing your research findings
  "aiConfidenceScore": "'High' | 'Medium' | 'Low' | null", // Your confidence in the accuracy and completeness of these findings
  "researchTimestamp": "string", // ISO 8601 timestamp NOW
  "researchSources": ["string"] | null // Max 3-4 primary URLs used for research
}
`

// BuildPrompt assembles the research brief for a business hint.
func BuildPrompt(hint BusinessHint) ResearchPrompt {
	industry := ""
	if hint.IndustryHint != "" {
		industry = fmt.Sprintf(" in the industry %q", hint.IndustryHint)
	}

	return ResearchPrompt{
		System: researchSystemPrompt,
		User:   fmt.Sprintf(researchUserPrompt, hint.BusinessName, industry, locationPhrase(hint)),
	}
}

func locationPhrase(hint BusinessHint) string {
	loc, ac := hint.LocationHint, hint.AreaCodeHint
	switch {
	case loc != "" && ac != "":
		return fmt.Sprintf("potentially located near %q (Area Code: %s)", loc, ac)
	case loc != "":
		return fmt.Sprintf("potentially located near %q", loc)
	case ac != "":
		return "potentially in Area Code " + ac
	default:
		return "with an unknown location"
	}
}
