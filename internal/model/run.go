package model

import "time"

// RunStatus represents the persistence state of an enrichment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
)

// Run is one persisted enrichment of a phone number.
type Run struct {
	ID           string          `json:"id"`
	Phone        string          `json:"phone"`
	Status       RunStatus       `json:"status"`
	ReportStatus ReportStatus    `json:"report_status,omitempty"`
	Result       *CombinedResult `json:"result,omitempty"`
	Cost         float64         `json:"cost"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Usage records the billable calls made during one run.
type Usage struct {
	Lookups          int    `json:"lookups"`
	ResearchQueries  int    `json:"research_queries"`
	ResearchProvider string `json:"research_provider,omitempty"`
	ResearchModel    string `json:"research_model,omitempty"`
	InputTokens      int    `json:"input_tokens"`
	OutputTokens     int    `json:"output_tokens"`
}

// MaskPhone keeps only the last four digits of a phone number for logs.
func MaskPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) <= 4 {
		return "***"
	}
	return "***" + string(digits[len(digits)-4:])
}
