package model

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/phone-insight/pkg/trestle"
)

// ReportStatus is the lifecycle state of a SalesInsightReport.
type ReportStatus string

const (
	StatusNotAttempted    ReportStatus = "not_attempted"
	StatusSuccess         ReportStatus = "success"
	StatusNoBusinessFound ReportStatus = "no_business_found"
	StatusError           ReportStatus = "error"
)

// Terminal reports whether s is one of the three end states.
func (s ReportStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusNoBusinessFound, StatusError:
		return true
	default:
		return false
	}
}

// Confidence is the research provider's self-assessed accuracy label.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence returns the label for s and whether s is a known label.
// Matching is exact; "high" is not a valid label.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(s); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	default:
		return "", false
	}
}

// KeyPersonnel is one person of interest at the researched company.
type KeyPersonnel struct {
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	LinkedInURL    *string `json:"linkedInUrl"`
	ProfileSummary *string `json:"profileSummary"`
}

// MsgNotStarted is the message carried by a fresh report.
const MsgNotStarted = "Processing not started."

// SalesInsightReport is the enrichment output for one phone number. Nullable
// fields are pointers or nil slices so they encode as JSON null.
type SalesInsightReport struct {
	Status               ReportStatus   `json:"status"`
	CompanyName          *string        `json:"companyName"`
	Website              *string        `json:"website"`
	Industry             *string        `json:"industry"`
	Location             *string        `json:"location"`
	CompanySize          *string        `json:"companySize"`
	KeyPersonnel         []KeyPersonnel `json:"keyPersonnel"`
	CompanyOverview      *string        `json:"companyOverview"`
	ProductsServices     *string        `json:"productsServices"`
	TargetAudience       *string        `json:"targetAudience"`
	RecentNewsTrigger    *string        `json:"recentNewsTrigger"`
	PotentialPainPoints  []string       `json:"potentialPainPoints"`
	TechStackHints       []string       `json:"techStackHints"`
	ConversationStarters []string       `json:"conversationStarters"`
	AIConfidenceScore    *Confidence    `json:"aiConfidenceScore"`
	ResearchTimestamp    *string        `json:"researchTimestamp"`
	ResearchSources      []string       `json:"researchSources,omitempty"`
	Error                string         `json:"error,omitempty"`
	Message              string         `json:"message,omitempty"`
}

// NewReport returns a report in the initial not_attempted state.
func NewReport() *SalesInsightReport {
	return &SalesInsightReport{
		Status:  StatusNotAttempted,
		Message: MsgNotStarted,
	}
}

// Outcome sets the fields that accompany a terminal status.
type Outcome func(r *SalesInsightReport)

// WithMessage sets the human-readable status explanation.
func WithMessage(msg string) Outcome {
	return func(r *SalesInsightReport) { r.Message = msg }
}

// WithError sets the error cause and the status explanation.
func WithError(cause, msg string) Outcome {
	return func(r *SalesInsightReport) {
		r.Error = cause
		r.Message = msg
	}
}

// WithTimestamp stamps the research timestamp.
func WithTimestamp(ts string) Outcome {
	return func(r *SalesInsightReport) { r.ResearchTimestamp = StringPtr(ts) }
}

// WithIdentity records the company name and location known before research.
func WithIdentity(companyName, location string) Outcome {
	return func(r *SalesInsightReport) {
		r.CompanyName = StringPtr(companyName)
		r.Location = StringPtr(location)
	}
}

// WithContent copies every researched field from v. Status, Error and
// Message are not copied.
func WithContent(v SalesInsightReport) Outcome {
	return func(r *SalesInsightReport) {
		status := r.Status
		*r = v
		r.Status = status
		r.Error = ""
		r.Message = ""
	}
}

// ErrAlreadyFinished is returned when Finish is called on a report that has
// already reached a terminal status.
var ErrAlreadyFinished = eris.New("model: report already finished")

// Finish moves the report from not_attempted into a terminal status and
// applies the outcomes. It is the only way a report leaves not_attempted;
// once finished, further calls leave the report untouched.
func (r *SalesInsightReport) Finish(status ReportStatus, outcomes ...Outcome) error {
	if r.Status.Terminal() {
		return eris.Wrapf(ErrAlreadyFinished, "status %s -> %s", r.Status, status)
	}
	if !status.Terminal() {
		return eris.Errorf("model: %q is not a terminal status", status)
	}

	r.Status = status
	r.Error = ""
	r.Message = ""
	for _, o := range outcomes {
		o(r)
	}
	return nil
}

// CombinedResult is the full answer for one phone number.
type CombinedResult struct {
	TrestleData        *trestle.CallerIDResponse `json:"trestleData"`
	SalesInsightReport *SalesInsightReport       `json:"salesInsightReport"`
}

// StringPtr returns a pointer to s, or nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
