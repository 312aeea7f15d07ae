package trestle

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// OwnerType discriminates the belongs_to variant.
type OwnerType string

const (
	OwnerPerson   OwnerType = "Person"
	OwnerBusiness OwnerType = "Business"
)

// CallerIDResponse is the response from GET /3.1/caller_id. Only the fields
// read by the enrichment pipeline are modelled; nullable scalars are pointers.
type CallerIDResponse struct {
	ID               *string        `json:"id"`
	PhoneNumber      *string        `json:"phone_number"`
	IsValid          *bool          `json:"is_valid"`
	LineType         *string        `json:"line_type"`
	Carrier          *string        `json:"carrier"`
	IsPrepaid        *bool          `json:"is_prepaid"`
	IsCommercial     *bool          `json:"is_commercial"`
	BelongsTo        *Owner         `json:"belongs_to"`
	CurrentAddresses []Address      `json:"current_addresses"`
	Emails           Emails         `json:"emails"`
	Error            *ResponseError `json:"error,omitempty"`
	Warnings         Warnings       `json:"warnings,omitempty"`
}

// Commercial reports whether the provider flagged the line as commercial.
func (r *CallerIDResponse) Commercial() bool {
	return r != nil && r.IsCommercial != nil && *r.IsCommercial
}

// Owner is the belongs_to entity. Industry is only populated for businesses.
type Owner struct {
	Type     OwnerType `json:"type"`
	Name     *string   `json:"name"`
	Industry *string   `json:"industry,omitempty"`
}

// OwnerName returns the owner's name or "" when absent.
func (o *Owner) OwnerName() string {
	if o == nil || o.Name == nil {
		return ""
	}
	return *o.Name
}

// OwnerIndustry returns the owner's industry or "" when absent.
func (o *Owner) OwnerIndustry() string {
	if o == nil || o.Industry == nil {
		return ""
	}
	return *o.Industry
}

// Address is an open mapping of locality fields (city, state, postal_code, ...).
type Address map[string]string

// City returns the address city.
func (a Address) City() string { return a["city"] }

// State returns the address state.
func (a Address) State() string { return a["state"] }

// UnmarshalJSON keeps string-valued fields and drops nulls and nested values.
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "trestle: decode address")
	}
	out := make(Address, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	*a = out
	return nil
}

// Emails accepts either a single string or a list of strings.
type Emails []string

// UnmarshalJSON decodes a string, a list of strings, or null.
func (e *Emails) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*e = Emails{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return eris.Wrap(err, "trestle: decode emails")
	}
	*e = many
	return nil
}

// ResponseError is the optional error object embedded in a response body.
type ResponseError struct {
	Message string `json:"message,omitempty"`
}

// UnmarshalJSON accepts an object with a message, a bare string, or any
// other shape (ignored). The pipeline never reads this field, so it must not
// fail a lookup.
func (e *ResponseError) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		e.Message = one
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		e.Message = obj.Message
	}
	return nil
}

// Warnings holds provider warnings as text. String entries are kept as is;
// any other entry is kept as its raw JSON.
type Warnings []string

// UnmarshalJSON never fails: a non-list value decodes to no warnings.
func (w *Warnings) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*w = nil
		return nil
	}
	out := make(Warnings, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		if string(item) != "null" {
			out = append(out, string(item))
		}
	}
	*w = out
	return nil
}
