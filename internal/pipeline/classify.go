package pipeline

import (
	"github.com/sells-group/phone-insight/pkg/trestle"
)

// BusinessHint is what the caller ID lookup tells us about the number's owner.
type BusinessHint struct {
	BusinessName string `json:"business_name,omitempty"`
	IndustryHint string `json:"industry_hint,omitempty"`
	LocationHint string `json:"location_hint,omitempty"`
	AreaCodeHint string `json:"area_code_hint,omitempty"`
}

// IsBusiness reports whether research should run for this hint.
func (h BusinessHint) IsBusiness() bool {
	return h.BusinessName != ""
}

// Classify derives a BusinessHint from caller ID metadata and the raw phone
// string. A Business owner is authoritative for name and industry; otherwise
// a commercial line with a named owner yields a name without industry.
func Classify(meta *trestle.CallerIDResponse, phone string) BusinessHint {
	hint := BusinessHint{AreaCodeHint: AreaCode(phone)}
	if meta == nil {
		return hint
	}

	hint.LocationHint = locationHint(meta.CurrentAddresses)

	owner := meta.BelongsTo
	if owner == nil {
		return hint
	}

	switch owner.Type {
	case trestle.OwnerBusiness:
		hint.BusinessName = owner.OwnerName()
		hint.IndustryHint = owner.OwnerIndustry()
	case trestle.OwnerPerson:
		fallthrough
	default:
		if meta.Commercial() {
			hint.BusinessName = owner.OwnerName()
		}
	}

	// An industry without a name never triggers research.
	if hint.BusinessName == "" {
		hint.IndustryHint = ""
	}
	return hint
}

// locationHint formats the first address as "City, ST", or whichever part
// is present.
func locationHint(addrs []trestle.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	city, state := addrs[0].City(), addrs[0].State()
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}
