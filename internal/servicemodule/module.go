package servicemodule

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/rendezvous/internal/apperror"
)

// Module names one of the marketplace service lines.
type Module string

const (
	CompanionRental    Module = "companion-rental"
	BlindDate          Module = "blind-date"
	BusinessMeetup     Module = "business-meetup"
	InvestorMatch      Module = "investor-match"
	ExpertConsultation Module = "expert-consultation"
)

var all = []Module{
	CompanionRental,
	BlindDate,
	BusinessMeetup,
	InvestorMatch,
	ExpertConsultation,
}

var ErrUnknownModule = apperror.NewValidation("service_module", "unknown service module")

// All returns every service module in catalog order.
func All() []Module {
	out := make([]Module, len(all))
	copy(out, all)
	return out
}

// Parse normalizes display names and snake-case keys ("Blind Date",
// "blind_date") into the canonical module.
func Parse(raw string) (Module, error) {
	normalized := slug.Make(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
	for _, m := range all {
		if string(m) == normalized {
			return m, nil
		}
	}
	return "", ErrUnknownModule
}

// ParseOptional returns the empty module for blank input, used by list filters.
func ParseOptional(raw string) (Module, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return Parse(raw)
}

func (m Module) String() string {
	return string(m)
}

// Valid reports whether m is one of the known modules. Values built
// without Parse must pass it before they are stored.
func (m Module) Valid() bool {
	for _, candidate := range all {
		if candidate == m {
			return true
		}
	}
	return false
}
