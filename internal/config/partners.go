package config

import (
	"strings"

	"github.com/lox/receipt-matcher/internal/types"
)

// minContainedName is the shortest partner name or alias matched inside a longer
// counterparty, so that short aliases don't match arbitrary statement text
const minContainedName = 4

// Partners resolves partner profiles for transactions
type Partners struct {
	profiles []types.PartnerProfile
}

func NewPartners(profiles []types.PartnerProfile) *Partners {
	return &Partners{profiles: profiles}
}

// PartnerLookup returns a lookup over the configured partner profiles
func (f *File) PartnerLookup() *Partners {
	return NewPartners(f.Partners)
}

// Get returns the partner with the given id
func (p *Partners) Get(id string) *types.PartnerProfile {
	for i := range p.profiles {
		if p.profiles[i].ID != "" && p.profiles[i].ID == id {
			return &p.profiles[i]
		}
	}
	return nil
}

// LookupPartner resolves by counterparty id first, then by a name or alias equal to the
// counterparty name, then by a name or alias contained in it. Ties go to the first
// configured partner.
func (p *Partners) LookupPartner(query types.TransactionQuery) *types.PartnerProfile {
	if query.CounterpartyID != "" {
		if partner := p.Get(query.CounterpartyID); partner != nil {
			return partner
		}
	}

	name := normalizeName(query.CounterpartyName)
	if name == "" {
		return nil
	}

	for i := range p.profiles {
		for _, n := range p.profiles[i].Names() {
			if normalizeName(n) == name {
				return &p.profiles[i]
			}
		}
	}
	for i := range p.profiles {
		for _, n := range p.profiles[i].Names() {
			n = normalizeName(n)
			if len(n) >= minContainedName && strings.Contains(name, n) {
				return &p.profiles[i]
			}
		}
	}
	return nil
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
