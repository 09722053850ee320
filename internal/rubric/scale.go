package rubric

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// DistrictOfColumbia is the canonical token for every spelling of Washington, D.C.
const DistrictOfColumbia = "DistrictOfColumbia"

// Scale holds the four independently configurable sub-scales used to score a record.
type Scale struct {
	FAFSA          map[string]float64 `json:"fafsa_scale"     koanf:"fafsa_scale"`
	Paid           map[string]float64 `json:"paid"            koanf:"paid"`
	InternshipType map[string]float64 `json:"internship_type" koanf:"internship_type"`
	CostOfLiving   CostOfLiving       `json:"cost_of_living"  koanf:"cost_of_living"`
}

// CostOfLiving maps state tokens to points, split across three tiers.
// A state appears in at most one tier.
type CostOfLiving struct {
	Tier1 map[string]float64 `json:"tier1" koanf:"tier1"`
	Tier2 map[string]float64 `json:"tier2" koanf:"tier2"`
	Tier3 map[string]float64 `json:"tier3" koanf:"tier3"`
}

// Tier returns the state table for t, or nil for an unknown tier.
func (c *CostOfLiving) Tier(t Tier) map[string]float64 {
	switch t {
	case Tier1:
		return c.Tier1
	case Tier2:
		return c.Tier2
	case Tier3:
		return c.Tier3
	}
	return nil
}

func (c *CostOfLiving) setTier(t Tier, m map[string]float64) {
	switch t {
	case Tier1:
		c.Tier1 = m
	case Tier2:
		c.Tier2 = m
	case Tier3:
		c.Tier3 = m
	}
}

// Need returns the points for a need level, 0 when unset.
func (s *Scale) Need(n NeedLevel) float64 { return s.FAFSA[string(n)] }

// PaidPoints returns the points for a paid status, 0 when unset.
func (s *Scale) PaidPoints(p PaidStatus) float64 { return s.Paid[string(p)] }

// TypePoints returns the points for an internship type, 0 when unset.
func (s *Scale) TypePoints(t InternshipType) float64 { return s.InternshipType[string(t)] }

// TierOf scans tier1, tier2 and tier3 in order and reports the first tier
// holding state together with its points.
func (s *Scale) TierOf(state string) (Tier, float64, bool) {
	for _, t := range Tiers {
		if p, ok := s.CostOfLiving.Tier(t)[state]; ok {
			return t, p, true
		}
	}
	return 0, 0, false
}

// MoveState removes state from every tier and then adds it to tier with points.
func (s *Scale) MoveState(state string, tier Tier, points float64) error {
	state = strings.TrimSpace(state)
	if state == "" {
		return fmt.Errorf("%w: state must not be empty", ErrInvalidScale)
	}
	if !tier.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	if points < 0 {
		return fmt.Errorf("%w: points for %s must not be negative", ErrInvalidScale, state)
	}
	for _, t := range Tiers {
		delete(s.CostOfLiving.Tier(t), state)
	}
	m := s.CostOfLiving.Tier(tier)
	if m == nil {
		m = make(map[string]float64)
		s.CostOfLiving.setTier(tier, m)
	}
	m[state] = points
	return nil
}

// Clone returns a deep copy of s.
func (s *Scale) Clone() Scale {
	return Scale{
		FAFSA:          maps.Clone(s.FAFSA),
		Paid:           maps.Clone(s.Paid),
		InternshipType: maps.Clone(s.InternshipType),
		CostOfLiving: CostOfLiving{
			Tier1: maps.Clone(s.CostOfLiving.Tier1),
			Tier2: maps.Clone(s.CostOfLiving.Tier2),
			Tier3: maps.Clone(s.CostOfLiving.Tier3),
		},
	}
}

// Validate checks that every key is a canonical enum value (high_need, not
// "High Need"), no points are negative and no state sits in more than one
// tier. All problems are reported together.
func (s *Scale) Validate() error {
	var errs []string

	for _, k := range sortedKeys(s.FAFSA) {
		if n, ok := ParseNeedLevel(k); !ok || string(n) != k {
			errs = append(errs, fmt.Sprintf("fafsa_scale: unknown need level %q", k))
		}
	}
	for _, k := range sortedKeys(s.Paid) {
		if p, ok := ParsePaidStatus(k); !ok || string(p) != k {
			errs = append(errs, fmt.Sprintf("paid: unknown status %q", k))
		}
	}
	for _, k := range sortedKeys(s.InternshipType) {
		if t, ok := ParseInternshipType(k); !ok || string(t) != k {
			errs = append(errs, fmt.Sprintf("internship_type: unknown type %q", k))
		}
	}

	for name, m := range map[string]map[string]float64{
		"fafsa_scale": s.FAFSA, "paid": s.Paid, "internship_type": s.InternshipType,
	} {
		for _, k := range sortedKeys(m) {
			if m[k] < 0 {
				errs = append(errs, fmt.Sprintf("%s.%s: negative points", name, k))
			}
		}
	}

	seen := make(map[string]Tier)
	for _, t := range Tiers {
		tier := s.CostOfLiving.Tier(t)
		for _, state := range sortedKeys(tier) {
			if tier[state] < 0 {
				errs = append(errs, fmt.Sprintf("cost_of_living.%s.%s: negative points", t, state))
			}
			if prev, dup := seen[state]; dup {
				errs = append(errs, fmt.Sprintf("cost_of_living: %s is in both %s and %s", state, prev, t))
				continue
			}
			seen[state] = t
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%w: %w", ErrInvalidScale, errors.New(strings.Join(errs, "; ")))
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
