package rubric

import (
	"fmt"
	"strconv"
	"strings"
)

// NeedLevel is a financial need classification used as a key of Scale.FAFSA.
type NeedLevel string

// Need levels, highest need first.
const (
	NeedVeryHigh NeedLevel = "very_high_need"
	NeedHigh     NeedLevel = "high_need"
	NeedModerate NeedLevel = "moderate_need"
	NeedLow      NeedLevel = "low_need"
	NeedNone     NeedLevel = "no_need"
)

// NeedLevels lists every need level in descending order of need.
var NeedLevels = []NeedLevel{NeedVeryHigh, NeedHigh, NeedModerate, NeedLow, NeedNone}

var needAliases = map[string]NeedLevel{
	"veryhighneed": NeedVeryHigh,
	"highneed":     NeedHigh,
	"moderateneed": NeedModerate,
	"lowneed":      NeedLow,
	"noneed":       NeedNone,
}

// ParseNeedLevel maps free text such as "Very High Need" or "very_high_need"
// to a NeedLevel. Whitespace, underscores and hyphens are ignored.
func ParseNeedLevel(s string) (NeedLevel, bool) {
	n, ok := needAliases[squash(s)]
	return n, ok
}

// PaidStatus says whether the internship is paid.
type PaidStatus string

// Paid statuses.
const (
	Paid   PaidStatus = "paid"
	Unpaid PaidStatus = "unpaid"
)

// ParsePaidStatus maps "Paid"/"Unpaid" (any case) to a PaidStatus.
func ParsePaidStatus(s string) (PaidStatus, bool) {
	switch PaidStatus(strings.ToLower(strings.TrimSpace(s))) {
	case Paid:
		return Paid, true
	case Unpaid:
		return Unpaid, true
	}
	return "", false
}

// InternshipType is the work modality of the internship.
type InternshipType string

// Internship types.
const (
	InPerson InternshipType = "in_person"
	Hybrid   InternshipType = "hybrid"
	Virtual  InternshipType = "virtual"
)

var typeAliases = map[string]InternshipType{
	"inperson": InPerson,
	"hybrid":   Hybrid,
	"virtual":  Virtual,
}

// ParseInternshipType maps "In-Person", "in_person", "Hybrid" and friends to an InternshipType.
func ParseInternshipType(s string) (InternshipType, bool) {
	t, ok := typeAliases[squash(s)]
	return t, ok
}

// Tier is a cost of living bucket. Higher tiers mean more expensive locations.
type Tier int

// Cost of living tiers.
const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// Tiers lists the tiers in scan order.
var Tiers = []Tier{Tier1, Tier2, Tier3}

// DefaultPoints returns the points a state is given when moved into t
// without an explicit value.
func (t Tier) DefaultPoints() float64 {
	switch t {
	case Tier1:
		return 1
	case Tier2:
		return 3
	case Tier3:
		return 5
	}
	return 0
}

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool { return t >= Tier1 && t <= Tier3 }

func (t Tier) String() string { return "tier" + strconv.Itoa(int(t)) }

// ParseTier accepts "1", "tier1" or "Tier 1".
func ParseTier(s string) (Tier, error) {
	v := strings.TrimPrefix(squash(s), "tier")
	n, err := strconv.Atoi(v)
	if err != nil || !Tier(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return Tier(n), nil
}

// squash lowercases s and drops whitespace, underscores and hyphens.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
