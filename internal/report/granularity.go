package report

import (
	"errors"
	"strings"

	"ledger/internal/core"
)

const (
	Daily   Granularity = "Daily"
	Weekly  Granularity = "Weekly"
	Monthly Granularity = "Monthly"
	Yearly  Granularity = "Yearly"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

// Granularity is the time-bucketing resolution.
type Granularity string

// Granularities lists the resolutions from finest to coarsest.
func Granularities() []Granularity {
	return []Granularity{Daily, Weekly, Monthly, Yearly}
}

// ParseGranularity accepts the granularity name in any letter case.
func ParseGranularity(s string) (Granularity, error) {
	s = strings.TrimSpace(s)
	for _, g := range Granularities() {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", ErrUnknownGranularity
}

func (g Granularity) String() string {
	return string(g)
}

// IsValid reports whether g is one of the four known resolutions.
func (g Granularity) IsValid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// Label is the axis title used for periods of this granularity.
func (g Granularity) Label() string {
	switch g {
	case Daily:
		return "Day"
	case Weekly:
		return "Week"
	case Monthly:
		return "Month"
	case Yearly:
		return "Year"
	default:
		return ""
	}
}

// PeriodKey maps a date onto the calendar period containing it:
//
//	Daily   the date itself
//	Weekly  the Monday starting its ISO week
//	Monthly the last day of its month
//	Yearly  December 31 of its year
//
// Unknown granularities fall back to Daily.
func (g Granularity) PeriodKey(d core.Date) core.Date {
	y, m, day := d.Date()
	switch g {
	case Weekly:
		sinceMonday := (int(d.Weekday()) + 6) % 7
		return core.NewDate(y, int(m), day-sinceMonday)
	case Monthly:
		return core.NewDate(y, int(m)+1, 0)
	case Yearly:
		return core.NewDate(y, 12, 31)
	default:
		return core.NewDate(y, int(m), day)
	}
}
