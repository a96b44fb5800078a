// Package freshness derives expiry state from a batch's expiry date and an injected "now".
package freshness

import (
	"math"
	"time"
)

type Status string

const (
	Safe     Status = "safe"
	Expiring Status = "expiring"
	Expired  Status = "expired"
)

const DefaultWindowDays = 3

type Classification struct {
	Status        Status `json:"expiry_status"`
	DaysRemaining *int   `json:"days_until_expiry"` // Nil for non-perishables
}

type Classifier struct {
	// WindowDays is the inclusive number of days before expiry flagged as expiring.
	WindowDays int
}

func NewClassifier(windowDays int) Classifier {
	if windowDays < 0 {
		windowDays = DefaultWindowDays
	}
	return Classifier{WindowDays: windowDays}
}

func (c Classifier) Classify(expiry *time.Time, now time.Time) Classification {
	if expiry == nil {
		return Classification{Status: Safe}
	}

	days := int(math.Floor(expiry.Sub(now).Hours() / 24))
	status := Safe
	switch {
	case days < 0:
		status = Expired
	case days <= c.WindowDays:
		status = Expiring
	}
	return Classification{Status: status, DaysRemaining: &days}
}

// StartOfDay truncates t to midnight UTC, so a batch expiring today counts as expiring rather than expired.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
