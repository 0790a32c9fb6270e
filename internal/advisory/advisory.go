// Package advisory implements the compliance gate consulted before any
// posting commits. Advisories attach to an account or a party with a
// severity; the gate evaluates all advisories active at posting time and
// blocks, requires acknowledgment, or lets the posting through.
package advisory

import (
	"time"
)

// Severity of an advisory. Ordering matters: the gate evaluates advisories
// most severe first.
type Severity string

const (
	SeverityRestriction Severity = "restriction"
	SeverityRequiresAck Severity = "requires_acknowledgment"
	SeverityNotice      Severity = "notice"
	SeverityInfo        Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityRestriction: 3,
	SeverityRequiresAck: 2,
	SeverityNotice:      1,
	SeverityInfo:        0,
}

// Rank returns the severity's ordering weight; unknown severities rank lowest.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Blocks reports whether this severity can stop a posting at all.
func (s Severity) Blocks() bool {
	return s == SeverityRestriction || s == SeverityRequiresAck
}

// Advisory is a compliance annotation on an account or party scope. Exactly
// one of AccountID and PartyID is set.
type Advisory struct {
	ID        string
	AccountID string
	PartyID   string
	Title     string
	Severity  Severity
	UpdatedAt time.Time

	// Active window, [EffectiveStartAt, EffectiveEndAt); either bound may be
	// nil for an open interval.
	EffectiveStartAt *time.Time
	EffectiveEndAt   *time.Time
}

// ActiveAt reports whether the advisory is in effect at the given instant.
func (a *Advisory) ActiveAt(now time.Time) bool {
	if a.EffectiveStartAt != nil && now.Before(*a.EffectiveStartAt) {
		return false
	}
	if a.EffectiveEndAt != nil && !now.Before(*a.EffectiveEndAt) {
		return false
	}
	return true
}

// Acknowledgment records that a user acknowledged an advisory. Editing the
// advisory after AcknowledgedAt invalidates the acknowledgment.
type Acknowledgment struct {
	ID             string
	AdvisoryID     string
	UserID         string
	AcknowledgedAt time.Time
}

// Covers reports whether this acknowledgment is still fresh for the advisory.
func (ack *Acknowledgment) Covers(a *Advisory) bool {
	return ack.AdvisoryID == a.ID && !ack.AcknowledgedAt.Before(a.UpdatedAt)
}
