package domain

import "fmt"

// ListingStatus enumerates the lifecycle states of a listing. Values are
// persisted as short strings in the listings.status column.
type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingQueued    ListingStatus = "queued"
	ListingActive    ListingStatus = "active"
	ListingZombie    ListingStatus = "zombie"
	ListingPurgatory ListingStatus = "purgatory"
	ListingSold      ListingStatus = "sold"
	ListingEnded     ListingStatus = "ended"
)

// statusTransitions is the closed transition DAG. A listing may only move
// along these edges; anything else is rejected by Transition.
var statusTransitions = map[ListingStatus][]ListingStatus{
	ListingDraft:     {ListingQueued},
	ListingQueued:    {ListingActive},
	ListingActive:    {ListingZombie, ListingSold, ListingEnded},
	ListingZombie:    {ListingActive, ListingPurgatory},
	ListingPurgatory: {ListingSold, ListingEnded},
}

// CanTransition reports whether the status change from -> to is allowed.
// A no-op transition (from == to) is always allowed.
func CanTransition(from, to ListingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the listing to the given status, rejecting edges outside
// the lifecycle DAG.
func (l *Listing) Transition(to ListingStatus) error {
	if !CanTransition(l.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, to)
	}
	l.Status = to
	return nil
}

// QueueStatus enumerates the lifecycle of a SmartQueue entry.
type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueueReleased  QueueStatus = "released"
	QueueFailed    QueueStatus = "failed"
	QueueCancelled QueueStatus = "cancelled"
)

// ZombieAction enumerates what was done about a detected zombie.
type ZombieAction string

const (
	ZombieFlagged          ZombieAction = "flagged"
	ZombieResurrected      ZombieAction = "resurrected"
	ZombiePurgatored       ZombieAction = "purgatored"
	ZombiePreventiveRelist ZombieAction = "preventive_relist"
)

// OfferStatus enumerates the states of an outbound or inbound offer record.
type OfferStatus string

const (
	OfferSent     OfferStatus = "sent"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

// CampaignType distinguishes auto-created kickstarter campaigns from
// manually managed ones.
type CampaignType string

const (
	CampaignKickstarter CampaignType = "kickstarter"
	CampaignManual      CampaignType = "manual"
)

// CampaignStatus enumerates promoted-listings campaign states.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignEnded     CampaignStatus = "ended"
	CampaignCancelled CampaignStatus = "cancelled"
)

// JobStatus enumerates scheduler job run outcomes.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

// STRSource tags where a sell-through rate figure came from.
type STRSource string

const (
	STRManual    STRSource = "manual"
	STRAPI       STRSource = "api"
	STREstimated STRSource = "estimated"
)
