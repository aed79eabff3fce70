package domain

import "time"

// CoachRequestStatus is the lifecycle state of a supervision request.
type CoachRequestStatus string

const (
	RequestPending  CoachRequestStatus = "pending"
	RequestAccepted CoachRequestStatus = "accepted"
	RequestRejected CoachRequestStatus = "rejected"
	RequestExpired  CoachRequestStatus = "expired"
)

// RequestTTL is how long a pending coach request stays valid.
const RequestTTL = 7 * 24 * time.Hour

// CoachRequest is a coach's offer to supervise an athlete. The athlete
// accepts or rejects it; stale requests are expired by a maintenance job.
type CoachRequest struct {
	ID        int64
	CoachID   int64
	AthleteID int64
	Message   string
	Status    CoachRequestStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	// Joined user info for rendering request cards.
	Coach   *User
	Athlete *User
}

// CoachNotificationType classifies events a coach can subscribe to.
type CoachNotificationType string

const (
	NotifyMeasurementAdded CoachNotificationType = "athlete_measurement_added"
	NotifyAthleteJoined    CoachNotificationType = "athlete_joined"
	NotifyAthleteLeft      CoachNotificationType = "athlete_left"
)

// AllCoachNotificationTypes lists the toggleable preference rows in a
// stable UI order.
var AllCoachNotificationTypes = []CoachNotificationType{
	NotifyMeasurementAdded,
	NotifyAthleteJoined,
	NotifyAthleteLeft,
}

// CoachNotificationPref is a coach's per-type opt-in. A type without a
// stored row counts as enabled.
type CoachNotificationPref struct {
	ID        int64
	CoachID   int64
	Type      CoachNotificationType
	Enabled   bool
	CreatedAt time.Time
}

// CoachNotification is a queued message for a coach, delivered by the
// scheduler on its next tick and retained as history after sending.
type CoachNotification struct {
	ID            int64
	CoachID       int64
	AthleteID     int64
	Type          CoachNotificationType
	Message       string
	MeasurementID int64 // 0 when not tied to a measurement
	ScheduledAt   time.Time
	Sent          bool
	SentAt        *time.Time
	CreatedAt     time.Time
	// Joined coach chat id for delivery.
	CoachChatID int64
}
