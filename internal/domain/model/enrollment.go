//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// SubscriptionMode identifies the origin system of a subscription.
type SubscriptionMode string

const (
	// SubscriptionModeIVR marks subscriptions created through the IVR channel.
	SubscriptionModeIVR SubscriptionMode = "I"
	// SubscriptionModeMCTS marks subscriptions imported from MCTS.
	SubscriptionModeMCTS SubscriptionMode = "M"
)

// Valid reports whether the mode is a known code.
func (m SubscriptionMode) Valid() bool {
	return m == SubscriptionModeIVR || m == SubscriptionModeMCTS
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPendingActivation SubscriptionStatus = "PENDING_ACTIVATION"
	SubscriptionStatusActive            SubscriptionStatus = "ACTIVE"
	SubscriptionStatusDeactivated       SubscriptionStatus = "DEACTIVATED"
	SubscriptionStatusCompleted         SubscriptionStatus = "COMPLETED"
)

// Enrollment is an active subscription joined with the subscriber fields needed to build a call row.
// LanguageLocationCode is already resolved: the subscriber's own language, or the circle default.
type Enrollment struct {
	SubscriptionID       string           `json:"subscription_id"        db:"subscription_id"`
	MSISDN               string           `json:"msisdn"                 db:"msisdn"`
	PackName             string           `json:"pack_name"              db:"pack_name"`
	StartDate            time.Time        `json:"start_date"             db:"start_date"`
	LanguageLocationCode string           `json:"language_location_code" db:"language_location_code"`
	Circle               string           `json:"circle"                 db:"circle"`
	Mode                 SubscriptionMode `json:"mode"                   db:"mode"`
}

// WeekNumber returns the 1-based pack week an enrollment is in on the given day.
func (e Enrollment) WeekNumber(now time.Time) int {
	start := time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(start).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}
