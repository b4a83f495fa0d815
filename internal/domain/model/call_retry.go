//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"strings"
	"time"
)

// DayOfTheWeek is the retry-day index. Writers of call retries and the export cycle
// must agree on it, so it is derived from the same clock in both places.
type DayOfTheWeek string

const (
	Monday    DayOfTheWeek = "MONDAY"
	Tuesday   DayOfTheWeek = "TUESDAY"
	Wednesday DayOfTheWeek = "WEDNESDAY"
	Thursday  DayOfTheWeek = "THURSDAY"
	Friday    DayOfTheWeek = "FRIDAY"
	Saturday  DayOfTheWeek = "SATURDAY"
	Sunday    DayOfTheWeek = "SUNDAY"
)

var weekdayIndex = map[time.Weekday]DayOfTheWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOfTheWeekFor maps a point in time to its retry-day index.
func DayOfTheWeekFor(t time.Time) DayOfTheWeek {
	return weekdayIndex[t.Weekday()]
}

// Valid reports whether d is one of the seven day values.
func (d DayOfTheWeek) Valid() bool {
	for _, v := range weekdayIndex {
		if v == d {
			return true
		}
	}
	return false
}

// UnmarshalText accepts day names case-insensitively.
func (d *DayOfTheWeek) UnmarshalText(text []byte) error {
	v := DayOfTheWeek(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid day of the week: %q", string(text))
	}
	*d = v
	return nil
}

// CallRetry is a previously failed call scheduled to re-enter the export on a given day.
// Its language, circle and content fields are pre-resolved when the retry is recorded.
type CallRetry struct {
	ID                   string           `json:"id"                     db:"id"`
	SubscriptionID       string           `json:"subscription_id"        db:"subscription_id"`
	MSISDN               string           `json:"msisdn"                 db:"msisdn"`
	DayOfTheWeek         DayOfTheWeek     `json:"day_of_the_week"        db:"day_of_the_week"`
	LanguageLocationCode string           `json:"language_location_code" db:"language_location_code"`
	Circle               string           `json:"circle"                 db:"circle"`
	SubscriptionMode     SubscriptionMode `json:"subscription_mode"      db:"subscription_mode"`
	ContentFileName      string           `json:"content_file_name"      db:"content_file_name"`
	WeekID               int              `json:"week_id"                db:"week_id"`
	CreatedAt            time.Time        `json:"created_at"             db:"created_at"`
}
