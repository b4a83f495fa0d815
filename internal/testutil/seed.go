package testutil

import (
	"context"
	"database/sql"
	"time"
)

// SubscriptionSeed describes one subscriber plus subscription row pair.
// Zero values fall back to an active "pack-72" mobile-academy style subscription.
type SubscriptionSeed struct {
	MSISDN       string
	LanguageCode *string
	Circle       string
	PackName     string
	Mode         string
	Status       string
	StartDate    time.Time
	CreatedAt    time.Time
}

// RetrySeed describes one call_retries row.
type RetrySeed struct {
	SubscriptionID       string
	MSISDN               string
	DayOfTheWeek         string
	LanguageLocationCode string
	Circle               string
	SubscriptionMode     string
	ContentFileName      string
	WeekID               int
	CreatedAt            time.Time
}

// InsertCircleLanguage records a language for a circle.
func InsertCircleLanguage(t TestingTB, db *sql.DB, circle, languageCode string, isDefault bool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO circle_languages (circle, language_code, is_default) VALUES ($1, $2, $3)`,
		circle, languageCode, isDefault,
	); err != nil {
		t.Fatalf("insert circle language %s/%s: %v", circle, languageCode, err)
	}
}

// InsertSubscription creates a subscriber and a subscription and returns the subscription id.
func InsertSubscription(t TestingTB, db *sql.DB, seed SubscriptionSeed) string {
	t.Helper()

	if seed.Circle == "" {
		seed.Circle = "DL"
	}
	if seed.PackName == "" {
		seed.PackName = "pack-72"
	}
	if seed.Mode == "" {
		seed.Mode = "I"
	}
	if seed.Status == "" {
		seed.Status = "ACTIVE"
	}
	if seed.StartDate.IsZero() {
		seed.StartDate = TestTime().AddDate(0, 0, -14)
	}
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = TestTime()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var subscriberID string
	if err := db.QueryRowContext(ctx,
		`INSERT INTO subscribers (msisdn, language_code, circle, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		seed.MSISDN, seed.LanguageCode, seed.Circle, seed.CreatedAt,
	).Scan(&subscriberID); err != nil {
		t.Fatalf("insert subscriber %s: %v", seed.MSISDN, err)
	}

	var subscriptionID string
	if err := db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (subscriber_id, pack_name, mode, status, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		subscriberID, seed.PackName, seed.Mode, seed.Status, seed.StartDate, seed.CreatedAt,
	).Scan(&subscriptionID); err != nil {
		t.Fatalf("insert subscription for %s: %v", seed.MSISDN, err)
	}
	return subscriptionID
}

// InsertCallRetry records a retry row and returns its id.
func InsertCallRetry(t TestingTB, db *sql.DB, seed RetrySeed) string {
	t.Helper()

	if seed.SubscriptionMode == "" {
		seed.SubscriptionMode = "I"
	}
	if seed.WeekID == 0 {
		seed.WeekID = 1
	}
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = TestTime()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx, `
		INSERT INTO call_retries (
			subscription_id, msisdn, day_of_the_week, language_location_code, circle,
			subscription_mode, content_file_name, week_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		seed.SubscriptionID, seed.MSISDN, seed.DayOfTheWeek, seed.LanguageLocationCode, seed.Circle,
		seed.SubscriptionMode, seed.ContentFileName, seed.WeekID, seed.CreatedAt,
	).Scan(&id); err != nil {
		t.Fatalf("insert call retry for %s: %v", seed.MSISDN, err)
	}
	return id
}
