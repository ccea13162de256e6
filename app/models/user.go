// Package models defines user, subscription and payment records.
package models

import "time"

type Plan string

const (
	PlanFree  Plan = "FREE"
	PlanTrial Plan = "TRIAL"
	PlanPro   Plan = "PRO"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
)

type User struct {
	ID        string    `db:"id" json:"userId"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"-"`

	// Joined from subscriptions; defaults to FREE when no row exists.
	Plan   Plan               `db:"plan" json:"plan"`
	Status SubscriptionStatus `db:"status" json:"-"`
}

type Subscription struct {
	UserID   string             `db:"user_id"`
	Plan     Plan               `db:"plan"`
	Status   SubscriptionStatus `db:"status"`
	StartsAt time.Time          `db:"starts_at"`
	EndsAt   *time.Time         `db:"ends_at"`
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
)

type Payment struct {
	ID        string        `db:"id"`
	UserID    string        `db:"user_id"`
	OrderID   string        `db:"order_id"`
	PaymentID string        `db:"payment_id"`
	Amount    int64         `db:"amount"`
	Currency  string        `db:"currency"`
	Status    PaymentStatus `db:"status"`
}
