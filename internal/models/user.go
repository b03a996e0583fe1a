package models

import (
	"encoding/json"
	"time"
)

// User is an authenticated identity that may own a shop.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// PushSubscription stores a browser push endpoint registered by a user.
type PushSubscription struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"userId"`
	Subscription json.RawMessage `db:"subscription" json:"subscription"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}
