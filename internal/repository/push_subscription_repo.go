package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// PushSubscriptionRepository handles data access for push_subscriptions.
type PushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository creates a new PushSubscriptionRepository.
func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// ListByUser returns the user's subscriptions, newest first.
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	const q = `
        SELECT id, user_id, subscription, created_at FROM push_subscriptions
        WHERE user_id = $1 ORDER BY created_at DESC`

	subs := []models.PushSubscription{}
	if err := r.db.SelectContext(ctx, &subs, q, userID); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

// Create stores a subscription and fills its generated columns.
func (r *PushSubscriptionRepository) Create(ctx context.Context, s *models.PushSubscription) error {
	const q = `
        INSERT INTO push_subscriptions (user_id, subscription)
        VALUES ($1, $2)
        RETURNING id, created_at`

	if err := r.db.QueryRowxContext(ctx, q, s.UserID, []byte(s.Subscription)).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert push subscription: %w", err)
	}
	return nil
}

// Delete removes one of the user's subscriptions.
func (r *PushSubscriptionRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", invalidID(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrNotFound
	}
	return nil
}
