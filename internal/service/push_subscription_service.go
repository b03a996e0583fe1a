package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// PushSubscriptionStore persists browser push subscriptions.
type PushSubscriptionStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	Create(ctx context.Context, s *models.PushSubscription) error
	Delete(ctx context.Context, userID, id string) error
}

// PushSubscriptionService stores push endpoints for later delivery.
type PushSubscriptionService struct {
	repo PushSubscriptionStore
}

// NewPushSubscriptionService creates a PushSubscriptionService.
func NewPushSubscriptionService(repo PushSubscriptionStore) *PushSubscriptionService {
	return &PushSubscriptionService{repo: repo}
}

// Create stores a subscription object as produced by the browser Push API.
func (s *PushSubscriptionService) Create(ctx context.Context, userID string, raw json.RawMessage) (*models.PushSubscription, error) {
	var probe struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Endpoint == "" {
		return nil, fmt.Errorf("%w: subscription must be an object with an endpoint", utils.ErrInvalidInput)
	}
	sub := &models.PushSubscription{UserID: userID, Subscription: raw}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// List returns the user's subscriptions.
func (s *PushSubscriptionService) List(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes one of the user's subscriptions.
func (s *PushSubscriptionService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
