package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	auth := NewAuthService(&fakeUsers{}, tokens)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, " Owner@Shop.in ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.in", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = auth.Register(ctx, "owner@shop.in", "another pass")
	assert.ErrorIs(t, err, utils.ErrEmailTaken)

	logged, _, err := auth.Login(ctx, "OWNER@shop.in", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = auth.Login(ctx, "owner@shop.in", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody@shop.in", "correct horse")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	me, err := auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
}

func TestAuthRegisterValidation(t *testing.T) {
	auth := NewAuthService(&fakeUsers{}, utils.NewTokenIssuer("s", time.Hour))

	_, _, err := auth.Register(context.Background(), "not-an-email", "longenough")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	_, _, err = auth.Register(context.Background(), "a@b.in", "short")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

type fakeShops struct {
	byOwner map[string]models.Shop
}

func (f *fakeShops) GetByOwner(_ context.Context, ownerID string) (*models.Shop, error) {
	s, ok := f.byOwner[ownerID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (f *fakeShops) Create(_ context.Context, s *models.Shop) error {
	if _, ok := f.byOwner[s.OwnerID]; ok {
		return utils.ErrShopExists
	}
	s.ID = "shop-" + s.OwnerID
	f.byOwner[s.OwnerID] = *s
	return nil
}

func TestShopOnboarding(t *testing.T) {
	shops := NewShopService(&fakeShops{byOwner: map[string]models.Shop{}})
	ctx := context.Background()

	_, err := shops.ForOwner(ctx, "u1")
	assert.ErrorIs(t, err, utils.ErrShopRequired)

	_, err = shops.Create(ctx, "u1", "  ", nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	shop, err := shops.Create(ctx, "u1", "Sharma Kirana", strPtr("  "))
	require.NoError(t, err)
	assert.Nil(t, shop.Location)

	_, err = shops.Create(ctx, "u1", "Second", nil)
	assert.ErrorIs(t, err, utils.ErrShopExists)

	got, err := shops.ForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)
}

func TestSupplierService(t *testing.T) {
	svc := NewSupplierService(&fakeSuppliers{}, "91")
	ctx := context.Background()

	_, err := svc.Create(ctx, shopS, "", nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, utils.ErrShopRequired)

	z, err := svc.Create(ctx, shopS, "Zydus", nil)
	require.NoError(t, err)
	assert.Nil(t, z.WhatsAppURL)
	_, err = svc.Create(ctx, shopS, "Amul", strPtr("98765-43210"))
	require.NoError(t, err)

	list, err := svc.List(ctx, shopS)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amul", list[0].Name)
	require.NotNil(t, list[0].WhatsAppURL)
	assert.Equal(t, "https://wa.me/919876543210", *list[0].WhatsAppURL)

	require.NoError(t, svc.Delete(ctx, shopS, z.ID))
	assert.ErrorIs(t, svc.Delete(ctx, shopS, z.ID), utils.ErrNotFound)
}

type fakePushSubs struct {
	subs []models.PushSubscription
}

func (f *fakePushSubs) ListByUser(_ context.Context, userID string) ([]models.PushSubscription, error) {
	out := []models.PushSubscription{}
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePushSubs) Create(_ context.Context, s *models.PushSubscription) error {
	s.ID = "ps1"
	f.subs = append(f.subs, *s)
	return nil
}

func (f *fakePushSubs) Delete(_ context.Context, userID, id string) error {
	for i, s := range f.subs {
		if s.ID == id && s.UserID == userID {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

func TestPushSubscriptionService(t *testing.T) {
	svc := NewPushSubscriptionService(&fakePushSubs{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", json.RawMessage(`{"keys":{}}`))
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	_, err = svc.Create(ctx, "u1", json.RawMessage(`"endpoint"`))
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	sub, err := svc.Create(ctx, "u1", json.RawMessage(`{"endpoint":"https://push.example/abc","keys":{"p256dh":"x","auth":"y"}}`))
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", sub.ID), utils.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", sub.ID))
}
