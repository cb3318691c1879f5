package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

func TestStorage_Lots(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	central := factory.CreateLot(t, "Central")
	north := factory.CreateLot(t, "Norte")

	_, err := storage.GetLot(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrLotNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)

	found, err := storage.FindLotByName(ctx, "central")
	require.NoError(t, err)
	assert.Equal(t, central, found.ID)

	updated, err := storage.UpdateLotState(ctx, central, models.LotStateUpdate{
		FreeSpots:      models.DescriptorReportedByUsers,
		HasSpots:       true,
		OccupancyLabel: models.LabelReportedByUsers,
		UpdatedAt:      "2025-03-10 12:30:00",
	})
	require.NoError(t, err)
	assert.True(t, updated.HasSpots)
	assert.Equal(t, models.DescriptorReportedByUsers, updated.FreeSpots)

	_, err = storage.UpdateLotState(ctx, north, models.LotStateUpdate{
		FreeSpots: "10-15", HasSpots: true, UpdatedAt: "2025-03-10 13:00:00",
	})
	require.NoError(t, err)

	available, err := storage.ListLotsWithSpots(ctx)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, north, available[0].ID)
	assert.Equal(t, central, available[1].ID)
}

func TestStorage_Reports(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	lotID := factory.CreateLot(t, "Central")
	factory.CreateReport(t, lotID, "d1", "2025-03-10 11:00:00")
	factory.CreateReport(t, lotID, "d2", "2025-03-10 11:05:00")

	dup, err := storage.HasUnprocessedReport(ctx, lotID, "d1")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = storage.HasUnprocessedReport(ctx, lotID, "d3")
	require.NoError(t, err)
	assert.False(t, dup)

	count, err := storage.CountUnprocessedReports(ctx, lotID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	reports, err := storage.ListUnprocessedByReporter(ctx, "d2")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, lotID, reports[0].LotID)

	closed, err := storage.CloseReports(ctx, lotID)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	count, err = storage.CountUnprocessedReports(ctx, lotID)
	require.NoError(t, err)
	assert.Zero(t, count)

	reports, err = storage.ListUnprocessedByReporter(ctx, "d2")
	require.NoError(t, err)
	assert.Empty(t, reports)

	closed, err = storage.CloseReports(ctx, lotID)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestStorage_Subscriptions(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	lotA := factory.CreateLot(t, "A")
	lotB := factory.CreateLot(t, "B")

	factory.CreateSubscription(t, "d1", strPtr(lotA), "2025-03-10 10:00:00")
	factory.CreateSubscription(t, "d1", strPtr(lotB), "2025-03-10 10:01:00")
	factory.CreateSubscription(t, "d2", nil, "2025-03-10 10:02:00")
	factory.CreateSubscription(t, "d3", strPtr(lotB), "2025-03-10 10:03:00")

	t.Run("повторная активная подписка отклоняется", func(t *testing.T) {
		err := storage.CreateSubscription(ctx, models.Subscription{
			ID: "dup", DriverID: "d2", SubscribedAt: testNow, Active: true,
		})
		assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
	})

	t.Run("поиск подписки на все парковки", func(t *testing.T) {
		sub, err := storage.FindActiveSubscription(ctx, "d2", nil)
		require.NoError(t, err)
		assert.True(t, sub.IsWildcard())

		_, err = storage.FindActiveSubscription(ctx, "d1", nil)
		assert.ErrorIs(t, err, models.ErrSubscriptionNotFound)
	})

	t.Run("получатели включают подписчиков на все парковки", func(t *testing.T) {
		ids, err := storage.ListSubscriberIDs(ctx, lotB)
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2", "d3"}, ids)

		ids, err = storage.ListSubscriberIDs(ctx, lotA)
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2"}, ids)
	})

	t.Run("отписка", func(t *testing.T) {
		ok, err := storage.DeactivateSubscription(ctx, "d3", strPtr(lotB))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = storage.DeactivateSubscription(ctx, "d3", strPtr(lotB))
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := storage.DeactivateSpecificSubscriptions(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		subs, err := storage.ListActiveSubscriptions(ctx, "d1")
		require.NoError(t, err)
		assert.Empty(t, subs)

		n, err = storage.DeactivateAllSubscriptions(ctx, "d2")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	factory.CreateUser(t, "573001112233", "ABC123")
	factory.CreateUser(t, "573004445566", "")

	exists, err := storage.ReferralCodeExists(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, exists)

	err = storage.SetReferralCode(ctx, "573004445566", "ABC123")
	assert.ErrorIs(t, err, models.ErrReferralCodeTaken)

	require.NoError(t, storage.SetReferralCode(ctx, "573004445566", "XYZ789"))

	referrer, err := storage.FindUserByReferralCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "573001112233", referrer.ID)

	require.NoError(t, storage.SetReferredBy(ctx, "573004445566", "ABC123"))
	require.NoError(t, storage.IncrementReferralCount(ctx, referrer.ID))
	require.NoError(t, storage.ActivatePremium(ctx, referrer.ID, "2025-03-17 12:00:00"))

	u, err := storage.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ReferralCount)
	assert.True(t, u.IsPremium)
	assert.Equal(t, "2025-03-17 12:00:00", u.PremiumExpiration)

	require.NoError(t, storage.RevokePremium(ctx, referrer.ID))
	u, err = storage.GetUser(ctx, referrer.ID)
	require.NoError(t, err)
	assert.False(t, u.IsPremium)
	assert.Empty(t, u.PremiumExpiration)

	err = storage.IncrementReferralCount(ctx, "unknown")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestStorage_ManagedLot(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	lotA := factory.CreateLot(t, "Central")
	lotB := factory.CreateLot(t, "Norte")
	require.NoError(t, storage.CreateUser(ctx, models.User{
		ID: "m1", Role: models.RoleManager, PasswordHash: "hash", CreatedAt: testNow,
	}))
	require.NoError(t, storage.CreateUser(ctx, models.User{
		ID: "m2", Role: models.RoleManager, PasswordHash: "hash", CreatedAt: testNow,
	}))

	err := storage.CreateUser(ctx, models.User{ID: "m1", CreatedAt: testNow})
	assert.ErrorIs(t, err, models.ErrUserExists)

	require.NoError(t, storage.SetManagedLot(ctx, "m1", lotA))
	assert.ErrorIs(t, storage.SetManagedLot(ctx, "m1", lotB), models.ErrManagerHasLot)
	assert.ErrorIs(t, storage.SetManagedLot(ctx, "m2", "missing"), models.ErrLotNotFound)
	assert.ErrorIs(t, storage.SetManagedLot(ctx, "ghost", lotB), models.ErrUserNotFound)

	u, err := storage.GetUser(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, lotA, u.ManagedLotID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, models.RoleManager, u.Role)
}

func TestStorage_SetReferredByOnce(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	factory.CreateUser(t, "573001112233", "ABC123")
	require.NoError(t, storage.SetReferredBy(ctx, "573001112233", "XYZ789"))

	err := storage.SetReferredBy(ctx, "573001112233", "XYZ789")
	assert.ErrorIs(t, err, models.ErrAlreadyReferred)

	err = storage.SetReferredBy(ctx, "unknown", "XYZ789")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
