package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/parking-assistant/internal/migrations"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

const testNow = "2025-03-10 12:00:00"

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateLot создает парковку без свободных мест
func (f *TestDataFactory) CreateLot(t *testing.T, name string) string {
	id := uuid.NewString()
	err := f.storage.CreateLot(context.Background(), models.Lot{
		ID:        id,
		Name:      name,
		Address:   "Calle 10 #5-20",
		Capacity:  40,
		FreeSpots: "0",
		UpdatedAt: testNow,
	})
	require.NoError(t, err)
	return id
}

// CreateUser создает водителя
func (f *TestDataFactory) CreateUser(t *testing.T, id, referralCode string) {
	err := f.storage.CreateUser(context.Background(), models.User{
		ID:           id,
		Name:         "driver " + id,
		Role:         models.RoleDriver,
		ReferralCode: referralCode,
		CreatedAt:    testNow,
	})
	require.NoError(t, err)
}

// CreateReport создает необработанный отчет
func (f *TestDataFactory) CreateReport(t *testing.T, lotID, reporterID, reportedAt string) {
	err := f.storage.CreateReport(context.Background(), models.Report{
		ID:         uuid.NewString(),
		LotID:      lotID,
		ReporterID: reporterID,
		Type:       models.ReportTypeSpotsAvailable,
		ReportedAt: reportedAt,
	})
	require.NoError(t, err)
}

// CreateSubscription создает активную подписку
func (f *TestDataFactory) CreateSubscription(t *testing.T, driverID string, lotID *string, subscribedAt string) {
	err := f.storage.CreateSubscription(context.Background(), models.Subscription{
		ID:           uuid.NewString(),
		DriverID:     driverID,
		LotID:        lotID,
		SubscribedAt: subscribedAt,
		Active:       true,
	})
	require.NoError(t, err)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

func strPtr(s string) *string {
	return &s
}
