package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/clinic-invoice/migrations"
	"github.com/garyjia/clinic-invoice/pkg/database"
)

const (
	ownerA = "4f1c2a5e-8f3e-4a44-9d3b-1f5b7a1f0c11"
	ownerB = "9b2d6c1e-0000-4000-8000-000000000002"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "invoices.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrator(db, logger).Apply(context.Background(), migrations.FS, migrations.SQLiteDir)
	require.NoError(t, err)
	return sqlite.NewDB(db.DB, logger)
}

func testInvoice(owner, number string) entity.Invoice {
	return entity.Invoice{
		OwnerID:        owner,
		InvoiceNumber:  number,
		Date:           "2024-05-17",
		ClinicName:     entity.DefaultClinicName,
		ClinicAddress:  entity.DefaultClinicAddress,
		PatientName:    "Jane",
		PatientAddress: "12 Lake Road",
		PatientContact: "+91 98400 00000",
		Items: []entity.LineItem{
			{ID: 1715941800001, Description: "Routine Check-up & Cleaning", Quantity: 1, Price: 1000},
			{ID: 1715941800002, Description: "X-Rays (Bitewing)", Quantity: 2, Price: 250},
		},
		Notes:   "See you in six months.",
		TaxRate: 18,
	}
}

func TestInvoiceRepository_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t), zap.NewNop())

	stored, err := repo.Upsert(ctx, testInvoice(ownerA, "INV-000001"))
	require.NoError(t, err)
	require.NotNil(t, stored.ID)

	want := testInvoice(ownerA, "INV-000001")
	want.ID = stored.ID
	assert.Equal(t, want, *stored)

	_, err = repo.Upsert(ctx, testInvoice(ownerA, "INV-000002"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, testInvoice(ownerB, "INV-000001"))
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "INV-000001", list[0].InvoiceNumber)
	assert.Equal(t, "INV-000002", list[1].InvoiceNumber)
}

func TestInvoiceRepository_UpsertOverwritesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t), zap.NewNop())

	first, err := repo.Upsert(ctx, testInvoice(ownerA, "INV-000001"))
	require.NoError(t, err)

	changed := testInvoice(ownerA, "INV-000001")
	changed.PatientName = "Ravi"
	changed.Items = changed.Items[:1]
	second, err := repo.Upsert(ctx, changed)
	require.NoError(t, err)

	assert.Equal(t, *first.ID, *second.ID, "same row keeps its id")
	assert.Equal(t, "Ravi", second.PatientName)
	assert.Len(t, second.Items, 1)

	list, err := repo.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInvoiceRepository_NilItemsStoredAsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t), zap.NewNop())

	inv := testInvoice(ownerA, "INV-000003")
	inv.Items = nil
	stored, err := repo.Upsert(ctx, inv)
	require.NoError(t, err)

	assert.NotNil(t, stored.Items)
	assert.Empty(t, stored.Items)
}

func TestInvoiceRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(newTestDB(t), zap.NewNop())

	_, err := repo.Upsert(ctx, testInvoice(ownerA, "INV-000001"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, testInvoice(ownerB, "INV-000001"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, ownerA, "INV-000001"))
	// missing row is not an error
	require.NoError(t, repo.Delete(ctx, ownerA, "INV-999999"))

	mine, err := repo.ListByOwner(ctx, ownerA)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.ListByOwner(ctx, ownerB)
	require.NoError(t, err)
	assert.Len(t, theirs, 1, "other owners are untouched")
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t), zap.NewNop())

	t.Run("missing row means no logo", func(t *testing.T) {
		logo, err := repo.GetLogo(ctx, ownerA)
		require.NoError(t, err)
		assert.Empty(t, logo)
	})

	t.Run("upsert then overwrite", func(t *testing.T) {
		require.NoError(t, repo.UpsertLogo(ctx, ownerA, "data:image/png;base64,AAAA"))
		require.NoError(t, repo.UpsertLogo(ctx, ownerA, "data:image/png;base64,BBBB"))

		logo, err := repo.GetLogo(ctx, ownerA)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,BBBB", logo)

		other, err := repo.GetLogo(ctx, ownerB)
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}
