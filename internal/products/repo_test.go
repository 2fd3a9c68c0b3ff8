package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  size TEXT,
  color TEXT,
  category TEXT,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	t.Cleanup(func() {
		db.Exec("DROP TABLE products")
	})
	return db
}

func seedProduct(t *testing.T, repo Repository, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Tee",
		Price: decimal.NewFromInt(25),
		Stock: stock,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestDecrementStock_subtractsQuantity(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	product := seedProduct(t, repo, 10)

	require.NoError(t, repo.DecrementStock(context.Background(), product.ID, 7))

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Stock)
}

func TestDecrementStock_clampsAtZero(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	product := seedProduct(t, repo, 5)

	require.NoError(t, repo.DecrementStock(context.Background(), product.ID, 7))

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock)

	// Another decrement on an empty shelf stays at zero.
	require.NoError(t, repo.DecrementStock(context.Background(), product.ID, 1))
	found, err = repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock)
}

func TestDecrementStock_unknownProduct(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))

	err := repo.DecrementStock(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductsRepo_updateAndDelete(t *testing.T) {
	repo := NewRepository(setupProductsTestDB(t))
	product := seedProduct(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, product.ID, map[string]any{"name": "Hoodie"}))
	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hoodie", found.Name)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
