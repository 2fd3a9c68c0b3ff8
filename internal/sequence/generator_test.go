package sequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS sequences (
  name TEXT PRIMARY KEY,
  value INTEGER NOT NULL DEFAULT 0
);`
	require.NoError(t, db.Exec(schema).Error)
	t.Cleanup(func() {
		db.Exec("DROP TABLE sequences")
	})
	return db
}

func TestNextDisplayID_incrementsMonotonically(t *testing.T) {
	db := setupSequenceTestDB(t)
	require.NoError(t, db.Exec("INSERT INTO sequences (name, value) VALUES (?, 0)", Orders).Error)
	ctx := context.Background()

	first, err := NextDisplayID(ctx, db, Orders)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", first)

	second, err := NextDisplayID(ctx, db, Orders)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0002", second)
}

func TestNextDisplayID_seedsMissingSequence(t *testing.T) {
	db := setupSequenceTestDB(t)
	ctx := context.Background()

	id, err := NextDisplayID(ctx, db, "invoices")
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", id)

	id, err = NextDisplayID(ctx, db, "invoices")
	require.NoError(t, err)
	assert.Equal(t, "ORD-0002", id)
}

func TestFormat_padsToFourDigits(t *testing.T) {
	assert.Equal(t, "ORD-0007", Format(7))
	assert.Equal(t, "ORD-0123", Format(123))
	assert.Equal(t, "ORD-12345", Format(12345))
}
