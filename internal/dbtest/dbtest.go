// Package dbtest provides an in-memory SQLite database for tests.
package dbtest

import (
	"testing"

	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns a migrated in-memory database that is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := config.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture is a small seeded catalog.
type Fixture struct {
	Alice, Bob        models.User
	Breakfast, Dinner models.Tag
	Eggs, Flour, Milk models.Ingredient
}

// Seed inserts two users, two tags and three ingredients.
func Seed(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()

	f := &Fixture{
		Alice:     models.User{Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "Smith", Password: "x"},
		Bob:       models.User{Email: "bob@example.com", Username: "bob", FirstName: "Bob", LastName: "Jones", Password: "x"},
		Breakfast: models.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		Dinner:    models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
		Eggs:      models.Ingredient{Name: "eggs", MeasurementUnit: "pcs"},
		Flour:     models.Ingredient{Name: "flour", MeasurementUnit: "cup"},
		Milk:      models.Ingredient{Name: "milk", MeasurementUnit: "ml"},
	}
	for _, v := range []interface{}{&f.Alice, &f.Bob, &f.Breakfast, &f.Dinner, &f.Eggs, &f.Flour, &f.Milk} {
		require.NoError(t, db.Create(v).Error)
	}
	return f
}
