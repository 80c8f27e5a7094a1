package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productRepos returns every ProductRepository implementation under test.
func productRepos(t *testing.T) map[string]repositories.ProductRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repositories.OpenDatabase("sqlite", dsn)
	require.NoError(t, err)
	return map[string]repositories.ProductRepository{
		"gorm":   repositories.NewGORMProductRepository(db),
		"memory": repositories.NewMockProductRepository(),
	}
}

func userRepos(t *testing.T) map[string]repositories.UserRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repositories.OpenDatabase("sqlite", dsn)
	require.NoError(t, err)
	return map[string]repositories.UserRepository{
		"gorm":   repositories.NewGORMUserRepository(db),
		"memory": repositories.NewMockUserRepository(),
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	for name, repo := range productRepos(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
			older := &models.Product{Title: "Keyboard", Price: decimal.RequireFromString("75.00"), CreatedAt: base}
			newer := &models.Product{Title: "Laptop", Price: decimal.RequireFromString("1200.50"), CreatedAt: base.Add(time.Minute)}
			require.NoError(t, repo.Create(ctx, older))
			require.NoError(t, repo.Create(ctx, newer))
			assert.NotEmpty(t, older.ID)

			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, newer.ID, all[0].ID, "newest product first")
			assert.Equal(t, older.ID, all[1].ID)

			title := "Mechanical Keyboard"
			patch := models.ProductPatch{Title: &title}
			updated, err := repo.Update(ctx, older.ID, patch.Fields())
			require.NoError(t, err)
			assert.Equal(t, title, updated.Title)
			assert.True(t, decimal.RequireFromString("75").Equal(updated.Price), "untouched columns keep their value")

			_, err = repo.Update(ctx, "missing", patch.Fields())
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			assert.Contains(t, err.Error(), "not found for update")

			require.NoError(t, repo.Delete(ctx, older.ID))
			_, err = repo.GetByID(ctx, older.ID)
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			err = repo.Delete(ctx, older.ID)
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			assert.Contains(t, err.Error(), "not found for deletion")
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	for name, repo := range userRepos(t) {
		t.Run(name, func(t *testing.T) {
			user := &models.User{Username: "admin", Email: "admin@example.com", Mobile: "99900011", Password: "hash"}
			require.NoError(t, repo.Create(ctx, user))

			byEmail, err := repo.GetByEmail(ctx, "admin@example.com")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byEmail.ID)

			byMobile, err := repo.GetByMobile(ctx, "99900011")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byMobile.ID)

			_, err = repo.GetByUsername(ctx, "nobody")
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			dup := &models.User{Username: "admin", Email: "other@example.com", Mobile: "123456", Password: "hash"}
			assert.Error(t, repo.Create(ctx, dup), "username must stay unique")

			require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
			reloaded, err := repo.GetByID(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, "new-hash", reloaded.Password)
		})
	}
}

func TestMockProductRepository_UpdateAppliesEveryColumn(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockProductRepository()
	product := &models.Product{Title: "Desk", Description: "Oak", Price: decimal.RequireFromString("99")}
	require.NoError(t, repo.Create(ctx, product))

	title, description, imageURL := "Standing Desk", "", "https://example.com/desk.png"
	price := decimal.RequireFromString("149.99")
	patch := models.ProductPatch{Title: &title, Description: &description, Price: &price, ImageURL: &imageURL}

	updated, err := repo.Update(ctx, product.ID, patch.Fields())
	require.NoError(t, err)
	assert.Equal(t, "Standing Desk", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Equal(t, imageURL, updated.ImageURL)
	assert.True(t, price.Equal(updated.Price))

	_, err = repo.Update(ctx, product.ID, map[string]interface{}{"price": "free"})
	assert.Error(t, err)
	_, err = repo.Update(ctx, product.ID, map[string]interface{}{"stock": 3})
	assert.Error(t, err)
}
