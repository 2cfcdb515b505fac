package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc
}

func TestServiceCreate_DefaultsAndTrimming(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	svc := newTestService(t, repo)
	ctx := context.Background()

	hookURL := "  https://hooks.example.com/deliver  "
	product, err := svc.Create(ctx, CreateInput{
		Name:    "  Gift Card  ",
		Price:   decimal.RequireFromString("9.90"),
		HookURL: &hookURL,
	})
	require.NoError(t, err)
	assert.Equal(t, "Gift Card", product.Name)
	assert.Equal(t, 1, product.UnitCount)
	assert.True(t, product.IsActive)
	require.NotNil(t, product.HookURL)
	assert.Equal(t, "https://hooks.example.com/deliver", *product.HookURL)

	stored, err := repo.FindActiveByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, stored.ID)
}

func TestServiceCreate_Validation(t *testing.T) {
	svc := newTestService(t, NewRepository(setupProductsTestDB(t)))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "  ", Price: decimal.RequireFromString("1.00")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{Name: "Gift Card", Price: decimal.RequireFromString("-1.00")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceSetHookURL_SetsAndClears(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	svc := newTestService(t, repo)
	ctx := context.Background()

	product := mustCreateProduct(t, repo, true)

	url := "https://hooks.example.com/deliver"
	require.NoError(t, svc.SetHookURL(ctx, product.ID, &url))
	stored, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.HookURL)
	assert.Equal(t, url, *stored.HookURL)

	blank := "   "
	require.NoError(t, svc.SetHookURL(ctx, product.ID, &blank))
	stored, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.HookURL)
}

func TestServiceSetHookURL_UnknownProduct(t *testing.T) {
	svc := newTestService(t, NewRepository(setupProductsTestDB(t)))

	url := "https://hooks.example.com/deliver"
	err := svc.SetHookURL(context.Background(), uuid.New(), &url)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
