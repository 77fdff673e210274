package salestax

import (
	"context"
	"testing"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryImportService_ImportCategories(t *testing.T) {
	env := newTestEnv(t)
	codes := new(MockProductTaxCodeRepository)
	svc := NewCategoryImportService(env.configs, codes, env.gateway, zapNop())

	existing, err := salestax.NewProductTaxCode("20010", "Old name", "")
	require.NoError(t, err)

	env.gateway.On("Categories", mock.Anything, env.cfg).Return([]salestax.Category{
		{ProductTaxCode: "20010", Name: "Clothing", Description: "All human wearing apparel"},
		{ProductTaxCode: "40030", Name: "Food & Groceries", Description: "Food for humans"},
	}, nil).Once()
	codes.On("FindByCode", mock.Anything, "20010").Return(existing, nil)
	codes.On("FindByCode", mock.Anything, "40030").Return(nil, shared.ErrNotFound)
	codes.On("Save", mock.Anything, mock.MatchedBy(func(c *salestax.ProductTaxCode) bool {
		return c.Code == "20010" || c.Code == "40030"
	})).Return(nil).Twice()

	result, err := svc.ImportCategories(context.Background(), env.cfg.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "Clothing", existing.Name)
	assert.Equal(t, "All human wearing apparel", existing.Description)
	codes.AssertExpectations(t)
}

func TestCategoryImportService_TestConnection(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryImportService(env.configs, new(MockProductTaxCodeRepository), env.gateway, zapNop())

	env.gateway.On("Categories", mock.Anything, env.cfg).Return([]salestax.Category{}, nil).Once()
	result, err := svc.TestConnection(context.Background(), env.cfg.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	env.gateway.On("Categories", mock.Anything, env.cfg).
		Return(nil, &salestax.GatewayError{Method: salestax.MethodCategories, Status: "401 Unauthorized", Reason: "Not authorized"}).Once()
	result, err = svc.TestConnection(context.Background(), env.cfg.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "categories")
}
