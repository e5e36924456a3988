package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apontamento/backend/pkg/models"
)

func TestCatalogService_Employees(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateEmployee(ctx, models.Employee{Code: "F007", Name: "Outra"})
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = e.catalog.CreateEmployee(ctx, models.Employee{Code: "G1", Name: "Chefe", Role: "admin"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = e.catalog.CreateEmployee(ctx, models.Employee{Code: "G1", Name: "Chefe", Email: "not-an-email"})
	assert.ErrorIs(t, err, models.ErrValidation)

	boss, err := e.catalog.CreateEmployee(ctx, models.Employee{Code: "G1", Name: "Chefe", Email: "Chefe@Fabrica.test", Role: models.RoleGestor})
	require.NoError(t, err)
	assert.Equal(t, "chefe@fabrica.test", boss.Email)

	e.clock.advance(time.Hour)
	updated, err := e.catalog.UpdateEmployee(ctx, boss.ID, models.Employee{Code: "G1", Name: "Chefe Geral", Role: models.RoleGestor})
	require.NoError(t, err)
	assert.Equal(t, boss.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(boss.UpdatedAt))

	require.NoError(t, e.catalog.DeleteEmployee(ctx, boss.ID))
	_, err = e.catalog.GetEmployee(ctx, boss.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCatalogService_ReferencedDeletes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newOrder(t)

	products, err := e.catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.ErrorIs(t, e.catalog.DeleteProduct(ctx, products[0].ID), models.ErrConflict)
	assert.ErrorIs(t, e.catalog.DeleteEmployee(ctx, e.worker.ID), models.ErrConflict)
}

func TestCatalogService_SectorsAndProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.CreateSector(ctx, models.Sector{})
	assert.ErrorIs(t, err, models.ErrValidation)

	sector, err := e.catalog.CreateSector(ctx, models.Sector{Name: "Costura"})
	require.NoError(t, err)

	_, err = e.catalog.CreateProduct(ctx, models.Product{Code: "CAL-02", Name: "Calça", SectorID: &sector.ID})
	require.NoError(t, err)
	missing := int64(77)
	_, err = e.catalog.CreateProduct(ctx, models.Product{Code: "CAL-03", Name: "Calça", SectorID: &missing})
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.ErrorIs(t, e.catalog.DeleteSector(ctx, sector.ID), models.ErrConflict)

	renamed, err := e.catalog.UpdateSector(ctx, sector.ID, models.Sector{Name: "Costura Fina"})
	require.NoError(t, err)
	assert.Equal(t, "Costura Fina", renamed.Name)

	_, err = e.catalog.UpdateSector(ctx, 999, models.Sector{Name: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
