package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/application/inventory"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
)

func newQueryEnv(t *testing.T) (*movementEnv, *inventory.StockQueryUseCase) {
	t.Helper()
	env := newMovementEnv(t)
	uc := inventory.NewStockQueryUseCase(
		env.store.StockLevelRepository(),
		env.store.StockMovementRepository(),
	)
	return env, uc
}

// Un par (bodega, ítem) jamás movido responde fila en cero, no error.
func TestStockQuery_ParInexistenteEsCero(t *testing.T) {
	env, uc := newQueryEnv(t)

	level, err := uc.GetLevel(context.Background(), env.warehouse.ID, "ITEM-FANTASMA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), level.QuantityOnHand)
	assert.Equal(t, int64(0), level.Available)
}

func TestStockQuery_GetLevelValidaEntrada(t *testing.T) {
	_, uc := newQueryEnv(t)

	_, err := uc.GetLevel(context.Background(), "", "ITEM-X")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.GetLevel(context.Background(), "wh", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockQuery_ListLevels(t *testing.T) {
	env, uc := newQueryEnv(t)
	seed := map[string]int64{"ITEM-A": 3, "ITEM-B": 12, "ITEM-C": 7}
	for itemID, qty := range seed {
		_, err := env.uc.RegisterMovement(context.Background(), inventory.MovementInput{
			WarehouseID: env.warehouse.ID, ItemID: itemID, Type: entity.MovementTypeIN, Quantity: qty,
		})
		require.NoError(t, err)
	}

	levels, err := uc.ListLevels(context.Background(), env.warehouse.ID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, levels, 3)
	for _, l := range levels {
		assert.Equal(t, seed[l.ItemID], l.QuantityOnHand)
	}
}

// La vista de stock bajo usa el umbral del request o 5 por defecto, con corte
// inclusivo.
func TestStockQuery_StockBajo(t *testing.T) {
	env, uc := newQueryEnv(t)
	for itemID, qty := range map[string]int64{"ITEM-A": 2, "ITEM-B": 5, "ITEM-C": 6, "ITEM-D": 40} {
		_, err := env.uc.RegisterMovement(context.Background(), inventory.MovementInput{
			WarehouseID: env.warehouse.ID, ItemID: itemID, Type: entity.MovementTypeIN, Quantity: qty,
		})
		require.NoError(t, err)
	}

	// Umbral por defecto (5): A y B entran, C y D no
	low, err := uc.ListLowStock(context.Background(), env.warehouse.ID, 0, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "ITEM-A", low[0].ItemID)
	assert.Equal(t, "ITEM-B", low[1].ItemID)

	// Umbral explícito
	low, err = uc.ListLowStock(context.Background(), env.warehouse.ID, 6, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, low, 3)
}

// El ledger se consulta más reciente primero y filtra por ítem.
func TestStockQuery_ListMovementsFiltraPorItem(t *testing.T) {
	env, uc := newQueryEnv(t)
	env.register(t, entity.MovementTypeIN, 10)
	env.register(t, entity.MovementTypeOUT, 2)
	_, err := env.uc.RegisterMovement(context.Background(), inventory.MovementInput{
		WarehouseID: env.warehouse.ID, ItemID: "ITEM-OTRO", Type: entity.MovementTypeIN, Quantity: 1,
	})
	require.NoError(t, err)

	movs, err := uc.ListMovements(context.Background(), dto.LedgerQuery{
		WarehouseID: env.warehouse.ID,
		ItemID:      "ITEM-CAFE-250",
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type, "más reciente primero")
	assert.Equal(t, entity.MovementTypeIN, movs[1].Type)
}

func TestStockQuery_ListMovementsFechaInvalida(t *testing.T) {
	_, uc := newQueryEnv(t)

	_, err := uc.ListMovements(context.Background(), dto.LedgerQuery{From: "ayer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ListMovements(context.Background(), dto.LedgerQuery{To: "2026/01/01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
