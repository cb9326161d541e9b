package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
	"github.com/tu-usuario/pos-backend/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones por snapshot
// ──────────────────────────────────────────────────────────────────────────────

// Si fn falla, todo lo escrito dentro de la transacción desaparece.
func TestStore_RunRevierteEnError(t *testing.T) {
	store := memory.NewStore()
	errBoom := errors.New("boom")

	err := store.Run(context.Background(), func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error {
		require.NoError(t, levelRepo.Upsert(&entity.StockLevel{
			WarehouseID: "W1", ItemID: "I1", QuantityOnHand: 9,
		}))
		require.NoError(t, movRepo.Create(&entity.StockMovement{
			ID: uuid.New().String(), WarehouseID: "W1", ItemID: "I1",
			Type: entity.MovementTypeIN, QuantityDelta: 9,
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	level, getErr := store.StockLevelRepository().Get("W1", "I1")
	require.NoError(t, getErr)
	assert.Equal(t, int64(0), level.QuantityOnHand, "el upsert se revirtió")
	sum, sumErr := store.StockMovementRepository().SumDeltas("W1", "I1")
	require.NoError(t, sumErr)
	assert.Equal(t, int64(0), sum, "el movimiento se revirtió")
}

func TestStore_RunConfirmaEnExito(t *testing.T) {
	store := memory.NewStore()

	err := store.Run(context.Background(), func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error {
		return levelRepo.Upsert(&entity.StockLevel{WarehouseID: "W1", ItemID: "I1", QuantityOnHand: 4})
	})
	require.NoError(t, err)

	level, getErr := store.StockLevelRepository().Get("W1", "I1")
	require.NoError(t, getErr)
	assert.Equal(t, int64(4), level.QuantityOnHand)
}

// RunCheckout revierte venta y líneas junto con el resto del estado.
func TestStore_RunCheckoutRevierteVenta(t *testing.T) {
	store := memory.NewStore()
	errBoom := errors.New("boom")
	saleID := uuid.New().String()

	err := store.RunCheckout(context.Background(), func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		require.NoError(t, saleRepo.Create(&entity.Sale{
			ID: saleID, WarehouseID: "W1",
			Subtotal: decimal.Zero, Discount: decimal.Zero, Total: decimal.Zero,
			CreatedAt: time.Now(),
		}))
		require.NoError(t, saleRepo.CreateItem(&entity.SaleItem{
			ID: uuid.New().String(), SaleID: saleID, ItemID: "I1",
			Quantity: 1, UnitPrice: decimal.New(10, 0), LineTotal: decimal.New(10, 0),
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	sale, getErr := store.SaleRepository().GetByID(saleID)
	require.NoError(t, getErr)
	assert.Nil(t, sale, "la venta se revirtió")
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_WarehouseDuplicado(t *testing.T) {
	store := memory.NewStore()
	repo := store.WarehouseRepository()

	require.NoError(t, repo.Create(&entity.Warehouse{ID: "W1", Name: "Central", Slug: "central"}))
	err := repo.Create(&entity.Warehouse{ID: "W2", Name: "Central", Slug: "central-2"})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "nombre repetido se rechaza")
}

// SetDefault es excluyente: marcar una bodega desmarca las demás.
func TestStore_SetDefaultExcluyente(t *testing.T) {
	store := memory.NewStore()
	repo := store.WarehouseRepository()
	require.NoError(t, repo.Create(&entity.Warehouse{ID: "W1", Name: "Norte", Slug: "norte", IsDefault: true}))
	require.NoError(t, repo.Create(&entity.Warehouse{ID: "W2", Name: "Sur", Slug: "sur"}))

	require.NoError(t, repo.SetDefault("W2"))

	def, err := repo.GetDefault()
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "W2", def.ID)
	w1, err := repo.GetByID("W1")
	require.NoError(t, err)
	assert.False(t, w1.IsDefault)
}

// RecalcTotals suma las líneas persistidas y descuenta el descuento.
func TestStore_RecalcTotals(t *testing.T) {
	store := memory.NewStore()
	repo := store.SaleRepository()
	saleID := uuid.New().String()

	require.NoError(t, repo.Create(&entity.Sale{
		ID: saleID, WarehouseID: "W1",
		Subtotal: decimal.Zero, Discount: decimal.RequireFromString("2.50"), Total: decimal.Zero,
		CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.CreateItem(&entity.SaleItem{
		ID: uuid.New().String(), SaleID: saleID, ItemID: "I1",
		Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), LineTotal: decimal.RequireFromString("20.00"),
	}))
	require.NoError(t, repo.CreateItem(&entity.SaleItem{
		ID: uuid.New().String(), SaleID: saleID, ItemID: "I2",
		Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), LineTotal: decimal.RequireFromString("5.00"),
	}))

	sale, err := repo.RecalcTotals(saleID)
	require.NoError(t, err)
	assert.True(t, sale.Subtotal.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("22.50")))
}

func TestStore_CreateItemSinVenta(t *testing.T) {
	store := memory.NewStore()
	err := store.SaleRepository().CreateItem(&entity.SaleItem{
		ID: uuid.New().String(), SaleID: "no-existe", ItemID: "I1", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos semilla
// ──────────────────────────────────────────────────────────────────────────────

// El seed de desarrollo debe salir conciliado: cada nivel igual a la suma de
// sus movimientos.
func TestNewSeeded_LedgerConcilia(t *testing.T) {
	store := memory.NewSeeded()
	whRepo := store.WarehouseRepository()

	def, err := whRepo.GetDefault()
	require.NoError(t, err)
	require.NotNil(t, def, "el seed trae una bodega predeterminada")

	levels, err := store.StockLevelRepository().ListByWarehouse(def.ID, 100, 0)
	require.NoError(t, err)
	require.NotEmpty(t, levels)
	for _, l := range levels {
		sum, err := store.StockMovementRepository().SumDeltas(def.ID, l.ItemID)
		require.NoError(t, err)
		assert.Equal(t, l.QuantityOnHand, sum, "nivel de %s debe conciliar con el ledger", l.ItemID)
	}
}
