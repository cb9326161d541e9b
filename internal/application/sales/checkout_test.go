package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/application/inventory"
	"github.com/tu-usuario/pos-backend/internal/application/sales"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
	"github.com/tu-usuario/pos-backend/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testItemCafe  = "ITEM-CAFE-250"
	testItemPan   = "ITEM-PAN-001"
	testItemLeche = "ITEM-LECHE-1L"
)

// checkoutEnv arma un store en memoria con una bodega predeterminada y los
// casos de uso reales encima (el mismo cableado que cmd/api).
type checkoutEnv struct {
	store      *memory.Store
	warehouse  *entity.Warehouse
	registerUC *inventory.RegisterMovementUseCase
	checkoutUC *sales.CheckoutUseCase
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()
	store := memory.NewStore()
	whRepo := store.WarehouseRepository()

	now := time.Now()
	wh := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      "Bodega Central",
		Slug:      "bodega-central",
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, whRepo.Create(wh))
	require.NoError(t, whRepo.SetDefault(wh.ID))

	registerUC := inventory.NewRegisterMovementUseCase(store, whRepo)
	return &checkoutEnv{
		store:      store,
		warehouse:  wh,
		registerUC: registerUC,
		checkoutUC: sales.NewCheckoutUseCase(store, registerUC, whRepo),
	}
}

// seedStock carga existencias vía movimientos IN, para que el ledger concilie.
func (e *checkoutEnv) seedStock(t *testing.T, itemID string, qty int64) {
	t.Helper()
	_, err := e.registerUC.RegisterMovement(context.Background(), inventory.MovementInput{
		WarehouseID: e.warehouse.ID,
		ItemID:      itemID,
		Type:        entity.MovementTypeIN,
		Quantity:    qty,
		Actor:       "seed",
		Note:        "carga inicial",
	})
	require.NoError(t, err)
}

func (e *checkoutEnv) onHand(t *testing.T, itemID string) int64 {
	t.Helper()
	level, err := e.store.StockLevelRepository().Get(e.warehouse.ID, itemID)
	require.NoError(t, err)
	return level.QuantityOnHand
}

func line(itemID string, qty int64, price string) dto.CheckoutLine {
	return dto.CheckoutLine{
		ItemID:    itemID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Camino feliz
// ──────────────────────────────────────────────────────────────────────────────

// Con onHand=5 y un carrito de 3 unidades a 10.00, la venta queda con una
// línea, subtotal 30.00, el stock baja a 2 y el ledger registra un OUT de -3.
func TestCheckout_VentaConfirmada(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 3, "10.00")},
		Actor: "caja-1",
	})
	require.NoError(t, err)
	require.Nil(t, shortage, "con stock suficiente no debe haber reporte de faltantes")
	require.NotNil(t, sale)

	require.Len(t, sale.Items, 1)
	assert.Equal(t, testItemCafe, sale.Items[0].ItemID)
	assert.Equal(t, int64(3), sale.Items[0].Quantity)
	assert.True(t, sale.Subtotal.Equal(decimal.RequireFromString("30.00")),
		"subtotal debe ser 30.00, fue %s", sale.Subtotal)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, env.warehouse.ID, sale.WarehouseID)

	assert.Equal(t, int64(2), env.onHand(t, testItemCafe), "el stock debe bajar de 5 a 2")

	movs, err := env.store.StockMovementRepository().List(repository.MovementFilter{
		WarehouseID: env.warehouse.ID,
		ItemID:      testItemCafe,
	}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2, "carga inicial + salida de venta")
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.Equal(t, int64(-3), movs[0].QuantityDelta)
	assert.Contains(t, movs[0].Note, sale.ID, "la nota del OUT debe referenciar la venta")
}

// Total = subtotal − descuento; el descuento no toca las líneas.
func TestCheckout_DescuentoAplicadoAlTotal(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 10)
	env.seedStock(t, testItemPan, 10)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{
			line(testItemCafe, 2, "10.00"),
			line(testItemPan, 1, "5.50"),
		},
		Discount: decimal.RequireFromString("3.50"),
		Actor:    "caja-1",
	})
	require.NoError(t, err)
	require.Nil(t, shortage)

	assert.True(t, sale.Subtotal.Equal(decimal.RequireFromString("25.50")),
		"subtotal fue %s", sale.Subtotal)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("22.00")),
		"total = subtotal - descuento, fue %s", sale.Total)
}

// Líneas repetidas del mismo ítem se acumulan para la validación de stock,
// pero la venta conserva cada línea tal como llegó.
func TestCheckout_LineasDuplicadasSeAcumulan(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 10)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{
			line(testItemCafe, 2, "10.00"),
			line(testItemCafe, 3, "10.00"),
		},
	})
	require.NoError(t, err)
	require.Nil(t, shortage)

	assert.Len(t, sale.Items, 2, "las líneas del carrito se conservan tal cual")
	assert.Equal(t, int64(5), env.onHand(t, testItemCafe), "se deducen 2+3 unidades")
}

// Líneas duplicadas cuya suma excede el disponible se rechazan aunque cada
// línea individual alcance.
func TestCheckout_LineasDuplicadasExcedenStock(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{
			line(testItemCafe, 3, "10.00"),
			line(testItemCafe, 3, "10.00"),
		},
	})
	require.NoError(t, err)
	require.Nil(t, sale)
	require.NotNil(t, shortage)

	require.Len(t, shortage.Shortages, 1)
	assert.Equal(t, int64(6), shortage.Shortages[0].Requested, "las líneas repetidas suman")
	assert.Equal(t, int64(5), shortage.Shortages[0].Available)
	assert.Equal(t, int64(5), env.onHand(t, testItemCafe), "sin mutación")
}

// ──────────────────────────────────────────────────────────────────────────────
// Faltantes
// ──────────────────────────────────────────────────────────────────────────────

// Con onHand=2 y pedido de 5, no se muta nada y el reporte trae el faltante.
func TestCheckout_FaltanteSinMutacion(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 2)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 5, "10.00")},
	})
	require.NoError(t, err, "el faltante es un resultado, no un error")
	require.Nil(t, sale)
	require.NotNil(t, shortage)

	require.Len(t, shortage.Shortages, 1)
	assert.Equal(t, testItemCafe, shortage.Shortages[0].ItemID)
	assert.Equal(t, int64(5), shortage.Shortages[0].Requested)
	assert.Equal(t, int64(2), shortage.Shortages[0].Available)

	assert.Equal(t, int64(2), env.onHand(t, testItemCafe), "el stock queda intacto")
	salesList, err := env.store.SaleRepository().List(10, 0)
	require.NoError(t, err)
	assert.Empty(t, salesList, "no debe quedar ninguna venta")
}

// El reporte enumera TODAS las líneas cortas, no solo la primera, para que
// el cajero corrija el carrito en un solo reintento.
func TestCheckout_ReporteEnumeraTodosLosFaltantes(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 1)
	env.seedStock(t, testItemPan, 10)
	env.seedStock(t, testItemLeche, 2)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{
			line(testItemCafe, 4, "10.00"),
			line(testItemPan, 2, "5.00"),
			line(testItemLeche, 3, "4.00"),
		},
	})
	require.NoError(t, err)
	require.Nil(t, sale)
	require.NotNil(t, shortage)

	require.Len(t, shortage.Shortages, 2, "café y leche están cortos; pan no")
	byItem := map[string]dto.ShortageLine{}
	for _, s := range shortage.Shortages {
		byItem[s.ItemID] = s
	}
	assert.Equal(t, int64(1), byItem[testItemCafe].Available)
	assert.Equal(t, int64(2), byItem[testItemLeche].Available)
	assert.NotContains(t, byItem, testItemPan)

	// Nada se dedujo, ni siquiera las líneas que sí alcanzaban
	assert.Equal(t, int64(10), env.onHand(t, testItemPan))
}

// Un ítem jamás movido cuenta como disponible cero.
func TestCheckout_ItemSinNivelEsCero(t *testing.T) {
	env := newCheckoutEnv(t)

	sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line("ITEM-NUNCA-VISTO", 1, "1.00")},
	})
	require.NoError(t, err)
	require.Nil(t, sale)
	require.NotNil(t, shortage)
	assert.Equal(t, int64(0), shortage.Shortages[0].Available)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones y resolución de bodega
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_CarritoVacio(t *testing.T) {
	env := newCheckoutEnv(t)

	_, _, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	movs, listErr := env.store.StockMovementRepository().List(repository.MovementFilter{}, 10, 0)
	require.NoError(t, listErr)
	assert.Empty(t, movs, "el carrito vacío se rechaza antes de tocar almacenamiento")
}

func TestCheckout_LineaInvalida(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	casos := []struct {
		nombre string
		lines  []dto.CheckoutLine
	}{
		{"cantidad cero", []dto.CheckoutLine{line(testItemCafe, 0, "10.00")}},
		{"cantidad negativa", []dto.CheckoutLine{line(testItemCafe, -1, "10.00")}},
		{"precio negativo", []dto.CheckoutLine{line(testItemCafe, 1, "-10.00")}},
		{"item vacío", []dto.CheckoutLine{line("", 1, "10.00")}},
	}
	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			_, _, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{Lines: caso.lines})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCheckout_DescuentoNegativo(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	_, _, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines:    []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
		Discount: decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Sin warehouse_id en el request se usa la bodega predeterminada.
func TestCheckout_UsaBodegaPredeterminada(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	sale, _, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, env.warehouse.ID, sale.WarehouseID)
}

// Sin predeterminada, cualquier bodega existente sirve.
func TestCheckout_SinPredeterminadaUsaCualquiera(t *testing.T) {
	store := memory.NewStore()
	whRepo := store.WarehouseRepository()
	wh := &entity.Warehouse{ID: uuid.New().String(), Name: "Sucursal Norte", Slug: "sucursal-norte"}
	require.NoError(t, whRepo.Create(wh))

	registerUC := inventory.NewRegisterMovementUseCase(store, whRepo)
	checkoutUC := sales.NewCheckoutUseCase(store, registerUC, whRepo)
	_, err := registerUC.RegisterMovement(context.Background(), inventory.MovementInput{
		WarehouseID: wh.ID, ItemID: testItemCafe, Type: entity.MovementTypeIN, Quantity: 3,
	})
	require.NoError(t, err)

	sale, _, err := checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, wh.ID, sale.WarehouseID)
}

// Sin ninguna bodega registrada el checkout no puede continuar.
func TestCheckout_SinBodegas(t *testing.T) {
	store := memory.NewStore()
	registerUC := inventory.NewRegisterMovementUseCase(store, store.WarehouseRepository())
	checkoutUC := sales.NewCheckoutUseCase(store, registerUC, store.WarehouseRepository())

	_, _, err := checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
	})
	assert.ErrorIs(t, err, domain.ErrNoWarehouse)
}

func TestCheckout_BodegaInexistente(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	_, _, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		WarehouseID: uuid.New().String(),
		Lines:       []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad
// ──────────────────────────────────────────────────────────────────────────────

var errRecalc = errors.New("recalc totals roto")

// failingSales envuelve el repositorio real y hace fallar RecalcTotals, el
// último paso del checkout, para verificar que TODO se revierte.
type failingSales struct {
	repository.SaleRepository
}

func (f *failingSales) RecalcTotals(saleID string) (*entity.Sale, error) {
	return nil, errRecalc
}

type recalcFailRunner struct {
	store *memory.Store
}

func (r *recalcFailRunner) RunCheckout(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.store.RunCheckout(ctx, func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		return fn(levelRepo, movRepo, &failingSales{SaleRepository: saleRepo})
	})
}

// Si el último paso de la transacción falla, no queda venta, ni líneas, ni
// movimientos, ni deducción de stock: rollback total.
func TestCheckout_FallaEnCommitRevierteTodo(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 5)

	whRepo := env.store.WarehouseRepository()
	checkoutUC := sales.NewCheckoutUseCase(&recalcFailRunner{store: env.store}, env.registerUC, whRepo)

	sale, shortage, err := checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
		Lines: []dto.CheckoutLine{line(testItemCafe, 3, "10.00")},
	})
	require.ErrorIs(t, err, errRecalc)
	assert.Nil(t, sale)
	assert.Nil(t, shortage)

	assert.Equal(t, int64(5), env.onHand(t, testItemCafe), "el stock vuelve a su valor original")
	salesList, listErr := env.store.SaleRepository().List(10, 0)
	require.NoError(t, listErr)
	assert.Empty(t, salesList, "la venta a medio crear se revierte")
	movs, listErr := env.store.StockMovementRepository().List(repository.MovementFilter{
		WarehouseID: env.warehouse.ID,
		ItemID:      testItemCafe,
	}, 10, 0)
	require.NoError(t, listErr)
	require.Len(t, movs, 1, "solo sobrevive la carga inicial")
	assert.Equal(t, entity.MovementTypeIN, movs[0].Type)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos checkouts simultáneos de 1 unidad contra onHand=1: exactamente uno gana
// y el otro recibe el faltante con el estado posterior al commit del primero.
func TestCheckout_CarreraPorUltimaUnidad(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 1)

	type result struct {
		sale     *dto.SaleResponse
		shortage *dto.ShortageReport
		err      error
	}
	results := make([]result, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
				Lines: []dto.CheckoutLine{line(testItemCafe, 1, "10.00")},
			})
			results[idx] = result{sale: sale, shortage: shortage, err: err}
		}(i)
	}
	wg.Wait()

	var wins, shorts int
	for _, r := range results {
		require.NoError(t, r.err)
		switch {
		case r.sale != nil:
			wins++
		case r.shortage != nil:
			shorts++
			require.Len(t, r.shortage.Shortages, 1)
			assert.Equal(t, int64(0), r.shortage.Shortages[0].Available,
				"el perdedor ve el estado posterior al commit del ganador")
		}
	}
	assert.Equal(t, 1, wins, "exactamente un checkout gana la última unidad")
	assert.Equal(t, 1, shorts)
	assert.Equal(t, int64(0), env.onHand(t, testItemCafe))
}

// Con onHand=10 y varios checkouts concurrentes de 3 unidades, venden solo
// los que alcanzan: el stock jamás queda negativo y el ledger concilia.
func TestCheckout_SinSobreventaBajoConcurrencia(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedStock(t, testItemCafe, 10)

	const concurrentes = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, shorts int
	var errs []error

	for i := 0; i < concurrentes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, shortage, err := env.checkoutUC.Checkout(context.Background(), dto.CheckoutRequest{
				Lines: []dto.CheckoutLine{line(testItemCafe, 3, "10.00")},
			})
			// Las aserciones van después de Wait, en la goroutine del test
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if sale != nil {
				wins++
			}
			if shortage != nil {
				shorts++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs, "ningún checkout concurrente debe fallar")
	assert.Equal(t, 3, wins, "solo caben 3 ventas de 3 unidades en 10")
	assert.Equal(t, 1, shorts)

	final := env.onHand(t, testItemCafe)
	assert.Equal(t, int64(1), final)
	assert.GreaterOrEqual(t, final, int64(0), "el stock jamás queda negativo")

	// Conciliación: nivel == suma de deltas del ledger
	sum, err := env.store.StockMovementRepository().SumDeltas(env.warehouse.ID, testItemCafe)
	require.NoError(t, err)
	assert.Equal(t, final, sum, "quantityOnHand debe igualar la suma del ledger")
}
