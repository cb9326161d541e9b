package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// CheckoutUseCase convierte un carrito finalizado en una venta confirmada con
// sus deducciones de stock, todo en una sola transacción. El carrito es un
// value object del caller: el motor no guarda estado de sesión.
type CheckoutUseCase struct {
	txRunner      CheckoutTxRunner
	applier       MovementApplier
	warehouseRepo repository.WarehouseRepository
}

// NewCheckoutUseCase construye el caso de uso.
func NewCheckoutUseCase(txRunner CheckoutTxRunner, applier MovementApplier, warehouseRepo repository.WarehouseRepository) *CheckoutUseCase {
	return &CheckoutUseCase{txRunner: txRunner, applier: applier, warehouseRepo: warehouseRepo}
}

// Checkout valida disponibilidad de todas las líneas y, si alcanza el stock,
// crea la venta con sus líneas y una salida (OUT) por línea — atómico. Si
// falta stock no muta nada y devuelve el reporte completo de faltantes (todas
// las líneas cortas, no solo la primera) como valor, no como error.
func (uc *CheckoutUseCase) Checkout(ctx context.Context, in dto.CheckoutRequest) (*dto.SaleResponse, *dto.ShortageReport, error) {
	// Carrito vacío: se rechaza antes de tocar almacenamiento
	if len(in.Lines) == 0 {
		return nil, nil, domain.ErrEmptyCart
	}
	for _, line := range in.Lines {
		if line.ItemID == "" || line.Quantity <= 0 || line.UnitPrice.LessThan(decimal.Zero) {
			return nil, nil, domain.ErrInvalidInput
		}
	}
	if in.Discount.LessThan(decimal.Zero) {
		return nil, nil, domain.ErrInvalidInput
	}

	wh, err := uc.resolveWarehouse(in.WarehouseID)
	if err != nil {
		return nil, nil, err
	}

	// Cantidades pedidas por ítem: líneas repetidas del mismo ítem se
	// acumulan antes de comparar contra lo disponible
	requested := make(map[string]int64, len(in.Lines))
	for _, line := range in.Lines {
		requested[line.ItemID] += line.Quantity
	}
	// Orden total por ítem: todos los checkouts adquieren los bloqueos de
	// fila en el mismo orden, sin ciclos de espera entre transacciones
	itemIDs := make([]string, 0, len(requested))
	for id := range requested {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	now := time.Now()
	var (
		sale   *entity.Sale
		items  []*entity.SaleItem
		report *dto.ShortageReport
	)
	err = uc.txRunner.RunCheckout(ctx, func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
		saleRepo repository.SaleRepository,
	) error {
		// Bloquear todas las filas necesarias antes de leer cualquiera
		levels := make(map[string]*entity.StockLevel, len(itemIDs))
		for _, itemID := range itemIDs {
			level, err := levelRepo.GetForUpdate(wh.ID, itemID)
			if err != nil {
				return err
			}
			levels[itemID] = level
		}

		// Evaluar faltantes contra lo disponible ya bloqueado
		var shortages []dto.ShortageLine
		for _, itemID := range itemIDs {
			available := levels[itemID].Available()
			if available < requested[itemID] {
				shortages = append(shortages, dto.ShortageLine{
					ItemID:    itemID,
					Requested: requested[itemID],
					Available: available,
				})
			}
		}
		if len(shortages) > 0 {
			report = &dto.ShortageReport{WarehouseID: wh.ID, Shortages: shortages}
			// Abortar la tx: revierte cualquier fila de nivel materializada
			// durante el bloqueo y libera los bloqueos. Las tablas quedan
			// exactamente como antes del intento
			return errShortage
		}

		// Cabecera con totales en cero; se recalculan al final desde las líneas
		sale = &entity.Sale{
			ID:          uuid.New().String(),
			WarehouseID: wh.ID,
			Subtotal:    decimal.Zero,
			Discount:    in.Discount,
			Total:       decimal.Zero,
			CreatedAt:   now,
			CreatedBy:   in.Actor,
		}
		if err := saleRepo.Create(sale); err != nil {
			return err
		}
		for _, line := range in.Lines {
			item := &entity.SaleItem{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)),
			}
			if err := saleRepo.CreateItem(item); err != nil {
				return err
			}
			items = append(items, item)
		}

		// Una salida por línea, referenciando la venta en la nota del ledger.
		// ErrInsufficientStock aquí sería una falla dura (el chequeo anterior
		// la cubre): se propaga y el runner revierte todo
		note := fmt.Sprintf("venta %s", sale.ID)
		for _, line := range in.Lines {
			if _, err := uc.applier.ApplyInTx(
				levelRepo, movRepo,
				wh.ID, line.ItemID,
				entity.MovementTypeOUT, -line.Quantity,
				in.Actor, note,
			); err != nil {
				return err
			}
		}

		// Totales desde las líneas persistidas, una sola vez
		recalced, err := saleRepo.RecalcTotals(sale.ID)
		if err != nil {
			return err
		}
		sale = recalced
		return nil
	})
	if err != nil && !errors.Is(err, errShortage) {
		return nil, nil, err
	}
	if report != nil {
		return nil, report, nil
	}
	return toSaleResponse(sale, items), nil, nil
}

// errShortage señal interna para que el runner haga rollback cuando hay
// faltantes; nunca sale del caso de uso (el faltante se reporta como valor).
var errShortage = errors.New("faltantes de stock")

// resolveWarehouse aplica la política de selección: la indicada en el request,
// si no la predeterminada, si no cualquiera existente.
func (uc *CheckoutUseCase) resolveWarehouse(warehouseID string) (*entity.Warehouse, error) {
	if warehouseID != "" {
		wh, err := uc.warehouseRepo.GetByID(warehouseID)
		if err != nil {
			return nil, err
		}
		if wh == nil {
			return nil, domain.ErrNotFound
		}
		return wh, nil
	}
	wh, err := uc.warehouseRepo.GetDefault()
	if err != nil {
		return nil, err
	}
	if wh != nil {
		return wh, nil
	}
	list, err := uc.warehouseRepo.List(1, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNoWarehouse
	}
	return list[0], nil
}

func toSaleResponse(sale *entity.Sale, items []*entity.SaleItem) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:          sale.ID,
		WarehouseID: sale.WarehouseID,
		Subtotal:    sale.Subtotal,
		Discount:    sale.Discount,
		Total:       sale.Total,
		CreatedAt:   sale.CreatedAt,
		CreatedBy:   sale.CreatedBy,
		Items:       make([]dto.SaleItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ID:        it.ID,
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}
