package inventory

import (
	"context"
	"time"

	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// Umbral por defecto para "stock bajo" cuando el request no indica uno.
const defaultLowStockThreshold = 5

// StockQueryUseCase consultas de solo lectura sobre niveles y ledger.
// Opera sobre repositorios atados al pool: solo ve estado confirmado,
// nunca mutaciones de un checkout en curso.
type StockQueryUseCase struct {
	levelRepo repository.StockLevelRepository
	movRepo   repository.StockMovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(levelRepo repository.StockLevelRepository, movRepo repository.StockMovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{levelRepo: levelRepo, movRepo: movRepo}
}

// GetLevel devuelve el nivel de un ítem en una bodega (fila en cero si no existe).
func (uc *StockQueryUseCase) GetLevel(ctx context.Context, warehouseID, itemID string) (*dto.StockLevelResponse, error) {
	if warehouseID == "" || itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	level, err := uc.levelRepo.Get(warehouseID, itemID)
	if err != nil {
		return nil, err
	}
	resp := toLevelResponse(level)
	return &resp, nil
}

// ListLevels lista los niveles de una bodega, paginados.
func (uc *StockQueryUseCase) ListLevels(ctx context.Context, warehouseID string, page dto.PageRequest) ([]dto.StockLevelResponse, error) {
	if warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	levels, err := uc.levelRepo.ListByWarehouse(warehouseID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, toLevelResponse(l))
	}
	return out, nil
}

// ListLowStock lista los niveles con existencia en o bajo el umbral
// (por defecto 5 unidades).
func (uc *StockQueryUseCase) ListLowStock(ctx context.Context, warehouseID string, threshold int64, page dto.PageRequest) ([]dto.StockLevelResponse, error) {
	if warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	page.DefaultPage()
	levels, err := uc.levelRepo.ListBelowThreshold(warehouseID, threshold, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, toLevelResponse(l))
	}
	return out, nil
}

// ListMovements vista paginada del ledger, ordenada por fecha, con filtros
// opcionales de bodega, ítem y rango de fechas.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, q dto.LedgerQuery) ([]dto.MovementResponse, error) {
	filter := repository.MovementFilter{
		WarehouseID: q.WarehouseID,
		ItemID:      q.ItemID,
	}
	if q.From != "" {
		t, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		filter.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		filter.To = &t
	}
	q.DefaultPage()
	movs, err := uc.movRepo.List(filter, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementResponse{
			ID:            m.ID,
			WarehouseID:   m.WarehouseID,
			ItemID:        m.ItemID,
			Type:          m.Type,
			QuantityDelta: m.QuantityDelta,
			Note:          m.Note,
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
		})
	}
	return out, nil
}

func toLevelResponse(l *entity.StockLevel) dto.StockLevelResponse {
	return dto.StockLevelResponse{
		WarehouseID:      l.WarehouseID,
		ItemID:           l.ItemID,
		QuantityOnHand:   l.QuantityOnHand,
		QuantityReserved: l.QuantityReserved,
		Available:        l.Available(),
		UpdatedAt:        l.UpdatedAt,
	}
}
