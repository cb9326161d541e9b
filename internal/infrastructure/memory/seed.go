package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
)

// NewSeeded crea un almacén con una bodega predeterminada y existencias de
// demo para desarrollo. El stock se siembra vía movimientos IN para que el
// ledger concilie con los niveles desde el arranque.
func NewSeeded() *Store {
	s := NewStore()
	now := time.Now()

	wh := entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      "Bodega Principal",
		Slug:      "bodega-principal",
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.warehouses[wh.ID] = wh

	seed := []struct {
		itemID string
		qty    int64
	}{
		{"ITEM-CAFE-250", 40},
		{"ITEM-PAN-001", 25},
		{"ITEM-LECHE-1L", 30},
		{"ITEM-AZUCAR-1K", 18},
		{"ITEM-JABON-001", 4}, // bajo el umbral de stock bajo, para la vista de faltantes
	}
	for _, row := range seed {
		s.st.levels[levelKey{wh.ID, row.itemID}] = entity.StockLevel{
			WarehouseID:    wh.ID,
			ItemID:         row.itemID,
			QuantityOnHand: row.qty,
			UpdatedAt:      now,
		}
		s.st.movements = append(s.st.movements, entity.StockMovement{
			ID:            uuid.New().String(),
			WarehouseID:   wh.ID,
			ItemID:        row.itemID,
			Type:          entity.MovementTypeIN,
			QuantityDelta: row.qty,
			Note:          "carga inicial",
			CreatedAt:     now,
			CreatedBy:     "seed",
		})
	}
	return s
}
