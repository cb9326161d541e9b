package dto

import "time"

// RegisterMovementRequest body para POST /api/inventory/movements.
// Quantity es positiva para IN/OUT; para ADJUST es el delta con signo.
type RegisterMovementRequest struct {
	WarehouseID string `json:"warehouse_id"`
	ItemID      string `json:"item_id"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	Actor       string `json:"actor"`
	Note        string `json:"note,omitempty"`
}

// StockLevelResponse nivel de stock de un ítem en una bodega.
type StockLevelResponse struct {
	WarehouseID      string    `json:"warehouse_id"`
	ItemID           string    `json:"item_id"`
	QuantityOnHand   int64     `json:"quantity_on_hand"`
	QuantityReserved int64     `json:"quantity_reserved"`
	Available        int64     `json:"available"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MovementResponse una entrada del ledger de movimientos.
type MovementResponse struct {
	ID            string    `json:"id"`
	WarehouseID   string    `json:"warehouse_id"`
	ItemID        string    `json:"item_id"`
	Type          string    `json:"type"`
	QuantityDelta int64     `json:"quantity_delta"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
}

// LedgerQuery filtros para GET /api/inventory/movements.
type LedgerQuery struct {
	WarehouseID string `query:"warehouse_id"`
	ItemID      string `query:"item_id"`
	From        string `query:"from"` // RFC 3339
	To          string `query:"to"`   // RFC 3339
	PageRequest
}
