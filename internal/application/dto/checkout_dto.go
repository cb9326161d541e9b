package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutLine una línea del carrito: ítem, cantidad y precio unitario.
// El catálogo resuelve qué producto o variante hay detrás del item_id;
// para el motor es un identificador opaco.
type CheckoutLine struct {
	ItemID    string          `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CheckoutRequest body para POST /api/pos/checkout. WarehouseID es opcional:
// vacío usa la bodega predeterminada (o cualquiera existente).
type CheckoutRequest struct {
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Lines       []CheckoutLine  `json:"lines"`
	Discount    decimal.Decimal `json:"discount,omitempty"`
	Actor       string          `json:"actor"`
}

// ShortageLine un ítem cuyo pedido excede el stock disponible.
type ShortageLine struct {
	ItemID    string `json:"item_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// ShortageReport rechazo de checkout por falta de stock. No es un error:
// enumera todas las líneas cortas para que un solo reenvío las corrija todas.
type ShortageReport struct {
	WarehouseID string         `json:"warehouse_id"`
	Shortages   []ShortageLine `json:"shortages"`
}

// SaleItemResponse línea de una venta confirmada.
type SaleItemResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleResponse venta confirmada con totales y líneas.
type SaleResponse struct {
	ID          string             `json:"id"`
	WarehouseID string             `json:"warehouse_id"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Discount    decimal.Decimal    `json:"discount"`
	Total       decimal.Decimal    `json:"total"`
	CreatedAt   time.Time          `json:"created_at"`
	CreatedBy   string             `json:"created_by"`
	Items       []SaleItemResponse `json:"items"`
}
