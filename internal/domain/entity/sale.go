package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa la cabecera de una venta (cheque de POS).
// Los totales se recalculan desde sus líneas al cerrar el checkout:
// Subtotal = Σ líneas, Total = Subtotal - Discount.
type Sale struct {
	ID          string
	WarehouseID string
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
	CreatedBy   string
}

// SaleItem representa una línea de venta. Pertenece a una sola venta y es
// inmutable después del checkout (no hay edición de ventas cerradas).
type SaleItem struct {
	ID        string
	SaleID    string
	ItemID    string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal // UnitPrice * Quantity
}
