package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN     = "IN"     // entrada
	MovementTypeOUT    = "OUT"    // salida (ventas)
	MovementTypeADJUST = "ADJUST" // ajuste manual, delta con signo
)

// ValidMovementType reporta si t es un tipo de movimiento conocido.
func ValidMovementType(t string) bool {
	return t == MovementTypeIN || t == MovementTypeOUT || t == MovementTypeADJUST
}

// StockMovement es una entrada inmutable del ledger de inventario.
// Invariante: la suma de QuantityDelta por (bodega, ítem) es igual al
// QuantityOnHand actual de ese par. Las correcciones son nuevos ADJUST,
// nunca ediciones.
type StockMovement struct {
	ID            string
	WarehouseID   string
	ItemID        string
	Type          string // IN, OUT, ADJUST
	QuantityDelta int64  // positivo entrada, negativo salida
	Note          string // referencia: venta, recepción, nota de ajuste
	CreatedAt     time.Time
	CreatedBy     string
}
