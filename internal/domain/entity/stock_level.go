package entity

import "time"

// StockLevel representa el stock actual de un ítem en una bodega
// (tabla materializada; la fuente de verdad es el ledger de movimientos).
// QuantityOnHand nunca es negativo. QuantityReserved reduce lo disponible
// pero el flujo de checkout no lo muta (no hay ciclo de reservas).
type StockLevel struct {
	WarehouseID      string
	ItemID           string
	QuantityOnHand   int64
	QuantityReserved int64
	UpdatedAt        time.Time
}

// Available devuelve la cantidad vendible: en mano menos reservado.
func (s *StockLevel) Available() int64 {
	return s.QuantityOnHand - s.QuantityReserved
}
