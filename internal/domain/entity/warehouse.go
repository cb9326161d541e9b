package entity

import "time"

// Warehouse representa una bodega o punto de venta donde se almacena inventario.
// A lo sumo una bodega está marcada como predeterminada; el checkout la usa
// cuando el request no indica bodega.
type Warehouse struct {
	ID        string
	Name      string
	Slug      string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
