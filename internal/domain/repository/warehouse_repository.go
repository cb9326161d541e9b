package repository

import "github.com/tu-usuario/pos-backend/internal/domain/entity"

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	// GetDefault devuelve la bodega marcada como predeterminada, o nil si no hay.
	GetDefault() (*entity.Warehouse, error)
	List(limit, offset int) ([]*entity.Warehouse, error)
	// SetDefault marca la bodega como predeterminada y desmarca las demás (atómico).
	SetDefault(id string) error
}
