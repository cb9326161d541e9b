package repository

import "github.com/tu-usuario/pos-backend/internal/domain/entity"

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
// No hay camino de edición ni borrado para ventas cerradas.
type SaleRepository interface {
	Create(sale *entity.Sale) error
	CreateItem(item *entity.SaleItem) error
	GetByID(id string) (*entity.Sale, error)
	GetItemsBySaleID(saleID string) ([]*entity.SaleItem, error)
	List(limit, offset int) ([]*entity.Sale, error)
	// RecalcTotals recalcula Subtotal y Total desde las líneas persistidas y
	// devuelve la venta actualizada. Se invoca una sola vez por checkout,
	// dentro de la misma transacción que creó las líneas.
	RecalcTotals(saleID string) (*entity.Sale, error)
}
