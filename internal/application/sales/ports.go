package sales

import (
	"context"

	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// CheckoutTxRunner ejecuta una función dentro de una transacción que incluye
// repos de inventario y ventas. Si fn retorna error, todo lo escrito en la
// transacción (venta, líneas, niveles, movimientos) se revierte como un todo.
type CheckoutTxRunner interface {
	RunCheckout(ctx context.Context, fn func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// MovementApplier interfaz para integrar checkout con inventario.
// ApplyInTx aplica un delta usando los repositorios del caller (misma
// transacción). Si retorna error (ej: ErrInsufficientStock), el caller debe
// abortar para que el runner haga rollback.
type MovementApplier interface {
	ApplyInTx(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
		warehouseID, itemID, movType string,
		delta int64,
		actor, note string,
	) (*entity.StockMovement, error)
}
