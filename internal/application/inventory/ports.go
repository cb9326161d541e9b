package inventory

import (
	"context"

	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: o se aplican nivel + movimiento, o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}
