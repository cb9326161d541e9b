package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos de inventario de forma
// transaccional (IN, OUT, ADJUST) con bloqueo de fila (SELECT FOR UPDATE)
// y Commit/Rollback. Es el único camino de mutación del stock.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner TxRunner, warehouseRepo repository.WarehouseRepository) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{txRunner: txRunner, warehouseRepo: warehouseRepo}
}

// MovementInput entrada para registrar un movimiento.
// Quantity positiva para IN/OUT; para ADJUST es el delta con signo (≠ 0).
type MovementInput struct {
	WarehouseID string
	ItemID      string
	Type        string
	Quantity    int64
	Actor       string
	Note        string
}

// RegisterMovement valida la entrada, inicia una transacción, bloquea la fila
// del nivel y aplica el delta. OUT con stock insuficiente retorna
// domain.ErrInsufficientStock sin mutación alguna.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if input.WarehouseID == "" || input.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidMovementType(input.Type) {
		return nil, domain.ErrInvalidInput
	}
	var delta int64
	switch input.Type {
	case entity.MovementTypeIN:
		if input.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		delta = input.Quantity
	case entity.MovementTypeOUT:
		if input.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		delta = -input.Quantity
	case entity.MovementTypeADJUST:
		if input.Quantity == 0 {
			return nil, domain.ErrInvalidInput
		}
		delta = input.Quantity
	}

	// Validar que la bodega exista (el ítem es opaco: lo resuelve el catálogo)
	wh, err := uc.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}

	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error {
		m, err := uc.ApplyInTx(levelRepo, movRepo, input.WarehouseID, input.ItemID, input.Type, delta, input.Actor, input.Note)
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ApplyInTx aplica un delta con signo sobre el nivel de stock usando los
// repositorios del caller (misma transacción) y registra la entrada del
// ledger. El caller debe tener (o adquirir aquí vía GetForUpdate) el bloqueo
// de la fila. Exactamente un upsert de nivel y un insert de movimiento por
// llamada exitosa; si el delta dejaría el stock negativo retorna
// domain.ErrInsufficientStock sin mutación.
func (uc *RegisterMovementUseCase) ApplyInTx(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
	warehouseID, itemID, movType string,
	delta int64,
	actor, note string,
) (*entity.StockMovement, error) {
	// Bloquea la fila (SELECT FOR UPDATE); par inexistente = fila en cero
	level, err := levelRepo.GetForUpdate(warehouseID, itemID)
	if err != nil {
		return nil, err
	}
	newQty := level.QuantityOnHand + delta
	if newQty < 0 {
		return nil, domain.ErrInsufficientStock
	}
	now := time.Now()
	level.QuantityOnHand = newQty
	level.UpdatedAt = now
	if err := levelRepo.Upsert(level); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		WarehouseID:   warehouseID,
		ItemID:        itemID,
		Type:          movType,
		QuantityDelta: delta,
		Note:          note,
		CreatedAt:     now,
		CreatedBy:     actor,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}
