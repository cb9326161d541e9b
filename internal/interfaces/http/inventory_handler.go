package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/application/inventory"
	"github.com/tu-usuario/pos-backend/internal/domain"
)

// InventoryHandler maneja movimientos y consultas de inventario.
type InventoryHandler struct {
	movementUC *inventory.RegisterMovementUseCase
	queryUC    *inventory.StockQueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movementUC *inventory.RegisterMovementUseCase, queryUC *inventory.StockQueryUseCase) *InventoryHandler {
	return &InventoryHandler{movementUC: movementUC, queryUC: queryUC}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "warehouse_id, item_id, type (IN/OUT/ADJUST), quantity, actor, note"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.movementUC.RegisterMovement(c.Context(), inventory.MovementInput{
		WarehouseID: in.WarehouseID,
		ItemID:      in.ItemID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Actor:       in.Actor,
		Note:        in.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "bodega no encontrada"})
		case errors.Is(err, domain.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
		case errors.Is(err, domain.ErrLockTimeout):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "inventario ocupado, reintente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponse{
		ID:            mov.ID,
		WarehouseID:   mov.WarehouseID,
		ItemID:        mov.ItemID,
		Type:          mov.Type,
		QuantityDelta: mov.QuantityDelta,
		Note:          mov.Note,
		CreatedAt:     mov.CreatedAt,
		CreatedBy:     mov.CreatedBy,
	})
}

// GetStock godoc
// @Summary      Consultar niveles de stock
// @Description  Con item_id devuelve un solo nivel; sin item_id lista los de
//
//	la bodega. Solo estado confirmado.
//
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        item_id       query  string  false  "Ítem"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	itemID := c.Query("item_id")
	if itemID != "" {
		level, err := h.queryUC.GetLevel(c.Context(), warehouseID, itemID)
		if err != nil {
			return mapQueryError(c, err)
		}
		return c.JSON(level)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	levels, err := h.queryUC.ListLevels(c.Context(), warehouseID, page)
	if err != nil {
		return mapQueryError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(levels), "levels": levels})
}

// GetLowStock godoc
// @Summary      Niveles con existencia baja
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega (UUID)"
// @Param        threshold     query  int     false  "Umbral (default 5)"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/low [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	threshold, _ := strconv.ParseInt(c.Query("threshold"), 10, 64)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	levels, err := h.queryUC.ListLowStock(c.Context(), warehouseID, threshold, page)
	if err != nil {
		return mapQueryError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(levels), "levels": levels})
}

// ListMovements godoc
// @Summary      Consultar el ledger de movimientos
// @Description  Vista paginada ordenada por fecha, con filtros opcionales de
//
//	bodega, ítem y rango de fechas (RFC 3339).
//
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        item_id       query  string  false  "Ítem"
// @Param        from          query  string  false  "Desde (RFC 3339)"
// @Param        to            query  string  false  "Hasta (RFC 3339)"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.LedgerQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtros inválidos"})
	}
	movs, err := h.queryUC.ListMovements(c.Context(), q)
	if err != nil {
		return mapQueryError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(movs), "movements": movs})
}

func mapQueryError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
