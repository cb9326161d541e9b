package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/application/sales"
	"github.com/tu-usuario/pos-backend/internal/domain"
)

// CheckoutHandler maneja POST /api/pos/checkout.
type CheckoutHandler struct {
	uc *sales.CheckoutUseCase
}

// NewCheckoutHandler construye el handler.
func NewCheckoutHandler(uc *sales.CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// Checkout godoc
// @Summary      Cerrar un carrito como venta
// @Description  Valida disponibilidad de todas las líneas y confirma la venta
//
//	con sus deducciones de stock en una sola transacción. Si falta
//	stock devuelve el reporte completo de faltantes sin mutar nada.
//
// @Tags         pos
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "warehouse_id (opcional), lines, discount, actor"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ShortageReport
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/pos/checkout [post]
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sale, shortage, err := h.uc.Checkout(c.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EMPTY_CART", Message: "el carrito está vacío"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "bodega no encontrada"})
		case errors.Is(err, domain.ErrNoWarehouse):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_WAREHOUSE", Message: "no hay bodega disponible"})
		case errors.Is(err, domain.ErrInsufficientStock):
			// Falla dura en el commit; el chequeo previo la cubre, pero si
			// ocurre la transacción ya se revirtió completa
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
		case errors.Is(err, domain.ErrLockTimeout):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "inventario ocupado, reintente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if shortage != nil {
		return c.Status(fiber.StatusConflict).JSON(shortage)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}
