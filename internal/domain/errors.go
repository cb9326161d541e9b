package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrEmptyCart         = errors.New("el carrito está vacío")
	ErrNoWarehouse       = errors.New("no hay bodega disponible")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockTimeout       = errors.New("tiempo de espera de bloqueo agotado")
)
