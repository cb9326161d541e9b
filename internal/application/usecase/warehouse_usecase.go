package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
	"github.com/tu-usuario/pos-backend/pkg/slug"
)

// WarehouseUseCase administración mínima de bodegas: alta, listado y marca
// de predeterminada. Una vez referenciada por stock o movimientos, la bodega
// es inmutable para el motor.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create da de alta una bodega; el slug se deriva del nombre.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	wh := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Slug:      slug.Make(in.Name),
		IsDefault: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(wh); err != nil {
		return nil, err
	}
	if in.IsDefault {
		if err := uc.repo.SetDefault(wh.ID); err != nil {
			return nil, err
		}
		wh.IsDefault = true
	}
	resp := toWarehouseResponse(wh)
	return &resp, nil
}

// GetByID devuelve una bodega.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	wh, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}
	resp := toWarehouseResponse(wh)
	return &resp, nil
}

// List lista bodegas paginadas.
func (uc *WarehouseUseCase) List(ctx context.Context, page dto.PageRequest) ([]dto.WarehouseResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WarehouseResponse, 0, len(list))
	for _, wh := range list {
		out = append(out, toWarehouseResponse(wh))
	}
	return out, nil
}

// SetDefault marca la bodega como predeterminada (desmarca el resto).
func (uc *WarehouseUseCase) SetDefault(ctx context.Context, id string) error {
	wh, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrNotFound
	}
	return uc.repo.SetDefault(id)
}

func toWarehouseResponse(wh *entity.Warehouse) dto.WarehouseResponse {
	return dto.WarehouseResponse{
		ID:        wh.ID,
		Name:      wh.Name,
		Slug:      wh.Slug,
		IsDefault: wh.IsDefault,
		CreatedAt: wh.CreatedAt,
	}
}
