package sales

import (
	"context"

	"github.com/tu-usuario/pos-backend/internal/application/dto"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

// SalesQueryUseCase historial de ventas, solo lectura.
type SalesQueryUseCase struct {
	saleRepo repository.SaleRepository
}

// NewSalesQueryUseCase construye el caso de uso.
func NewSalesQueryUseCase(saleRepo repository.SaleRepository) *SalesQueryUseCase {
	return &SalesQueryUseCase{saleRepo: saleRepo}
}

// GetSale devuelve una venta con sus líneas.
func (uc *SalesQueryUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.saleRepo.GetItemsBySaleID(id)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, items), nil
}

// ListSales historial paginado, más recientes primero. Las líneas no se
// cargan en el listado; GetSale las trae.
func (uc *SalesQueryUseCase) ListSales(ctx context.Context, page dto.PageRequest) ([]dto.SaleResponse, error) {
	page.DefaultPage()
	sales, err := uc.saleRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, *toSaleResponse(s, nil))
	}
	return out, nil
}
