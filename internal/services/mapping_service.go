package services

import (
	"context"
	"errors"

	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
)

type MappingService struct {
	Repo *repositories.ProductMappingRepository
}

func NewMappingService(repo *repositories.ProductMappingRepository) *MappingService {
	return &MappingService{Repo: repo}
}

func (s *MappingService) Create(ctx context.Context, req *models.CreateProductMappingRequest) (*models.ProductMaterialMapping, error) {
	if req.ProductName == "" {
		return nil, validationErrorf("product_name is required")
	}
	if req.MaterialName == "" {
		return nil, validationErrorf("material_name is required")
	}
	if req.UnitsPerCarton <= 0 {
		return nil, validationErrorf("units_per_carton must be greater than zero")
	}

	m := &models.ProductMaterialMapping{
		ProductName:    req.ProductName,
		MaterialName:   req.MaterialName,
		UnitsPerCarton: req.UnitsPerCarton,
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationErrorf("mapping for this product already exists")
		}
		return nil, err
	}
	return m, nil
}

func (s *MappingService) Get(ctx context.Context, productName string) (*models.ProductMaterialMapping, error) {
	m, err := s.Repo.GetByProduct(ctx, productName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Message: "Product mapping not found"}
	}
	return m, err
}

func (s *MappingService) List(ctx context.Context) ([]models.ProductMaterialMapping, error) {
	return s.Repo.List(ctx)
}

func (s *MappingService) Update(ctx context.Context, id int, req *models.UpdateProductMappingRequest) error {
	if req.MaterialName == "" {
		return validationErrorf("material_name is required")
	}
	if req.UnitsPerCarton <= 0 {
		return validationErrorf("units_per_carton must be greater than zero")
	}
	err := s.Repo.Update(ctx, id, req.MaterialName, req.UnitsPerCarton)
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Message: "Product mapping not found"}
	}
	return err
}

func (s *MappingService) Delete(ctx context.Context, id int) error {
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Message: "Product mapping not found"}
	}
	return err
}
