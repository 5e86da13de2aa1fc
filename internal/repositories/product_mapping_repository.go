package repositories

import (
	"context"
	"errors"

	"trade-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductMappingRepository struct {
	DB *pgxpool.Pool
}

func NewProductMappingRepository(db *pgxpool.Pool) *ProductMappingRepository {
	return &ProductMappingRepository{DB: db}
}

func (r *ProductMappingRepository) Create(ctx context.Context, m *models.ProductMaterialMapping) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO product_material_mappings (product_name, material_name, units_per_carton)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		m.ProductName, m.MaterialName, m.UnitsPerCarton,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *ProductMappingRepository) GetByProduct(ctx context.Context, productName string) (*models.ProductMaterialMapping, error) {
	m := &models.ProductMaterialMapping{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_name, material_name, units_per_carton, created_at, updated_at
		FROM product_material_mappings
		WHERE product_name = $1`,
		productName,
	).Scan(&m.ID, &m.ProductName, &m.MaterialName, &m.UnitsPerCarton, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *ProductMappingRepository) List(ctx context.Context) ([]models.ProductMaterialMapping, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_name, material_name, units_per_carton, created_at, updated_at
		FROM product_material_mappings
		ORDER BY product_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.ProductMaterialMapping
	for rows.Next() {
		var m models.ProductMaterialMapping
		if err := rows.Scan(&m.ID, &m.ProductName, &m.MaterialName, &m.UnitsPerCarton, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *ProductMappingRepository) Update(ctx context.Context, id int, materialName string, unitsPerCarton int) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE product_material_mappings
		SET material_name = $1, units_per_carton = $2, updated_at = NOW()
		WHERE id = $3`,
		materialName, unitsPerCarton, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductMappingRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM product_material_mappings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
