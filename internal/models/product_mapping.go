package models

import "time"

// ProductMaterialMapping is master data linking a finished product to its
// packing configuration. units_per_carton drives all carton/piece conversion.
type ProductMaterialMapping struct {
	ID             int       `json:"id"`
	ProductName    string    `json:"product_name"`
	MaterialName   string    `json:"material_name,omitempty"`
	UnitsPerCarton int       `json:"units_per_carton"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateProductMappingRequest struct {
	ProductName    string `json:"product_name"`
	MaterialName   string `json:"material_name"`
	UnitsPerCarton int    `json:"units_per_carton"`
}

type UpdateProductMappingRequest struct {
	MaterialName   string `json:"material_name"`
	UnitsPerCarton int    `json:"units_per_carton"`
}
