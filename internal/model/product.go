// /internal/model/product.go
package model

import "time"

type ProductType string

const (
	ProductPhysical ProductType = "PHYSICAL"
	ProductDigital  ProductType = "DIGITAL"
	ProductKit      ProductType = "KIT"
)

// Category representa uma categoria do catálogo.
type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Product representa um produto a ser vendido na loja, como o backend o
// devolve. StockQuantity é o estoque no momento da leitura.
type Product struct {
	ID            uint        `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Price         float64     `json:"price"`
	StockQuantity int         `json:"stock_quantity"`
	ImageURL      string      `json:"image_url,omitempty"`
	ProductType   ProductType `json:"product_type"`
	CategoryID    uint        `json:"category_id"`
	Category      *Category   `json:"category,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}

// ProductInput é o corpo de criação e atualização de produtos.
type ProductInput struct {
	Title         string      `json:"title" validate:"required,max=200"`
	Description   string      `json:"description" validate:"required"`
	Price         float64     `json:"price" validate:"gt=0"`
	StockQuantity int         `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string      `json:"image_url,omitempty" validate:"omitempty,url"`
	ProductType   ProductType `json:"product_type" validate:"required,oneof=PHYSICAL DIGITAL KIT"`
	CategoryID    uint        `json:"category_id" validate:"required"`
}
