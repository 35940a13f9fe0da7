// /internal/model/order.go
package model

import "time"

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentPix  PaymentMethod = "PIX"
)

// DeliveryType define como o pedido é entregue.
type DeliveryType string

const (
	DeliveryShipping DeliveryType = "SHIPPING"
	DeliveryPickup   DeliveryType = "PICKUP"
	DeliveryDigital  DeliveryType = "DIGITAL"
)

// Address é o endereço de entrega, obrigatório apenas para SHIPPING.
type Address struct {
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
	Zip          string `json:"zip" validate:"required,min=8,max=9"`
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gte=1"`
}

// CheckoutRequest é o corpo de POST /orders/checkout.
type CheckoutRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   PaymentMethod      `json:"payment_method" validate:"required,oneof=CARD PIX"`
	DeliveryType    DeliveryType       `json:"delivery_type" validate:"required,oneof=SHIPPING PICKUP DIGITAL"`
	ShippingAddress *Address           `json:"shipping_address,omitempty" validate:"required_if=DeliveryType SHIPPING"`
}

type CheckoutResponse struct {
	OrderID     uint    `json:"order_id"`
	Message     string  `json:"message"`
	TotalAmount float64 `json:"total_amount"`
}

// OrderItem guarda o preço no momento da compra.
type OrderItem struct {
	ProductID   uint    `json:"product_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	DownloadURL string  `json:"download_url,omitempty"`
}

// Order é o pedido como o backend o devolve em /orders.
type Order struct {
	ID              uint          `json:"id"`
	Status          string        `json:"status,omitempty"`
	TotalAmount     float64       `json:"total_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	DeliveryType    DeliveryType  `json:"delivery_type,omitempty"`
	ShippingAddress *Address      `json:"shipping_address,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	Items           []OrderItem   `json:"items"`
}
