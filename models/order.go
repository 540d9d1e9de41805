package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard || p == PaymentOnline
}

type ShippingAddress struct {
	Street     string `json:"street" bson:"street" validate:"required" msg:"Street address is required"`
	City       string `json:"city" bson:"city" validate:"required" msg:"City is required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required" msg:"Postal code is required"`
	Country    string `json:"country" bson:"country"`
}

type GuestInfo struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email" validate:"omitempty,email" msg:"Valid email is required"`
	Phone string `json:"phone" bson:"phone"`
}

// OrderItem snapshots the price at purchase time.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"product" bson:"product"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Price     Money              `json:"price" bson:"price"`
	Size      string             `json:"size,omitempty" bson:"size,omitempty"`
	Color     string             `json:"color,omitempty" bson:"color,omitempty"`
}

// Order is immutable after creation apart from Status. GuestInfo is set only
// for guest owners.
type Order struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Owner           `bson:",inline"`
	GuestInfo       *GuestInfo      `json:"guestInfo,omitempty" bson:"guestInfo,omitempty"`
	Items           []OrderItem     `json:"items" bson:"items"`
	Total           Money           `json:"total" bson:"total"`
	Status          OrderStatus     `json:"status" bson:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" bson:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// ComputeTotal sums the snapshotted line prices.
func (o *Order) ComputeTotal() Money {
	total := Money{}
	for _, it := range o.Items {
		total = total.Add(it.Price.Times(it.Quantity))
	}
	return total
}

type OrderLineView struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
	Price    Money    `json:"price"`
	Size     string   `json:"size,omitempty"`
	Color    string   `json:"color,omitempty"`
}

// OrderView is an order with products and the owning user resolved for display.
type OrderView struct {
	ID              primitive.ObjectID `json:"_id"`
	User            *UserSummary       `json:"user,omitempty"`
	GuestInfo       *GuestInfo         `json:"guestInfo,omitempty"`
	Items           []OrderLineView    `json:"items"`
	Total           Money              `json:"total"`
	Status          OrderStatus        `json:"status"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}
