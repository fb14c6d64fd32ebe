// Package model contains the domain entities of the GFX order service.
package model

import "time"

// OrderStatus describes the production state of a commission order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusMaking     OrderStatus = "Making"
	OrderStatusReady      OrderStatus = "Ready"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is a member of the order status enumeration.
// There is no transition graph: staff may move an order from any status
// to any other status, including out of Completed or Cancelled.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusMaking,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus describes the payment state of a commission order.
type PaymentStatus string

const (
	PaymentStatusUnpaid       PaymentStatus = "Unpaid"
	PaymentStatusPendingVerif PaymentStatus = "Pending Verif"
	PaymentStatusPaid         PaymentStatus = "Paid"
	PaymentStatusRefunded     PaymentStatus = "Refunded"
)

// Valid reports whether p is a member of the payment status enumeration.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentStatusUnpaid, PaymentStatusPendingVerif,
		PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order is a single customer commission request and its lifecycle state.
type Order struct {
	ID            int64
	Email         string
	DiscordUser   string
	RobloxUser    string
	GfxType       string
	Details       string
	ImageURL      string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	PriceRobux    string
	CreatedAt     time.Time
}

// Admin is a staff account allowed to mutate orders and site settings.
type Admin struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
}
