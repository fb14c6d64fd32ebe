package model

import "testing"

func TestOrderStatusValid(t *testing.T) {
	valid := []OrderStatus{
		OrderStatusPending, OrderStatusInProgress, OrderStatusMaking,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%q must be a valid order status", s)
		}
	}

	invalid := []OrderStatus{"", "Bogus", "pending", "PENDING", "Done"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("%q must not be a valid order status", s)
		}
	}
}

func TestPaymentStatusValid(t *testing.T) {
	valid := []PaymentStatus{
		PaymentStatusUnpaid, PaymentStatusPendingVerif,
		PaymentStatusPaid, PaymentStatusRefunded,
	}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("%q must be a valid payment status", p)
		}
	}

	invalid := []PaymentStatus{"", "unpaid", "Verified", "Pending"}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("%q must not be a valid payment status", p)
		}
	}
}
