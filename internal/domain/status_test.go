package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusPreparing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusPreparing, OrderStatusCompleted, false},
		{OrderStatusReady, OrderStatusDelivered, true},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %t, want %t", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	for _, status := range []string{OrderStatusCompleted, OrderStatusCancelled} {
		if !IsTerminalOrderStatus(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []string{OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered} {
		if IsTerminalOrderStatus(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestValidators(t *testing.T) {
	if !IsOrderType(OrderTypeDineIn) || IsOrderType("drive_through") {
		t.Error("IsOrderType misclassifies")
	}
	if !IsPaymentMethod(PaymentWallet) || IsPaymentMethod("crypto") {
		t.Error("IsPaymentMethod misclassifies")
	}
	if !IsOrderStatus(OrderStatusDelivered) || IsOrderStatus("lost") {
		t.Error("IsOrderStatus misclassifies")
	}
}
