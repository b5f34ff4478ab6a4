package enums

import "testing"

func TestOrderStatusPredicates(t *testing.T) {
	tests := []struct {
		status      OrderStatus
		terminal    bool
		cancellable bool
	}{
		{OrderStatusPending, false, true},
		{OrderStatusProcessing, false, true},
		{OrderStatusShipped, false, false},
		{OrderStatusDelivered, true, false},
		{OrderStatusCancelled, true, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Fatalf("%s terminal: expected %v got %v", tt.status, tt.terminal, got)
		}
		if got := tt.status.IsCancellable(); got != tt.cancellable {
			t.Fatalf("%s cancellable: expected %v got %v", tt.status, tt.cancellable, got)
		}
	}
}

func TestParseOrderStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseOrderStatus("completed"); err == nil {
		t.Fatalf("expected error for status outside the canonical set")
	}
	got, err := ParseOrderStatus("shipped")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
}

func TestParseDeliveryMethod(t *testing.T) {
	tests := []struct {
		raw     string
		want    DeliveryMethod
		address bool
	}{
		{"pickup", DeliveryMethodPickup, false},
		{"courier", DeliveryMethodCourier, true},
		{"Delivery", DeliveryMethodCourier, true},
		{" mail ", DeliveryMethodMail, true},
	}
	for _, tt := range tests {
		got, err := ParseDeliveryMethod(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parse %q: expected %s got %s", tt.raw, tt.want, got)
		}
		if got.RequiresAddress() != tt.address {
			t.Fatalf("%s requires address: expected %v", got, tt.address)
		}
	}
	if _, err := ParseDeliveryMethod("drone"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
	if DeliveryMethod("").RequiresAddress() {
		t.Fatalf("empty method should not require an address")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if _, err := ParsePaymentMethod("ach"); err == nil {
		t.Fatalf("expected error for unsupported method")
	}
	if got, err := ParsePaymentMethod("wallet"); err != nil || got != PaymentMethodWallet {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
}
