package domain

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// orderTransitions is the closed transition table for order statuses.
// completed and cancelled are terminal.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusDelivered: {OrderStatusCompleted},
}

func IsOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether an order may move from one status to
// another. Same-status writes are rejected; illegal jumps (e.g. pending
// straight to completed) are rejected at the workflow boundary instead of
// being left to callers.
func CanTransition(from string, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

func IsOrderType(orderType string) bool {
	switch orderType {
	case OrderTypeDineIn, OrderTypeDelivery, OrderTypeTakeaway:
		return true
	default:
		return false
	}
}

func IsPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentWallet:
		return true
	default:
		return false
	}
}
