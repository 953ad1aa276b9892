package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/xid"
)

// defaultPrepMinutes is used for prepared products without an explicit
// preparation time when deciding kitchen auto-ready.
const defaultPrepMinutes = 15

func dayBounds(at time.Time) (time.Time, time.Time) {
	start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return start, start.AddDate(0, 0, 1)
}

// nextOrderNumber yields YYYYMMDD-NNNN where NNNN restarts at 0001 each day.
func (s *Service) nextOrderNumber(ctx context.Context, at time.Time) (string, error) {
	start, end := dayBounds(at)
	count, err := s.store.CountOrdersBetween(ctx, start, end)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", at.Format("20060102"), count+1), nil
}

// bestOfferDiscount returns the largest discount any currently active offer
// grants for the subtotal. Offers outside their window or below their
// minimum subtotal do not apply.
func (s *Service) bestOfferDiscount(ctx context.Context, subtotal int64) int64 {
	offers, err := s.store.ListOffers(ctx, true)
	if err != nil {
		log.Printf("[service] list offers failed, skipping offer discount: %v", err)
		return 0
	}
	now := s.now()

	var best int64
	for _, offer := range offers {
		if offer.StartsAt != nil && now.Before(*offer.StartsAt) {
			continue
		}
		if offer.EndsAt != nil && now.After(*offer.EndsAt) {
			continue
		}
		if subtotal < offer.MinSubtotalCents {
			continue
		}
		var discount int64
		switch offer.Type {
		case domain.OfferTypePercent:
			discount = int64(float64(subtotal) * offer.DiscountPercent / 100)
		case domain.OfferTypeFlat:
			discount = offer.FlatDiscountCents
		}
		if discount > best {
			best = discount
		}
	}
	return best
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	if !domain.IsOrderType(req.Type) {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, req.Type)
	}
	if !domain.IsPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrValidation)
	}
	if req.Type == domain.OrderTypeDineIn && req.TableID == "" {
		return nil, fmt.Errorf("%w: dine-in orders need a table", ErrValidation)
	}
	if req.Type == domain.OrderTypeDelivery && req.DeliveryAddress == "" {
		return nil, fmt.Errorf("%w: delivery orders need an address", ErrValidation)
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
		ids = append(ids, item.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var subtotal, totalCost int64
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		lineTotal := product.PriceCents * int64(item.Qty)
		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            item.Qty,
			UnitPriceCents: product.PriceCents,
			CostCents:      product.CostCents,
			LineTotalCents: lineTotal,
		})
		subtotal += lineTotal
		totalCost += product.CostCents * int64(item.Qty)
	}

	var discount int64
	switch req.DiscountType {
	case "percent":
		if req.DiscountValue < 0 || req.DiscountValue > 100 {
			return nil, fmt.Errorf("%w: percent discount must be between 0 and 100", ErrValidation)
		}
		discount = subtotal * req.DiscountValue / 100
	case "flat":
		if req.DiscountValue < 0 {
			return nil, fmt.Errorf("%w: discount cannot be negative", ErrValidation)
		}
		discount = req.DiscountValue
	case "":
		// no manual discount
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrValidation, req.DiscountType)
	}
	if offerDiscount := s.bestOfferDiscount(ctx, subtotal); offerDiscount > discount {
		discount = offerDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}

	var table *domain.RestaurantTable
	if req.Type == domain.OrderTypeDineIn {
		table, err = s.store.GetTableByID(ctx, req.TableID)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", req.TableID, err)
		}
		if table.Status == domain.TableOccupied {
			return nil, ErrTableOccupied
		}
	}

	now := s.now()
	number, err := s.nextOrderNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	total := subtotal - discount
	order := domain.Order{
		ID:              xid.New("ord"),
		Number:          number,
		Type:            req.Type,
		Items:           items,
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		TotalCents:      total,
		TotalCostCents:  totalCost,
		ProfitCents:     total - totalCost,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.OrderStatusPending,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Note:            req.Note,
		CreatedAt:       now,
	}
	if table != nil {
		order.TableID = table.ID
		order.TableName = table.Name
	}

	created, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if table != nil {
		table.Status = domain.TableOccupied
		table.OccupiedAt = &now
		table.CurrentOrderID = created.ID
		if _, err := s.store.UpdateTable(ctx, *table); err != nil {
			log.Printf("[service] occupy table %s for order %s failed: %v", table.ID, created.Number, err)
		}
	}

	if _, err := s.store.CreateNotificationIfAbsent(ctx, domain.Notification{
		Type:      domain.NotificationNewOrder,
		Title:     "New order " + created.Number,
		Message:   fmt.Sprintf("%s order with %d items", created.Type, len(created.Items)),
		RelatedID: created.ID,
		CreatedAt: now,
	}); err != nil {
		log.Printf("[service] new-order notification for %s failed: %v", created.Number, err)
	}

	s.publishStatus(ctx, created, "", domain.OrderStatusPending)
	s.logActivity(ctx, "create", "order", created.ID, created.Number)
	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.store.GetOrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !domain.IsOrderStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, filter.Status)
	}
	if filter.Type != "" && !domain.IsOrderType(filter.Type) {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, filter.Type)
	}
	return s.store.ListOrders(ctx, filter)
}

// UpdateOrderStatus moves an order along its lifecycle. Only transitions in
// the status table are allowed; completion and cancellation trigger the
// follow-up work (summary refresh, restock, table release).
func (s *Service) UpdateOrderStatus(ctx context.Context, id, newStatus string) (*domain.Order, error) {
	if !domain.IsOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, newStatus)
	}
	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%s to %s: %w", order.Status, newStatus, store.ErrInvalidTransition)
	}

	now := s.now()
	updated, err := s.store.TransitionOrder(ctx, id, order.Status, newStatus, now)
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case domain.OrderStatusReady:
		if _, err := s.store.CreateNotificationIfAbsent(ctx, domain.Notification{
			Type:      domain.NotificationOrderReady,
			Title:     "Order " + updated.Number + " is ready",
			Message:   "Kitchen finished order " + updated.Number,
			RelatedID: updated.ID,
			CreatedAt: now,
		}); err != nil {
			log.Printf("[service] ready notification for %s failed: %v", updated.Number, err)
		}
	case domain.OrderStatusCompleted:
		s.releaseTable(ctx, updated)
		// Summaries aggregate orders by their creation day, so an order
		// completed after midnight still lands on the day it was taken.
		if err := s.RecomputeDailySummary(ctx, updated.CreatedAt); err != nil {
			log.Printf("[service] summary refresh after %s failed: %v", updated.Number, err)
		}
	case domain.OrderStatusCancelled:
		if err := s.store.RestockOrderItems(ctx, *updated); err != nil {
			log.Printf("[service] restock for cancelled %s failed: %v", updated.Number, err)
		}
		s.releaseTable(ctx, updated)
	}

	s.publishStatus(ctx, updated, order.Status, newStatus)
	s.logActivity(ctx, "status", "order", updated.ID, order.Status+" -> "+newStatus)
	return updated, nil
}

func (s *Service) releaseTable(ctx context.Context, order *domain.Order) {
	if order.TableID == "" {
		return
	}
	table, err := s.store.GetTableByID(ctx, order.TableID)
	if err != nil {
		log.Printf("[service] release table %s failed: %v", order.TableID, err)
		return
	}
	if table.CurrentOrderID != order.ID {
		return
	}
	table.Status = domain.TableAvailable
	table.OccupiedAt = nil
	table.CurrentOrderID = ""
	if _, err := s.store.UpdateTable(ctx, *table); err != nil {
		log.Printf("[service] release table %s failed: %v", order.TableID, err)
	}
}

func (s *Service) publishStatus(ctx context.Context, order *domain.Order, oldStatus, newStatus string) {
	actor := ActorFromContext(ctx)
	err := s.events.PublishOrderStatus(ctx, domain.OrderStatusEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   actor.Username,
		Timestamp:   s.now(),
	})
	if err != nil {
		log.Printf("[service] publish status event for %s failed: %v", order.Number, err)
	}
}

// AdvanceKitchenOrders is the kitchen tick: pending orders are picked up
// for preparation, and preparing orders whose longest preparation time has
// elapsed are marked ready. It is driven by the background sweeper.
func (s *Service) AdvanceKitchenOrders(ctx context.Context) error {
	now := s.now()

	pending, err := s.store.ListOrdersInStatus(ctx, domain.OrderStatusPending)
	if err != nil {
		return err
	}
	for _, order := range pending {
		if _, err := s.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing); err != nil {
			// Lost the race with a cashier cancelling; nothing to do.
			if errors.Is(err, store.ErrInvalidTransition) {
				continue
			}
			return err
		}
	}

	preparing, err := s.store.ListOrdersInStatus(ctx, domain.OrderStatusPreparing)
	if err != nil {
		return err
	}
	for _, order := range preparing {
		prep, err := s.orderPrepDuration(ctx, order)
		if err != nil {
			return err
		}
		if now.Sub(order.CreatedAt) < prep {
			continue
		}
		if _, err := s.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusReady); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				continue
			}
			return err
		}
	}
	return nil
}

// orderPrepDuration is the longest preparation time across the order's
// prepared items. Stored-only orders are ready immediately.
func (s *Service) orderPrepDuration(ctx context.Context, order domain.Order) (time.Duration, error) {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	maxMinutes := 0
	for _, product := range products {
		if product.Type != domain.ProductTypePrepared {
			continue
		}
		minutes := product.PreparationMinutes
		if minutes == 0 {
			minutes = defaultPrepMinutes
		}
		if minutes > maxMinutes {
			maxMinutes = minutes
		}
	}
	return time.Duration(maxMinutes) * time.Minute, nil
}
