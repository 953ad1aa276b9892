package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dapurpos/backend/internal/cache"
	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/store/memory"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *testClock, context.Context) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)}
	svc := New(memory.NewSeeded(), nil, nil)
	svc.now = clock.Now
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
	return svc, clock, ctx
}

func mustCreateProduct(t *testing.T, svc *Service, ctx context.Context, req domain.ProductCreateRequest) *domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(ctx, req)
	if err != nil {
		t.Fatalf("create product %s: %v", req.Name, err)
	}
	return product
}

func TestCreateOrderTotals(t *testing.T) {
	svc, _, ctx := newTestService(t)

	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill Platter", Type: domain.ProductTypePrepared,
		CostCents: 1400, PriceCents: 3500, PreparationMinutes: 10,
	})
	soda := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Soda Can", Type: domain.ProductTypeStored,
		CostCents: 250, PriceCents: 500, InitialQuantity: 10, MinQuantityAlert: 2,
	})

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		DiscountType:  "flat",
		DiscountValue: 500,
		Items: []domain.OrderItemRequest{
			{ProductID: grill.ID, Qty: 2},
			{ProductID: soda.ID, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	wantSubtotal := int64(2*3500 + 500)
	if order.SubtotalCents != wantSubtotal {
		t.Errorf("subtotal = %d, want %d", order.SubtotalCents, wantSubtotal)
	}
	if order.DiscountCents != 500 {
		t.Errorf("discount = %d, want 500", order.DiscountCents)
	}
	if order.TotalCents != order.SubtotalCents-order.DiscountCents {
		t.Errorf("total = %d, want subtotal minus discount %d", order.TotalCents, order.SubtotalCents-order.DiscountCents)
	}
	wantCost := int64(2*1400 + 250)
	if order.TotalCostCents != wantCost {
		t.Errorf("total cost = %d, want %d", order.TotalCostCents, wantCost)
	}
	if order.ProfitCents != order.TotalCents-order.TotalCostCents {
		t.Errorf("profit = %d, want total minus cost %d", order.ProfitCents, order.TotalCents-order.TotalCostCents)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("status = %q, want pending", order.Status)
	}

	// Stored stock decremented, prepared untouched.
	sodaAfter, err := svc.store.GetProductByID(ctx, soda.ID)
	if err != nil {
		t.Fatalf("get soda: %v", err)
	}
	if sodaAfter.Quantity != 9 {
		t.Errorf("soda quantity = %d, want 9", sodaAfter.Quantity)
	}
}

func TestCreateOrderPercentDiscountClamped(t *testing.T) {
	svc, _, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
	})

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCard,
		DiscountType:  "percent",
		DiscountValue: 100,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TotalCents != 0 {
		t.Errorf("total = %d, want 0 at 100%% discount", order.TotalCents)
	}

	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCard,
		DiscountType:  "percent",
		DiscountValue: 150,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("150%% discount: err = %v, want ErrValidation", err)
	}
}

func TestOrderNumbersSequentialPerDay(t *testing.T) {
	svc, clock, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
	})

	req := domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	}

	for i, want := range []string{"20250310-0001", "20250310-0002", "20250310-0003"} {
		order, err := svc.CreateOrder(ctx, req)
		if err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
		if order.Number != want {
			t.Errorf("order %d number = %q, want %q", i, order.Number, want)
		}
	}

	// The counter restarts the next day.
	clock.Advance(24 * time.Hour)
	order, err := svc.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("next-day order: %v", err)
	}
	if order.Number != "20250311-0001" {
		t.Errorf("next-day number = %q, want 20250311-0001", order.Number)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	svc, _, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
	})
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Jumping pending straight to completed must be rejected.
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("pending->completed: err = %v, want ErrInvalidTransition", err)
	}

	for _, status := range []string{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusCompleted} {
		if _, err := svc.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	final, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.CompletedAt == nil {
		t.Error("completed order has no CompletedAt")
	}

	// Completed is terminal.
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("completed->cancelled: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelledOrderRestocks(t *testing.T) {
	svc, _, ctx := newTestService(t)
	soda := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Soda", Type: domain.ProductTypeStored, CostCents: 100, PriceCents: 500,
		InitialQuantity: 10, MinQuantityAlert: 2,
	})
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: soda.ID, Qty: 4}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	after, err := svc.store.GetProductByID(ctx, soda.ID)
	if err != nil {
		t.Fatalf("get soda: %v", err)
	}
	if after.Quantity != 10 {
		t.Errorf("quantity after cancel = %d, want 10", after.Quantity)
	}
}

func TestInsufficientStockRejectsOrder(t *testing.T) {
	svc, _, ctx := newTestService(t)
	soda := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Soda", Type: domain.ProductTypeStored, CostCents: 100, PriceCents: 500,
		InitialQuantity: 2,
	})

	_, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: soda.ID, Qty: 3}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Nothing was decremented.
	after, err := svc.store.GetProductByID(ctx, soda.ID)
	if err != nil {
		t.Fatalf("get soda: %v", err)
	}
	if after.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", after.Quantity)
	}
}

func TestDineInOccupiesAndReleasesTable(t *testing.T) {
	svc, _, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
	})

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeDineIn,
		PaymentMethod: domain.PaymentCash,
		TableID:       "tbl-1",
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	table, err := svc.store.GetTableByID(ctx, "tbl-1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != domain.TableOccupied || table.OccupiedAt == nil || table.CurrentOrderID != order.ID {
		t.Fatalf("table not occupied by order: %+v", table)
	}

	// A second dine-in order on the same table is rejected.
	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeDineIn,
		PaymentMethod: domain.PaymentCash,
		TableID:       "tbl-1",
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	}); !errors.Is(err, ErrTableOccupied) {
		t.Fatalf("second order: err = %v, want ErrTableOccupied", err)
	}

	for _, status := range []string{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusCompleted} {
		if _, err := svc.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	table, err = svc.store.GetTableByID(ctx, "tbl-1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != domain.TableAvailable || table.OccupiedAt != nil || table.CurrentOrderID != "" {
		t.Fatalf("table not released after completion: %+v", table)
	}
}

func countNotifications(t *testing.T, svc *Service, ctx context.Context, typ, relatedID string) int {
	t.Helper()
	notifications, err := svc.ListNotifications(ctx, false, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	count := 0
	for _, n := range notifications {
		if n.Type == typ && n.RelatedID == relatedID {
			count++
		}
	}
	return count
}

func TestLowStockNotificationDedup(t *testing.T) {
	svc, _, ctx := newTestService(t)
	soda := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Soda", Type: domain.ProductTypeStored, CostCents: 100, PriceCents: 500,
		InitialQuantity: 3, MinQuantityAlert: 5,
	})

	for i := 0; i < 3; i++ {
		if err := svc.RunNotificationSweep(ctx); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationLowStock, soda.ID); got != 1 {
		t.Fatalf("low-stock notifications = %d, want 1", got)
	}

	// Once the alert is read, a persisting condition regenerates it.
	if _, err := svc.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if err := svc.RunNotificationSweep(ctx); err != nil {
		t.Fatalf("sweep after read: %v", err)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationLowStock, soda.ID); got != 2 {
		t.Fatalf("low-stock notifications after read = %d, want 2", got)
	}

	// Restocked product stops alerting.
	qty := 10
	if _, err := svc.UpdateProduct(ctx, soda.ID, domain.ProductUpdateRequest{Quantity: &qty}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if _, err := svc.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if err := svc.RunNotificationSweep(ctx); err != nil {
		t.Fatalf("sweep after restock: %v", err)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationLowStock, soda.ID); got != 2 {
		t.Fatalf("low-stock notifications after restock = %d, want still 2", got)
	}
}

func TestTableTimeNotification(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	if _, err := svc.SetTableStatus(ctx, "tbl-2", domain.TableOccupied); err != nil {
		t.Fatalf("occupy table: %v", err)
	}

	// At 59 minutes nothing fires.
	clock.Advance(59 * time.Minute)
	if err := svc.RunNotificationSweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationTableTime, "tbl-2"); got != 0 {
		t.Fatalf("notifications at 59m = %d, want 0", got)
	}

	clock.Advance(2 * time.Minute)
	if err := svc.RunNotificationSweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationTableTime, "tbl-2"); got != 1 {
		t.Fatalf("notifications at 61m = %d, want 1", got)
	}

	// Unread alert suppresses duplicates.
	clock.Advance(30 * time.Minute)
	if err := svc.RunNotificationSweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationTableTime, "tbl-2"); got != 1 {
		t.Fatalf("notifications after second sweep = %d, want 1", got)
	}
}

func TestDailySummaryAggregation(t *testing.T) {
	svc, clock, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 400, PriceCents: 1000,
	})

	complete := func(orderType, payment string) {
		t.Helper()
		req := domain.OrderCreateRequest{
			Type:          orderType,
			PaymentMethod: payment,
			Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
		}
		if orderType == domain.OrderTypeDineIn {
			req.TableID = "tbl-3"
		}
		if orderType == domain.OrderTypeDelivery {
			req.DeliveryAddress = "Jl. Merdeka 1"
		}
		order, err := svc.CreateOrder(ctx, req)
		if err != nil {
			t.Fatalf("create %s order: %v", orderType, err)
		}
		for _, status := range []string{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusCompleted} {
			if _, err := svc.UpdateOrderStatus(ctx, order.ID, status); err != nil {
				t.Fatalf("advance %s order: %v", orderType, err)
			}
		}
	}

	complete(domain.OrderTypeDineIn, domain.PaymentCash)
	complete(domain.OrderTypeDelivery, domain.PaymentCard)
	complete(domain.OrderTypeTakeaway, domain.PaymentWallet)

	// A pending order must not count.
	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	}); err != nil {
		t.Fatalf("pending order: %v", err)
	}

	date := clock.Now().Format("2006-01-02")
	summary, err := svc.GetDailySummary(ctx, date)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.OrderCount != 3 {
		t.Errorf("order count = %d, want 3", summary.OrderCount)
	}
	if summary.TotalSalesCents != 3000 {
		t.Errorf("total sales = %d, want 3000", summary.TotalSalesCents)
	}
	if summary.ProfitCents != 3*(1000-400) {
		t.Errorf("profit = %d, want %d", summary.ProfitCents, 3*(1000-400))
	}
	if summary.DineInCount != 1 || summary.DeliveryCount != 1 || summary.TakeawayCount != 1 {
		t.Errorf("type counts = %d/%d/%d, want 1/1/1", summary.DineInCount, summary.DeliveryCount, summary.TakeawayCount)
	}
	if summary.CashCount != 1 || summary.CardCount != 1 || summary.WalletCount != 1 {
		t.Errorf("payment counts = %d/%d/%d, want 1/1/1", summary.CashCount, summary.CardCount, summary.WalletCount)
	}

	// Recomputing from scratch yields identical numbers.
	if err := svc.RecomputeDailySummary(ctx, clock.Now()); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	again, err := svc.GetDailySummary(ctx, date)
	if err != nil {
		t.Fatalf("get summary again: %v", err)
	}
	if again.TotalSalesCents != summary.TotalSalesCents || again.OrderCount != summary.OrderCount {
		t.Errorf("recompute changed summary: %+v vs %+v", again, summary)
	}
}

func TestCompletedAfterMidnightCountsOnOrderDay(t *testing.T) {
	svc, clock, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 400, PriceCents: 1000,
	})

	// Taken at 23:30, completed after midnight.
	clock.Advance(13*time.Hour + 30*time.Minute)
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// A summary record for the order's day already exists, so a refresh
	// aimed at the wrong day would leave it stale rather than 404.
	if err := svc.RecomputeDailySummary(ctx, clock.Now()); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	clock.Advance(time.Hour)
	for _, status := range []string{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusCompleted} {
		if _, err := svc.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("advance order: %v", err)
		}
	}

	summary, err := svc.GetDailySummary(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.OrderCount != 1 || summary.TotalSalesCents != 1000 {
		t.Errorf("order day summary = %d orders / %d cents, want 1 / 1000", summary.OrderCount, summary.TotalSalesCents)
	}
	nextDay, err := svc.GetDailySummary(ctx, "2025-03-11")
	if err != nil {
		t.Fatalf("get next-day summary: %v", err)
	}
	if nextDay.OrderCount != 0 {
		t.Errorf("completion day got %d orders, want 0", nextDay.OrderCount)
	}
}

type fakeSummaryCache struct {
	entries map[string]domain.DailySummary
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: map[string]domain.DailySummary{}}
}

func (c *fakeSummaryCache) GetSummary(_ context.Context, date string) (*domain.DailySummary, error) {
	summary, ok := c.entries[date]
	if !ok {
		return nil, cache.ErrMiss
	}
	copySummary := summary
	return &copySummary, nil
}

func (c *fakeSummaryCache) SetSummary(_ context.Context, summary domain.DailySummary, _ time.Duration) error {
	c.entries[summary.Date] = summary
	return nil
}

func (c *fakeSummaryCache) InvalidateSummary(_ context.Context, date string) error {
	delete(c.entries, date)
	return nil
}

func (c *fakeSummaryCache) Close() error { return nil }

func TestSummaryRecomputeOnMissWarmsCache(t *testing.T) {
	summaryCache := newFakeSummaryCache()
	clock := &testClock{t: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)}
	svc := New(memory.NewSeeded(), summaryCache, nil)
	svc.now = clock.Now
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})

	summary, err := svc.GetDailySummary(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.OrderCount != 0 {
		t.Errorf("order count = %d, want 0", summary.OrderCount)
	}
	if _, ok := summaryCache.entries["2025-03-10"]; !ok {
		t.Fatal("recompute on miss did not warm the cache")
	}

	// Subsequent reads come from the cache.
	tampered := summaryCache.entries["2025-03-10"]
	tampered.OrderCount = 42
	summaryCache.entries["2025-03-10"] = tampered
	again, err := svc.GetDailySummary(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("get summary again: %v", err)
	}
	if again.OrderCount != 42 {
		t.Errorf("order count = %d, want the cached 42", again.OrderCount)
	}
}

func TestKitchenAutoAdvance(t *testing.T) {
	svc, clock, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
		PreparationMinutes: 10,
	})
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := svc.AdvanceKitchenOrders(ctx); err != nil {
		t.Fatalf("kitchen tick: %v", err)
	}
	current, _ := svc.GetOrder(ctx, order.ID)
	if current.Status != domain.OrderStatusPreparing {
		t.Fatalf("status after first tick = %q, want preparing", current.Status)
	}

	// Not ready before the preparation time elapses.
	clock.Advance(5 * time.Minute)
	if err := svc.AdvanceKitchenOrders(ctx); err != nil {
		t.Fatalf("kitchen tick: %v", err)
	}
	current, _ = svc.GetOrder(ctx, order.ID)
	if current.Status != domain.OrderStatusPreparing {
		t.Fatalf("status at 5m = %q, want preparing", current.Status)
	}

	clock.Advance(6 * time.Minute)
	if err := svc.AdvanceKitchenOrders(ctx); err != nil {
		t.Fatalf("kitchen tick: %v", err)
	}
	current, _ = svc.GetOrder(ctx, order.ID)
	if current.Status != domain.OrderStatusReady {
		t.Fatalf("status at 11m = %q, want ready", current.Status)
	}
	if got := countNotifications(t, svc, ctx, domain.NotificationOrderReady, order.ID); got != 1 {
		t.Errorf("ready notifications = %d, want 1", got)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	svc, _, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 1000,
	})
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	doc, err := svc.ExportBackup(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Version != domain.BackupVersion {
		t.Fatalf("version = %d, want %d", doc.Version, domain.BackupVersion)
	}

	// Mutate, then restore the snapshot.
	mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Extra", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 500,
	})
	if err := svc.ImportBackup(ctx, *doc); err != nil {
		t.Fatalf("import: %v", err)
	}

	products, err := svc.ListProducts(ctx, true)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != len(doc.Data.Products) {
		t.Errorf("products after import = %d, want %d", len(products), len(doc.Data.Products))
	}
	restored, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order after import: %v", err)
	}
	if restored.TotalCents != order.TotalCents || len(restored.Items) != len(order.Items) {
		t.Errorf("order changed over round trip: %+v vs %+v", restored, order)
	}

	// Unknown versions are refused.
	doc.Version = 99
	if err := svc.ImportBackup(ctx, *doc); !errors.Is(err, ErrUnsupportedBackupVersion) {
		t.Fatalf("import v99: err = %v, want ErrUnsupportedBackupVersion", err)
	}
}

func TestGoalProgress(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	if _, err := svc.UpsertSalesGoal(ctx, "2025-03", 10000, 5000); err != nil {
		t.Fatalf("upsert goal: %v", err)
	}

	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 500, PriceCents: 2500,
	})
	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	for _, status := range []string{domain.OrderStatusPreparing, domain.OrderStatusReady, domain.OrderStatusCompleted} {
		if _, err := svc.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	progress, err := svc.GetGoalProgress(ctx, clock.Now().Format("2006-01"))
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.ActualSalesCents != 2500 {
		t.Errorf("actual sales = %d, want 2500", progress.ActualSalesCents)
	}
	if progress.SalesPercent != 25 {
		t.Errorf("sales percent = %f, want 25", progress.SalesPercent)
	}
	if progress.ActualProfitCents != 2000 {
		t.Errorf("actual profit = %d, want 2000", progress.ActualProfitCents)
	}
}

func TestShiftLifecycle(t *testing.T) {
	svc, _, ctx := newTestService(t)

	if _, err := svc.GetActiveShift(ctx); !errors.Is(err, ErrNoOpenShift) {
		t.Fatalf("active shift before open: err = %v, want ErrNoOpenShift", err)
	}
	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningFloatCents: 50000})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{}); !errors.Is(err, ErrShiftAlreadyOpen) {
		t.Fatalf("double open: err = %v, want ErrShiftAlreadyOpen", err)
	}

	closed, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ClosingCashCents: 125000, Notes: "ok"})
	if err != nil {
		t.Fatalf("close shift: %v", err)
	}
	if closed.ID != shift.ID || closed.Status != domain.ShiftStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("closed shift = %+v", closed)
	}
	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{}); !errors.Is(err, ErrNoOpenShift) {
		t.Fatalf("double close: err = %v, want ErrNoOpenShift", err)
	}
}

func TestActiveOfferAppliesBestDiscount(t *testing.T) {
	svc, _, ctx := newTestService(t)
	grill := mustCreateProduct(t, svc, ctx, domain.ProductCreateRequest{
		Name: "Grill", Type: domain.ProductTypePrepared, CostCents: 100, PriceCents: 2000,
	})

	offer, err := svc.CreateOffer(ctx, domain.OfferCreateRequest{
		Name: "Weekday 10%", Type: domain.OfferTypePercent, DiscountPercent: 10,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if _, err := svc.ToggleOffer(ctx, offer.ID, true); err != nil {
		t.Fatalf("activate offer: %v", err)
	}

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.DiscountCents != 200 {
		t.Errorf("offer discount = %d, want 200", order.DiscountCents)
	}

	// A larger manual discount wins over the offer.
	order, err = svc.CreateOrder(ctx, domain.OrderCreateRequest{
		Type:          domain.OrderTypeTakeaway,
		PaymentMethod: domain.PaymentCash,
		DiscountType:  "flat",
		DiscountValue: 500,
		Items:         []domain.OrderItemRequest{{ProductID: grill.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.DiscountCents != 500 {
		t.Errorf("discount = %d, want manual 500", order.DiscountCents)
	}
}
