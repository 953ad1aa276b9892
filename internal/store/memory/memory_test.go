package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
)

func TestTransitionOrderCompareAndSet(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	order := domain.Order{
		ID:     "ord-test",
		Number: "20250310-0001",
		Type:   domain.OrderTypeTakeaway,
		Items: []domain.OrderItem{
			{ProductID: "prd-airmineral", Name: "Air Mineral 600ml", Qty: 1, UnitPriceCents: 500, LineTotalCents: 500},
		},
		SubtotalCents: 500,
		TotalCents:    500,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
	}
	if _, err := s.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := s.TransitionOrder(ctx, order.ID, domain.OrderStatusPreparing, domain.OrderStatusReady, now); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("stale from-status: err = %v, want ErrInvalidTransition", err)
	}
	updated, err := s.TransitionOrder(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPreparing, now)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != domain.OrderStatusPreparing {
		t.Errorf("status = %q, want preparing", updated.Status)
	}
	if _, err := s.TransitionOrder(ctx, "missing", domain.OrderStatusPending, domain.OrderStatusPreparing, now); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing order: err = %v, want ErrNotFound", err)
	}
}

func TestCreateOrderAtomicStock(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	before, err := s.GetProductByID(ctx, "prd-kerupuk")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	// One satisfiable line plus one over-ask: nothing may be decremented.
	_, err = s.CreateOrder(ctx, domain.Order{
		ID:     "ord-overask",
		Number: "20250310-0001",
		Type:   domain.OrderTypeTakeaway,
		Items: []domain.OrderItem{
			{ProductID: "prd-kerupuk", Qty: 1},
			{ProductID: "prd-tehbotol", Qty: 10_000},
		},
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	after, err := s.GetProductByID(ctx, "prd-kerupuk")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != before.Quantity {
		t.Errorf("quantity changed on failed order: %d -> %d", before.Quantity, after.Quantity)
	}
}

func TestCreateOrderSumsDuplicateLines(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	before, err := s.GetProductByID(ctx, "prd-kerupuk")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	// Two lines of the same product, each within stock on its own but
	// jointly over it, must be rejected as a whole.
	_, err = s.CreateOrder(ctx, domain.Order{
		ID:     "ord-duplines",
		Number: "20250310-0001",
		Type:   domain.OrderTypeTakeaway,
		Items: []domain.OrderItem{
			{ProductID: "prd-kerupuk", Qty: before.Quantity},
			{ProductID: "prd-kerupuk", Qty: before.Quantity},
		},
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	after, err := s.GetProductByID(ctx, "prd-kerupuk")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != before.Quantity {
		t.Errorf("quantity = %d after rejected order, want %d", after.Quantity, before.Quantity)
	}

	// When the combined quantity fits, both lines decrement.
	half := before.Quantity / 2
	if _, err := s.CreateOrder(ctx, domain.Order{
		ID:     "ord-duplines-ok",
		Number: "20250310-0002",
		Type:   domain.OrderTypeTakeaway,
		Items: []domain.OrderItem{
			{ProductID: "prd-kerupuk", Qty: half},
			{ProductID: "prd-kerupuk", Qty: half},
		},
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	after, err = s.GetProductByID(ctx, "prd-kerupuk")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if want := before.Quantity - 2*half; after.Quantity != want {
		t.Errorf("quantity = %d, want %d", after.Quantity, want)
	}
}

func TestNotificationDedupIsAtomic(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	n := domain.Notification{
		Type:      domain.NotificationLowStock,
		Title:     "Low stock: Kerupuk",
		RelatedID: "prd-kerupuk",
	}
	created, err := s.CreateNotificationIfAbsent(ctx, n)
	if err != nil || !created {
		t.Fatalf("first insert: created=%t err=%v", created, err)
	}
	created, err = s.CreateNotificationIfAbsent(ctx, n)
	if err != nil || created {
		t.Fatalf("duplicate insert: created=%t err=%v", created, err)
	}

	// Same related record but a different type is a distinct alert.
	n.Type = domain.NotificationSystem
	created, err = s.CreateNotificationIfAbsent(ctx, n)
	if err != nil || !created {
		t.Fatalf("different type: created=%t err=%v", created, err)
	}
}

func TestImportAllReplacesEverything(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	snapshot, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if _, err := s.CreateProduct(ctx, domain.Product{
		Name: "Intruder", Type: domain.ProductTypePrepared, PriceCents: 100,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := s.ImportAll(ctx, snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}

	products, err := s.ListProducts(ctx, true)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != len(snapshot.Products) {
		t.Errorf("products = %d, want %d", len(products), len(snapshot.Products))
	}
	for _, p := range products {
		if p.Name == "Intruder" {
			t.Error("import kept a record not in the snapshot")
		}
	}
}

func TestExportAllSnapshotsEveryRecord(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	// More notifications than any list default, plus a deactivated
	// category: a restore must see all of it.
	for i := 0; i < 120; i++ {
		created, err := s.CreateNotificationIfAbsent(ctx, domain.Notification{
			Type:      domain.NotificationLowStock,
			Title:     "Low stock",
			RelatedID: fmt.Sprintf("prd-%03d", i),
		})
		if err != nil || !created {
			t.Fatalf("notification %d: created=%t err=%v", i, created, err)
		}
	}
	if _, err := s.UpdateCategory(ctx, domain.Category{ID: "cat-snack", Name: "Snack", Active: false}); err != nil {
		t.Fatalf("deactivate category: %v", err)
	}

	data, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data.Notifications) != 120 {
		t.Errorf("notifications = %d, want 120", len(data.Notifications))
	}
	found := false
	for _, c := range data.Categories {
		if c.ID == "cat-snack" && !c.Active {
			found = true
		}
	}
	if !found {
		t.Error("inactive category missing from export")
	}
}

func TestListOrdersFilter(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, status := range []string{domain.OrderStatusPending, domain.OrderStatusCompleted, domain.OrderStatusCompleted} {
		_, err := s.CreateOrder(ctx, domain.Order{
			ID:            "ord-" + string(rune('a'+i)),
			Number:        "20250310-000" + string(rune('1'+i)),
			Type:          domain.OrderTypeTakeaway,
			Items:         []domain.OrderItem{{ProductID: "prd-nasgor", Qty: 1}},
			PaymentMethod: domain.PaymentCash,
			Status:        status,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	completed, err := s.ListOrders(ctx, store.OrderFilter{Status: domain.OrderStatusCompleted})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("completed = %d, want 2", len(completed))
	}

	windowed, err := s.ListOrders(ctx, store.OrderFilter{From: base, To: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(windowed) != 2 {
		t.Errorf("windowed = %d, want 2", len(windowed))
	}

	count, err := s.CountOrdersBetween(ctx, base, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
