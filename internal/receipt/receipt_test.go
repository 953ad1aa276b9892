package receipt

import (
	"strings"
	"testing"
	"time"

	"dapurpos/backend/internal/domain"
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:     "ord-1",
		Number: "20250310-0007",
		Type:   domain.OrderTypeDineIn,
		Items: []domain.OrderItem{
			{ProductID: "prd-1", Name: "Nasi Goreng", Qty: 2, UnitPriceCents: 3500, LineTotalCents: 7000},
			{ProductID: "prd-2", Name: "Es Teh", Qty: 1, UnitPriceCents: 800, LineTotalCents: 800},
		},
		SubtotalCents: 7800,
		DiscountCents: 300,
		TotalCents:    7500,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.OrderStatusCompleted,
		TableName:     "Meja 4",
		Note:          "no chili",
		CreatedAt:     time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC),
	}
}

func sampleSettings() *domain.Settings {
	return &domain.Settings{
		StoreName:     "Warung Tester",
		Address:       "Jl. Contoh 5",
		Currency:      "IDR",
		ReceiptFooter: "Terima kasih!",
	}
}

func TestRenderThermal(t *testing.T) {
	html, err := RenderThermal(sampleOrder(), sampleSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"20250310-0007", "Warung Tester", "Nasi Goreng", "75.00", "-3.00", "Terima kasih!"} {
		if !strings.Contains(html, want) {
			t.Errorf("thermal receipt missing %q", want)
		}
	}
}

func TestRenderInvoiceA5(t *testing.T) {
	html, err := RenderInvoiceA5(sampleOrder(), sampleSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Invoice 20250310-0007", "IDR", "Es Teh", "78.00"} {
		if !strings.Contains(html, want) {
			t.Errorf("invoice missing %q", want)
		}
	}
}

func TestRenderKitchenTicketOmitsPrices(t *testing.T) {
	html, err := RenderKitchenTicket(sampleOrder(), sampleSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"KITCHEN", "2x", "Nasi Goreng", "no chili"} {
		if !strings.Contains(html, want) {
			t.Errorf("kitchen ticket missing %q", want)
		}
	}
	if strings.Contains(html, "75.00") {
		t.Error("kitchen ticket should not show prices")
	}
}

func TestRenderDailyReport(t *testing.T) {
	summary := &domain.DailySummary{
		Date:            "2025-03-10",
		TotalSalesCents: 125000,
		TotalCostCents:  50000,
		ProfitCents:     75000,
		OrderCount:      14,
		DineInCount:     8,
		DeliveryCount:   4,
		TakeawayCount:   2,
		CashCount:       9,
		CardCount:       3,
		WalletCount:     2,
	}
	html, err := RenderDailyReport(summary, sampleSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"2025-03-10", "1250.00", "750.00", "8 / 4 / 2"} {
		if !strings.Contains(html, want) {
			t.Errorf("daily report missing %q", want)
		}
	}
}

func TestEscapesUserContent(t *testing.T) {
	order := sampleOrder()
	order.Items[0].Name = `<script>alert("x")</script>`
	html, err := RenderThermal(order, sampleSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("item name was not escaped")
	}
}
