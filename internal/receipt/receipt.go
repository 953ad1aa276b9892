// Package receipt renders printable HTML documents: the 58mm thermal
// receipt, an A5 invoice, the kitchen ticket and the daily sales report.
// The frontend opens the returned HTML in a print dialog.
package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"dapurpos/backend/internal/domain"
)

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var funcs = template.FuncMap{
	"money": formatCents,
	"datetime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

type orderView struct {
	Order    *domain.Order
	Settings *domain.Settings
}

var thermalTmpl = template.Must(template.New("thermal").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Order.Number}}</title>
<style>
body { font-family: monospace; width: 58mm; margin: 0; padding: 4px; font-size: 11px; }
.center { text-align: center; }
.line { border-top: 1px dashed #000; margin: 4px 0; }
table { width: 100%; border-collapse: collapse; }
td.amount { text-align: right; white-space: nowrap; }
</style></head>
<body>
<div class="center">
<strong>{{.Settings.StoreName}}</strong><br>
{{if .Settings.Address}}{{.Settings.Address}}<br>{{end}}
{{if .Settings.Phone}}{{.Settings.Phone}}<br>{{end}}
</div>
<div class="line"></div>
No: {{.Order.Number}}<br>
{{datetime .Order.CreatedAt}}<br>
{{if .Order.TableName}}Table: {{.Order.TableName}}<br>{{end}}
{{if .Order.CustomerName}}Customer: {{.Order.CustomerName}}<br>{{end}}
<div class="line"></div>
<table>
{{range .Order.Items}}<tr><td>{{.Qty}}x {{.Name}}</td><td class="amount">{{money .LineTotalCents}}</td></tr>
{{end}}</table>
<div class="line"></div>
<table>
<tr><td>Subtotal</td><td class="amount">{{money .Order.SubtotalCents}}</td></tr>
{{if .Order.DiscountCents}}<tr><td>Discount</td><td class="amount">-{{money .Order.DiscountCents}}</td></tr>{{end}}
<tr><td><strong>Total</strong></td><td class="amount"><strong>{{money .Order.TotalCents}}</strong></td></tr>
<tr><td>Paid by</td><td class="amount">{{.Order.PaymentMethod}}</td></tr>
</table>
<div class="line"></div>
<div class="center">{{if .Settings.ReceiptFooter}}{{.Settings.ReceiptFooter}}{{else}}Thank you!{{end}}</div>
<script>window.print()</script>
</body></html>`))

var invoiceTmpl = template.Must(template.New("invoice").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Invoice {{.Order.Number}}</title>
<style>
body { font-family: sans-serif; max-width: 148mm; margin: 0 auto; padding: 16px; font-size: 13px; }
h1 { font-size: 18px; margin-bottom: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { border-bottom: 1px solid #ccc; padding: 6px 4px; text-align: left; }
td.amount, th.amount { text-align: right; }
.totals td { border: none; }
</style></head>
<body>
<h1>{{.Settings.StoreName}}</h1>
<p>{{.Settings.Address}}{{if .Settings.Phone}} &middot; {{.Settings.Phone}}{{end}}</p>
<p><strong>Invoice {{.Order.Number}}</strong><br>
{{datetime .Order.CreatedAt}}<br>
{{if .Order.CustomerName}}Billed to: {{.Order.CustomerName}}{{if .Order.CustomerPhone}} ({{.Order.CustomerPhone}}){{end}}<br>{{end}}
{{if .Order.DeliveryAddress}}Deliver to: {{.Order.DeliveryAddress}}<br>{{end}}</p>
<table>
<tr><th>Item</th><th class="amount">Qty</th><th class="amount">Unit</th><th class="amount">Total</th></tr>
{{range .Order.Items}}<tr><td>{{.Name}}</td><td class="amount">{{.Qty}}</td><td class="amount">{{money .UnitPriceCents}}</td><td class="amount">{{money .LineTotalCents}}</td></tr>
{{end}}
<tr class="totals"><td colspan="3" class="amount">Subtotal</td><td class="amount">{{money .Order.SubtotalCents}}</td></tr>
{{if .Order.DiscountCents}}<tr class="totals"><td colspan="3" class="amount">Discount</td><td class="amount">-{{money .Order.DiscountCents}}</td></tr>{{end}}
<tr class="totals"><td colspan="3" class="amount"><strong>Total ({{.Settings.Currency}})</strong></td><td class="amount"><strong>{{money .Order.TotalCents}}</strong></td></tr>
</table>
<p>Payment method: {{.Order.PaymentMethod}}</p>
<script>window.print()</script>
</body></html>`))

var kitchenTmpl = template.Must(template.New("kitchen").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Kitchen {{.Order.Number}}</title>
<style>
body { font-family: monospace; width: 58mm; margin: 0; padding: 4px; font-size: 13px; }
.line { border-top: 1px dashed #000; margin: 4px 0; }
</style></head>
<body>
<strong>** KITCHEN **</strong><br>
{{.Order.Number}} ({{.Order.Type}})<br>
{{datetime .Order.CreatedAt}}<br>
{{if .Order.TableName}}Table: {{.Order.TableName}}<br>{{end}}
<div class="line"></div>
{{range .Order.Items}}<strong>{{.Qty}}x</strong> {{.Name}}<br>
{{end}}
{{if .Order.Note}}<div class="line"></div>Note: {{.Order.Note}}{{end}}
<script>window.print()</script>
</body></html>`))

type dailyReportView struct {
	Summary  *domain.DailySummary
	Settings *domain.Settings
}

var dailyReportTmpl = template.Must(template.New("daily").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Daily report {{.Summary.Date}}</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 0 auto; padding: 16px; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
td { border-bottom: 1px solid #eee; padding: 6px 4px; }
td.amount { text-align: right; }
</style></head>
<body>
<h1>{{.Settings.StoreName}}</h1>
<h2>Daily report {{.Summary.Date}}</h2>
<table>
<tr><td>Total sales</td><td class="amount">{{money .Summary.TotalSalesCents}}</td></tr>
<tr><td>Total cost</td><td class="amount">{{money .Summary.TotalCostCents}}</td></tr>
<tr><td><strong>Profit</strong></td><td class="amount"><strong>{{money .Summary.ProfitCents}}</strong></td></tr>
<tr><td>Orders completed</td><td class="amount">{{.Summary.OrderCount}}</td></tr>
<tr><td>Dine-in / Delivery / Takeaway</td><td class="amount">{{.Summary.DineInCount}} / {{.Summary.DeliveryCount}} / {{.Summary.TakeawayCount}}</td></tr>
<tr><td>Cash / Card / Wallet</td><td class="amount">{{.Summary.CashCount}} / {{.Summary.CardCount}} / {{.Summary.WalletCount}}</td></tr>
</table>
<script>window.print()</script>
</body></html>`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func RenderThermal(order *domain.Order, settings *domain.Settings) (string, error) {
	return render(thermalTmpl, orderView{Order: order, Settings: settings})
}

func RenderInvoiceA5(order *domain.Order, settings *domain.Settings) (string, error) {
	return render(invoiceTmpl, orderView{Order: order, Settings: settings})
}

func RenderKitchenTicket(order *domain.Order, settings *domain.Settings) (string, error) {
	return render(kitchenTmpl, orderView{Order: order, Settings: settings})
}

func RenderDailyReport(summary *domain.DailySummary, settings *domain.Settings) (string, error) {
	return render(dailyReportTmpl, dailyReportView{Summary: summary, Settings: settings})
}
