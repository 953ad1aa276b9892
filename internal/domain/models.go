package domain

import "time"

type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CategoryID         string    `json:"category_id"`
	CategoryName       string    `json:"category_name"`
	Type               string    `json:"type"`
	CostCents          int64     `json:"cost_cents"`
	PriceCents         int64     `json:"price_cents"`
	Quantity           int       `json:"quantity"`
	MinQuantityAlert   int       `json:"min_quantity_alert"`
	PreparationMinutes int       `json:"preparation_minutes,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name               string `json:"name"`
	CategoryID         string `json:"category_id"`
	Type               string `json:"type"`
	CostCents          int64  `json:"cost_cents"`
	PriceCents         int64  `json:"price_cents"`
	InitialQuantity    int    `json:"initial_quantity"`
	MinQuantityAlert   int    `json:"min_quantity_alert"`
	PreparationMinutes int    `json:"preparation_minutes"`
}

type ProductUpdateRequest struct {
	Name               *string `json:"name,omitempty"`
	CategoryID         *string `json:"category_id,omitempty"`
	CostCents          *int64  `json:"cost_cents,omitempty"`
	PriceCents         *int64  `json:"price_cents,omitempty"`
	Quantity           *int    `json:"quantity,omitempty"`
	MinQuantityAlert   *int    `json:"min_quantity_alert,omitempty"`
	PreparationMinutes *int    `json:"preparation_minutes,omitempty"`
	Active             *bool   `json:"active,omitempty"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Note      string    `json:"note,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	CostCents      int64  `json:"cost_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"number"`
	Type            string      `json:"type"`
	Items           []OrderItem `json:"items"`
	SubtotalCents   int64       `json:"subtotal_cents"`
	DiscountCents   int64       `json:"discount_cents"`
	TotalCents      int64       `json:"total_cents"`
	TotalCostCents  int64       `json:"total_cost_cents"`
	ProfitCents     int64       `json:"profit_cents"`
	PaymentMethod   string      `json:"payment_method"`
	Status          string      `json:"status"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	TableID         string      `json:"table_id,omitempty"`
	TableName       string      `json:"table_name,omitempty"`
	Note            string      `json:"note,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreateRequest struct {
	Type            string             `json:"type"`
	Items           []OrderItemRequest `json:"items"`
	DiscountValue   int64              `json:"discount_value"`
	DiscountType    string             `json:"discount_type"`
	PaymentMethod   string             `json:"payment_method"`
	CustomerName    string             `json:"customer_name,omitempty"`
	CustomerPhone   string             `json:"customer_phone,omitempty"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	TableID         string             `json:"table_id,omitempty"`
	Note            string             `json:"note,omitempty"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type RestaurantTable struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Number         int        `json:"number"`
	Capacity       int        `json:"capacity"`
	Status         string     `json:"status"`
	OccupiedAt     *time.Time `json:"occupied_at,omitempty"`
	CurrentOrderID string     `json:"current_order_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type TableCreateRequest struct {
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID string    `json:"related_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type DailySummary struct {
	Date            string    `json:"date"`
	TotalSalesCents int64     `json:"total_sales_cents"`
	TotalCostCents  int64     `json:"total_cost_cents"`
	ProfitCents     int64     `json:"profit_cents"`
	OrderCount      int       `json:"order_count"`
	DineInCount     int       `json:"dine_in_count"`
	DeliveryCount   int       `json:"delivery_count"`
	TakeawayCount   int       `json:"takeaway_count"`
	CashCount       int       `json:"cash_count"`
	CardCount       int       `json:"card_count"`
	WalletCount     int       `json:"wallet_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type WorkShift struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Status            string     `json:"status"`
	OpeningFloatCents int64      `json:"opening_float_cents"`
	ClosingCashCents  int64      `json:"closing_cash_cents,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

type ShiftOpenRequest struct {
	OpeningFloatCents int64 `json:"opening_float_cents"`
}

type ShiftCloseRequest struct {
	ClosingCashCents int64  `json:"closing_cash_cents"`
	Notes            string `json:"notes"`
}

type TableReservation struct {
	ID            string    `json:"id"`
	TableID       string    `json:"table_id"`
	TableName     string    `json:"table_name"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	PartySize     int       `json:"party_size"`
	ReservedFor   time.Time `json:"reserved_for"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReservationCreateRequest struct {
	TableID       string `json:"table_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PartySize     int    `json:"party_size"`
	ReservedFor   string `json:"reserved_for"`
	Notes         string `json:"notes"`
}

type ReservationStatusRequest struct {
	Status string `json:"status"`
}

type Offer struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	DiscountPercent   float64    `json:"discount_percent"`
	FlatDiscountCents int64      `json:"flat_discount_cents"`
	MinSubtotalCents  int64      `json:"min_subtotal_cents"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
}

type OfferCreateRequest struct {
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	DiscountPercent   float64 `json:"discount_percent"`
	FlatDiscountCents int64   `json:"flat_discount_cents"`
	MinSubtotalCents  int64   `json:"min_subtotal_cents"`
	StartsAt          string  `json:"starts_at,omitempty"`
	EndsAt            string  `json:"ends_at,omitempty"`
}

type OfferToggleRequest struct {
	Active bool `json:"active"`
}

type SalesGoal struct {
	ID                string    `json:"id"`
	Month             string    `json:"month"`
	TargetSalesCents  int64     `json:"target_sales_cents"`
	TargetProfitCents int64     `json:"target_profit_cents"`
	CreatedAt         time.Time `json:"created_at"`
}

type GoalProgress struct {
	Month             string  `json:"month"`
	TargetSalesCents  int64   `json:"target_sales_cents"`
	ActualSalesCents  int64   `json:"actual_sales_cents"`
	TargetProfitCents int64   `json:"target_profit_cents"`
	ActualProfitCents int64   `json:"actual_profit_cents"`
	SalesPercent      float64 `json:"sales_percent"`
	ProfitPercent     float64 `json:"profit_percent"`
}

type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	IncurredAt  string `json:"incurred_at,omitempty"`
}

type RawMaterial struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	Quantity      float64   `json:"quantity"`
	MinQuantity   float64   `json:"min_quantity"`
	UnitCostCents int64     `json:"unit_cost_cents"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Settings struct {
	StoreName     string    `json:"store_name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	Currency      string    `json:"currency"`
	ReceiptFooter string    `json:"receipt_footer"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ActivityLog struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatusEvent is published to the event broker on every order status
// change.
type OrderStatusEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedBy   string    `json:"changed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// BackupDocument is the versioned export format. Import clears each
// collection and bulk-inserts the arrays below.
type BackupDocument struct {
	Version    int        `json:"version"`
	ExportDate time.Time  `json:"export_date"`
	Data       BackupData `json:"data"`
}

type BackupData struct {
	Products       []Product          `json:"products"`
	Categories     []Category         `json:"categories"`
	Tables         []RestaurantTable  `json:"tables"`
	Orders         []Order            `json:"orders"`
	Notifications  []Notification     `json:"notifications"`
	DailySummaries []DailySummary     `json:"daily_summaries"`
	Shifts         []WorkShift        `json:"shifts"`
	Reservations   []TableReservation `json:"reservations"`
	Offers         []Offer            `json:"offers"`
	SalesGoals     []SalesGoal        `json:"sales_goals"`
	Expenses       []Expense          `json:"expenses"`
	ActivityLogs   []ActivityLog      `json:"activity_logs"`
	RawMaterials   []RawMaterial      `json:"raw_materials"`
	Users          []UserAccount      `json:"users"`
	Settings       *Settings          `json:"settings,omitempty"`
}

const BackupVersion = 1

const (
	ProductTypePrepared = "prepared"
	ProductTypeStored   = "stored"
)

const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeDelivery = "delivery"
	OrderTypeTakeaway = "takeaway"
)

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentWallet = "wallet"
)

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
)

const (
	NotificationLowStock   = "low_stock"
	NotificationTableTime  = "table_time"
	NotificationNewOrder   = "new_order"
	NotificationOrderReady = "order_ready"
	NotificationSystem     = "system"
)

const (
	ReservationBooked    = "booked"
	ReservationSeated    = "seated"
	ReservationCancelled = "cancelled"
	ReservationNoShow    = "no_show"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	OfferTypePercent = "percent"
	OfferTypeFlat    = "flat"
)
