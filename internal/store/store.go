package store

import (
	"context"
	"errors"
	"time"

	"dapurpos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// OrderFilter narrows ListOrders. Zero time bounds mean unbounded; empty
// status/type mean any.
type OrderFilter struct {
	From   time.Time
	To     time.Time
	Status string
	Type   string
	Limit  int
}

type Repository interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)

	ListTables(ctx context.Context) ([]domain.RestaurantTable, error)
	GetTableByID(ctx context.Context, id string) (*domain.RestaurantTable, error)
	CreateTable(ctx context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error)
	UpdateTable(ctx context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error)

	// CreateOrder writes the order and decrements stored-product stock in a
	// single transaction. Returns ErrInsufficientStock if any line would take
	// a stored product below zero.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	CountOrdersBetween(ctx context.Context, from time.Time, to time.Time) (int, error)
	ListOrdersInStatus(ctx context.Context, status string) ([]domain.Order, error)
	// TransitionOrder is a compare-and-set: it fails with ErrInvalidTransition
	// when the order is no longer in the expected `from` status.
	TransitionOrder(ctx context.Context, id string, from string, to string, at time.Time) (*domain.Order, error)
	// RestockOrderItems returns the stored-product quantities of a cancelled
	// order to stock.
	RestockOrderItems(ctx context.Context, order domain.Order) error

	// CreateNotificationIfAbsent inserts the notification unless an unread one
	// with the same (type, related_id) already exists. Reports whether a
	// record was created.
	CreateNotificationIfAbsent(ctx context.Context, notification domain.Notification) (bool, error)
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) (int, error)
	DeleteNotification(ctx context.Context, id string) error

	UpsertDailySummary(ctx context.Context, summary domain.DailySummary) error
	GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error)
	ListDailySummaries(ctx context.Context, fromDate string, toDate string) ([]domain.DailySummary, error)

	CreateShift(ctx context.Context, shift domain.WorkShift) (*domain.WorkShift, error)
	GetActiveShift(ctx context.Context, username string) (*domain.WorkShift, error)
	CloseActiveShift(ctx context.Context, username string, closingCashCents int64, notes string, closedAt time.Time) (*domain.WorkShift, error)
	ListShifts(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.WorkShift, error)

	CreateReservation(ctx context.Context, reservation domain.TableReservation) (*domain.TableReservation, error)
	GetReservationByID(ctx context.Context, id string) (*domain.TableReservation, error)
	ListReservations(ctx context.Context, from time.Time, to time.Time) ([]domain.TableReservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status string) (*domain.TableReservation, error)

	CreateOffer(ctx context.Context, offer domain.Offer) (*domain.Offer, error)
	ListOffers(ctx context.Context, activeOnly bool) ([]domain.Offer, error)
	UpdateOfferActive(ctx context.Context, id string, active bool) (*domain.Offer, error)

	UpsertSalesGoal(ctx context.Context, goal domain.SalesGoal) (*domain.SalesGoal, error)
	GetSalesGoal(ctx context.Context, month string) (*domain.SalesGoal, error)
	ListSalesGoals(ctx context.Context) ([]domain.SalesGoal, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error)

	ListRawMaterials(ctx context.Context, includeInactive bool) ([]domain.RawMaterial, error)
	CreateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error)
	UpdateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error)
	ListLowStockRawMaterials(ctx context.Context) ([]domain.RawMaterial, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error)

	CreateActivityLog(ctx context.Context, entry domain.ActivityLog) error
	ListActivityLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.ActivityLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
	SetUserActive(ctx context.Context, username string, active bool) error

	ExportAll(ctx context.Context) (domain.BackupData, error)
	// ImportAll clears every collection and bulk-inserts the given data in a
	// single transaction.
	ImportAll(ctx context.Context, data domain.BackupData) error
}
