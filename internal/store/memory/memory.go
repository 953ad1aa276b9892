package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/xid"
)

// Store is the embedded per-device record store. Every multi-step write
// (order + stock, notification dedup + insert, import) happens under one
// lock, so partial writes are never observable.
type Store struct {
	mu                sync.RWMutex
	products          map[string]domain.Product
	categories        map[string]domain.Category
	tables            map[string]domain.RestaurantTable
	ordersByID        map[string]*domain.Order
	notificationsByID map[string]domain.Notification
	summariesByDate   map[string]domain.DailySummary
	shiftsByID        map[string]domain.WorkShift
	activeShiftByUser map[string]string
	reservationsByID  map[string]domain.TableReservation
	offersByID        map[string]domain.Offer
	goalsByMonth      map[string]domain.SalesGoal
	expensesByID      map[string]domain.Expense
	rawMaterialsByID  map[string]domain.RawMaterial
	activityLogs      []domain.ActivityLog
	settings          *domain.Settings
	usersByUsername   map[string]domain.UserAccount
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset. Production deployments use
// PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: "cat-main", Name: "Main Course", Active: true, CreatedAt: now},
		{ID: "cat-beverage", Name: "Beverage", Active: true, CreatedAt: now},
		{ID: "cat-snack", Name: "Snack", Active: true, CreatedAt: now},
		{ID: "cat-packaged", Name: "Packaged", Active: true, CreatedAt: now},
	}

	products := []domain.Product{
		{ID: "prd-nasgor", Name: "Nasi Goreng Spesial", CategoryID: "cat-main", CategoryName: "Main Course", Type: domain.ProductTypePrepared, CostCents: 1400, PriceCents: 3500, PreparationMinutes: 12, Active: true},
		{ID: "prd-ayam", Name: "Ayam Bakar", CategoryID: "cat-main", CategoryName: "Main Course", Type: domain.ProductTypePrepared, CostCents: 1900, PriceCents: 4200, PreparationMinutes: 18, Active: true},
		{ID: "prd-mie", Name: "Mie Goreng Jawa", CategoryID: "cat-main", CategoryName: "Main Course", Type: domain.ProductTypePrepared, CostCents: 1200, PriceCents: 3000, PreparationMinutes: 10, Active: true},
		{ID: "prd-esteh", Name: "Es Teh Manis", CategoryID: "cat-beverage", CategoryName: "Beverage", Type: domain.ProductTypePrepared, CostCents: 300, PriceCents: 800, PreparationMinutes: 3, Active: true},
		{ID: "prd-jeruk", Name: "Es Jeruk", CategoryID: "cat-beverage", CategoryName: "Beverage", Type: domain.ProductTypePrepared, CostCents: 450, PriceCents: 1200, PreparationMinutes: 3, Active: true},
		{ID: "prd-airmineral", Name: "Air Mineral 600ml", CategoryID: "cat-packaged", CategoryName: "Packaged", Type: domain.ProductTypeStored, CostCents: 250, PriceCents: 500, Quantity: 96, MinQuantityAlert: 24, Active: true},
		{ID: "prd-kerupuk", Name: "Kerupuk Udang", CategoryID: "cat-snack", CategoryName: "Snack", Type: domain.ProductTypeStored, CostCents: 150, PriceCents: 400, Quantity: 60, MinQuantityAlert: 15, Active: true},
		{ID: "prd-tehbotol", Name: "Teh Botol", CategoryID: "cat-packaged", CategoryName: "Packaged", Type: domain.ProductTypeStored, CostCents: 350, PriceCents: 700, Quantity: 48, MinQuantityAlert: 12, Active: true},
	}

	tables := []domain.RestaurantTable{
		{ID: "tbl-1", Name: "Meja 1", Number: 1, Capacity: 2, Status: domain.TableAvailable, CreatedAt: now},
		{ID: "tbl-2", Name: "Meja 2", Number: 2, Capacity: 4, Status: domain.TableAvailable, CreatedAt: now},
		{ID: "tbl-3", Name: "Meja 3", Number: 3, Capacity: 4, Status: domain.TableAvailable, CreatedAt: now},
		{ID: "tbl-4", Name: "Meja 4", Number: 4, Capacity: 6, Status: domain.TableAvailable, CreatedAt: now},
		{ID: "tbl-5", Name: "Meja 5", Number: 5, Capacity: 8, Status: domain.TableAvailable, CreatedAt: now},
	}

	rawMaterials := []domain.RawMaterial{
		{ID: "raw-beras", Name: "Beras", Unit: "kg", Quantity: 40, MinQuantity: 10, UnitCostCents: 1400, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "raw-ayam", Name: "Ayam Potong", Unit: "kg", Quantity: 18, MinQuantity: 5, UnitCostCents: 3800, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "raw-minyak", Name: "Minyak Goreng", Unit: "liter", Quantity: 12, MinQuantity: 4, UnitCostCents: 1700, Active: true, CreatedAt: now, UpdatedAt: now},
	}

	categoryMap := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		categoryMap[c.ID] = c
	}
	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		p.CreatedAt = now
		p.UpdatedAt = now
		productMap[p.ID] = p
	}
	tableMap := make(map[string]domain.RestaurantTable, len(tables))
	for _, t := range tables {
		tableMap[t.ID] = t
	}
	materialMap := make(map[string]domain.RawMaterial, len(rawMaterials))
	for _, m := range rawMaterials {
		materialMap[m.ID] = m
	}

	return &Store{
		products:          productMap,
		categories:        categoryMap,
		tables:            tableMap,
		ordersByID:        make(map[string]*domain.Order),
		notificationsByID: make(map[string]domain.Notification),
		summariesByDate:   make(map[string]domain.DailySummary),
		shiftsByID:        make(map[string]domain.WorkShift),
		activeShiftByUser: make(map[string]string),
		reservationsByID:  make(map[string]domain.TableReservation),
		offersByID:        make(map[string]domain.Offer),
		goalsByMonth:      make(map[string]domain.SalesGoal),
		expensesByID:      make(map[string]domain.Expense),
		rawMaterialsByID:  materialMap,
		activityLogs:      make([]domain.ActivityLog, 0, 128),
		settings: &domain.Settings{
			StoreName: "Dapur POS",
			Currency:  "IDR",
			UpdatedAt: now,
		},
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active && !includeInactive {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.CategoryName == b.CategoryName {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.CategoryName, b.CategoryName)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.PriceCents < 1 || product.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	if category, ok := s.categories[product.CategoryID]; ok {
		product.CategoryName = category.Name
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.Active = true

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.Active {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 || product.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	if category, ok := s.categories[product.CategoryID]; ok {
		product.CategoryName = category.Name
	}
	product.UpdatedAt = time.Now().UTC()

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	low := make([]domain.Product, 0, 8)
	for _, p := range s.products {
		if !p.Active || p.Type != domain.ProductTypeStored {
			continue
		}
		if p.Quantity <= p.MinQuantityAlert {
			low = append(low, p)
		}
	}
	slices.SortFunc(low, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return low, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if !c.Active {
			continue
		}
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if _, exists := s.categories[category.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	category.Active = true

	s.categories[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" || category.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.categories[category.ID] = category

	// Keep the denormalized category name on products in sync.
	for id, p := range s.products {
		if p.CategoryID == category.ID {
			p.CategoryName = category.Name
			s.products[id] = p
		}
	}

	updated := category
	return &updated, nil
}

func (s *Store) ListTables(_ context.Context) ([]domain.RestaurantTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]domain.RestaurantTable, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	slices.SortFunc(tables, func(a, b domain.RestaurantTable) int {
		return a.Number - b.Number
	})
	return tables, nil
}

func (s *Store) GetTableByID(_ context.Context, id string) (*domain.RestaurantTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tables[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyTable := table
	return &copyTable, nil
}

func (s *Store) CreateTable(_ context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error) {
	if table.Name == "" || table.Number < 1 || table.Capacity < 1 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if table.ID == "" {
		table.ID = xid.New("tbl")
	}
	if _, exists := s.tables[table.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	for _, existing := range s.tables {
		if existing.Number == table.Number {
			return nil, store.ErrInvalidRecord
		}
	}
	if table.Status == "" {
		table.Status = domain.TableAvailable
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}

	s.tables[table.ID] = table
	created := table
	return &created, nil
}

func (s *Store) UpdateTable(_ context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error) {
	if table.ID == "" || table.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tables[table.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.tables[table.ID] = table
	updated := table
	return &updated, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.Number == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ordersByID[order.ID]; exists {
		return nil, store.ErrInvalidRecord
	}

	// Check stock for every stored line before touching anything, so a
	// failure leaves no partial decrement behind. Lines are summed per
	// product first: an order may list the same product more than once,
	// and the combined quantity is what must fit within stock.
	asked := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if product.Type != domain.ProductTypeStored {
			continue
		}
		asked[item.ProductID] += item.Qty
		if asked[item.ProductID] > product.Quantity {
			return nil, store.ErrInsufficientStock
		}
	}
	for productID, qty := range asked {
		product := s.products[productID]
		product.Quantity -= qty
		product.UpdatedAt = time.Now().UTC()
		s.products[productID] = product
	}

	stored := cloneOrder(order)
	s.ordersByID[order.ID] = &stored
	created := cloneOrder(stored)
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOrder := cloneOrder(*order)
	return &copyOrder, nil
}

func (s *Store) ListOrders(_ context.Context, filter store.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, 64)
	for _, order := range s.ordersByID {
		if !filter.From.IsZero() && order.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !order.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		result = append(result, cloneOrder(*order))
	}

	slices.SortFunc(result, func(a, b domain.Order) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.Number, a.Number)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) CountOrdersBetween(_ context.Context, from time.Time, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, order := range s.ordersByID {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) ListOrdersInStatus(_ context.Context, status string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, 16)
	for _, order := range s.ordersByID {
		if order.Status != status {
			continue
		}
		result = append(result, cloneOrder(*order))
	}
	slices.SortFunc(result, func(a, b domain.Order) int {
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		return 0
	})
	return result, nil
}

func (s *Store) TransitionOrder(_ context.Context, id string, from string, to string, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if order.Status != from {
		return nil, store.ErrInvalidTransition
	}

	order.Status = to
	if to == domain.OrderStatusCompleted {
		completedAt := at
		order.CompletedAt = &completedAt
	}

	copyOrder := cloneOrder(*order)
	return &copyOrder, nil
}

func (s *Store) RestockOrderItems(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range order.Items {
		product, ok := s.products[item.ProductID]
		if !ok || product.Type != domain.ProductTypeStored {
			continue
		}
		product.Quantity += item.Qty
		product.UpdatedAt = time.Now().UTC()
		s.products[item.ProductID] = product
	}
	return nil
}

func (s *Store) CreateNotificationIfAbsent(_ context.Context, notification domain.Notification) (bool, error) {
	if notification.Type == "" || notification.Title == "" {
		return false, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.notificationsByID {
		if !existing.Read && existing.Type == notification.Type && existing.RelatedID == notification.RelatedID {
			return false, nil
		}
	}

	if notification.ID == "" {
		notification.ID = xid.New("ntf")
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	s.notificationsByID[notification.ID] = notification
	return true, nil
}

func (s *Store) ListNotifications(_ context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.Notification, 0, min(limit, len(s.notificationsByID)))
	for _, n := range s.notificationsByID {
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	slices.SortFunc(result, func(a, b domain.Notification) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notificationsByID[id]
	if !exists {
		return store.ErrNotFound
	}
	n.Read = true
	s.notificationsByID[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for id, n := range s.notificationsByID {
		if n.Read {
			continue
		}
		n.Read = true
		s.notificationsByID[id] = n
		updated++
	}
	return updated, nil
}

func (s *Store) DeleteNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notificationsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.notificationsByID, id)
	return nil
}

func (s *Store) UpsertDailySummary(_ context.Context, summary domain.DailySummary) error {
	if summary.Date == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary.UpdatedAt = time.Now().UTC()
	s.summariesByDate[summary.Date] = summary
	return nil
}

func (s *Store) GetDailySummary(_ context.Context, date string) (*domain.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.summariesByDate[date]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySummary := summary
	return &copySummary, nil
}

func (s *Store) ListDailySummaries(_ context.Context, fromDate string, toDate string) ([]domain.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DailySummary, 0, 31)
	for date, summary := range s.summariesByDate {
		if fromDate != "" && date < fromDate {
			continue
		}
		if toDate != "" && date > toDate {
			continue
		}
		result = append(result, summary)
	}
	slices.SortFunc(result, func(a, b domain.DailySummary) int {
		return strings.Compare(a.Date, b.Date)
	})
	return result, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.WorkShift) (*domain.WorkShift, error) {
	if shift.Username == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, open := s.activeShiftByUser[shift.Username]; open {
		return nil, store.ErrInvalidRecord
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen

	s.shiftsByID[shift.ID] = shift
	s.activeShiftByUser[shift.Username] = shift.ID
	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(_ context.Context, username string) (*domain.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, open := s.activeShiftByUser[username]
	if !open {
		return nil, store.ErrNotFound
	}
	shift := s.shiftsByID[shiftID]
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) CloseActiveShift(_ context.Context, username string, closingCashCents int64, notes string, closedAt time.Time) (*domain.WorkShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shiftID, open := s.activeShiftByUser[username]
	if !open {
		return nil, store.ErrNotFound
	}
	shift := s.shiftsByID[shiftID]
	shift.Status = domain.ShiftStatusClosed
	shift.ClosingCashCents = closingCashCents
	shift.Notes = notes
	closed := closedAt
	shift.ClosedAt = &closed

	s.shiftsByID[shiftID] = shift
	delete(s.activeShiftByUser, username)
	result := shift
	return &result, nil
}

func (s *Store) ListShifts(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.WorkShift, 0, min(limit, len(s.shiftsByID)))
	for _, shift := range s.shiftsByID {
		if !from.IsZero() && shift.OpenedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !shift.OpenedAt.Before(to) {
			continue
		}
		result = append(result, shift)
	}
	slices.SortFunc(result, func(a, b domain.WorkShift) int {
		if a.OpenedAt.After(b.OpenedAt) {
			return -1
		}
		if a.OpenedAt.Before(b.OpenedAt) {
			return 1
		}
		return 0
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateReservation(_ context.Context, reservation domain.TableReservation) (*domain.TableReservation, error) {
	if reservation.TableID == "" || reservation.CustomerName == "" || reservation.ReservedFor.IsZero() {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, exists := s.tables[reservation.TableID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if reservation.ID == "" {
		reservation.ID = xid.New("rsv")
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now().UTC()
	}
	reservation.TableName = table.Name
	if reservation.Status == "" {
		reservation.Status = domain.ReservationBooked
	}

	s.reservationsByID[reservation.ID] = reservation
	created := reservation
	return &created, nil
}

func (s *Store) GetReservationByID(_ context.Context, id string) (*domain.TableReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, exists := s.reservationsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyReservation := reservation
	return &copyReservation, nil
}

func (s *Store) ListReservations(_ context.Context, from time.Time, to time.Time) ([]domain.TableReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.TableReservation, 0, 32)
	for _, reservation := range s.reservationsByID {
		if !from.IsZero() && reservation.ReservedFor.Before(from) {
			continue
		}
		if !to.IsZero() && !reservation.ReservedFor.Before(to) {
			continue
		}
		result = append(result, reservation)
	}
	slices.SortFunc(result, func(a, b domain.TableReservation) int {
		if a.ReservedFor.Before(b.ReservedFor) {
			return -1
		}
		if a.ReservedFor.After(b.ReservedFor) {
			return 1
		}
		return 0
	})
	return result, nil
}

func (s *Store) UpdateReservationStatus(_ context.Context, id string, status string) (*domain.TableReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservationsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	reservation.Status = status
	s.reservationsByID[id] = reservation
	copyReservation := reservation
	return &copyReservation, nil
}

func (s *Store) CreateOffer(_ context.Context, offer domain.Offer) (*domain.Offer, error) {
	if offer.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if offer.ID == "" {
		offer.ID = xid.New("offer")
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	s.offersByID[offer.ID] = offer
	created := offer
	return &created, nil
}

func (s *Store) ListOffers(_ context.Context, activeOnly bool) ([]domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Offer, 0, len(s.offersByID))
	for _, offer := range s.offersByID {
		if activeOnly && !offer.Active {
			continue
		}
		result = append(result, offer)
	}
	slices.SortFunc(result, func(a, b domain.Offer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) UpdateOfferActive(_ context.Context, id string, active bool) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, exists := s.offersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	offer.Active = active
	s.offersByID[id] = offer
	copyOffer := offer
	return &copyOffer, nil
}

func (s *Store) UpsertSalesGoal(_ context.Context, goal domain.SalesGoal) (*domain.SalesGoal, error) {
	if goal.Month == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.goalsByMonth[goal.Month]; ok {
		goal.ID = existing.ID
		goal.CreatedAt = existing.CreatedAt
	}
	if goal.ID == "" {
		goal.ID = xid.New("goal")
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}

	s.goalsByMonth[goal.Month] = goal
	saved := goal
	return &saved, nil
}

func (s *Store) GetSalesGoal(_ context.Context, month string) (*domain.SalesGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goal, exists := s.goalsByMonth[month]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyGoal := goal
	return &copyGoal, nil
}

func (s *Store) ListSalesGoals(_ context.Context) ([]domain.SalesGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SalesGoal, 0, len(s.goalsByMonth))
	for _, goal := range s.goalsByMonth {
		result = append(result, goal)
	}
	slices.SortFunc(result, func(a, b domain.SalesGoal) int {
		return strings.Compare(b.Month, a.Month)
	})
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.IncurredAt.IsZero() {
		expense.IncurredAt = expense.CreatedAt
	}

	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 200
	}
	result := make([]domain.Expense, 0, min(limit, len(s.expensesByID)))
	for _, expense := range s.expensesByID {
		if !from.IsZero() && expense.IncurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && !expense.IncurredAt.Before(to) {
			continue
		}
		result = append(result, expense)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.IncurredAt.After(b.IncurredAt) {
			return -1
		}
		if a.IncurredAt.Before(b.IncurredAt) {
			return 1
		}
		return 0
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListRawMaterials(_ context.Context, includeInactive bool) ([]domain.RawMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RawMaterial, 0, len(s.rawMaterialsByID))
	for _, m := range s.rawMaterialsByID {
		if !m.Active && !includeInactive {
			continue
		}
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b domain.RawMaterial) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateRawMaterial(_ context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if material.Name == "" || material.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if material.ID == "" {
		material.ID = xid.New("raw")
	}
	if _, exists := s.rawMaterialsByID[material.ID]; exists {
		return nil, store.ErrInvalidRecord
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now
	material.Active = true

	s.rawMaterialsByID[material.ID] = material
	created := material
	return &created, nil
}

func (s *Store) UpdateRawMaterial(_ context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if material.ID == "" || material.Name == "" || material.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rawMaterialsByID[material.ID]; !exists {
		return nil, store.ErrNotFound
	}
	material.UpdatedAt = time.Now().UTC()
	s.rawMaterialsByID[material.ID] = material
	updated := material
	return &updated, nil
}

func (s *Store) ListLowStockRawMaterials(_ context.Context) ([]domain.RawMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	low := make([]domain.RawMaterial, 0, 8)
	for _, m := range s.rawMaterialsByID {
		if !m.Active {
			continue
		}
		if m.Quantity <= m.MinQuantity {
			low = append(low, m)
		}
	}
	slices.SortFunc(low, func(a, b domain.RawMaterial) int {
		return strings.Compare(a.Name, b.Name)
	})
	return low, nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	copySettings := *s.settings
	return &copySettings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) (*domain.Settings, error) {
	if settings.StoreName == "" {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = time.Now().UTC()
	s.settings = &settings
	saved := settings
	return &saved, nil
}

func (s *Store) CreateActivityLog(_ context.Context, entry domain.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("act")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.activityLogs = append(s.activityLogs, entry)
	return nil
}

func (s *Store) ListActivityLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.ActivityLog, 0, min(limit, len(s.activityLogs)))
	for _, entry := range s.activityLogs {
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.ActivityLog) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return 0
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidRecord
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		result = append(result, user)
	}
	slices.SortFunc(result, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return result, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) SetUserActive(_ context.Context, username string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Active = active
	s.usersByUsername[username] = user
	return nil
}

// sortedByKey flattens a map collection into a slice ordered by the given
// key, so exports are deterministic.
func sortedByKey[T any](items map[string]T, key func(T) string) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		result = append(result, item)
	}
	slices.SortFunc(result, func(a, b T) int {
		return strings.Compare(key(a), key(b))
	})
	return result
}

// ExportAll snapshots every collection under a single read lock, so the
// backup is internally consistent even while orders keep flowing. Inactive
// records are included; a restore must reproduce the full state.
func (s *Store) ExportAll(_ context.Context) (domain.BackupData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.ordersByID))
	for _, order := range s.ordersByID {
		orders = append(orders, cloneOrder(*order))
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		return strings.Compare(a.Number, b.Number)
	})

	var settings *domain.Settings
	if s.settings != nil {
		copySettings := *s.settings
		settings = &copySettings
	}

	return domain.BackupData{
		Products:       sortedByKey(s.products, func(p domain.Product) string { return p.ID }),
		Categories:     sortedByKey(s.categories, func(c domain.Category) string { return c.ID }),
		Tables:         sortedByKey(s.tables, func(t domain.RestaurantTable) string { return t.ID }),
		Orders:         orders,
		Notifications:  sortedByKey(s.notificationsByID, func(n domain.Notification) string { return n.ID }),
		DailySummaries: sortedByKey(s.summariesByDate, func(d domain.DailySummary) string { return d.Date }),
		Shifts:         sortedByKey(s.shiftsByID, func(w domain.WorkShift) string { return w.ID }),
		Reservations:   sortedByKey(s.reservationsByID, func(r domain.TableReservation) string { return r.ID }),
		Offers:         sortedByKey(s.offersByID, func(o domain.Offer) string { return o.ID }),
		SalesGoals:     sortedByKey(s.goalsByMonth, func(g domain.SalesGoal) string { return g.Month }),
		Expenses:       sortedByKey(s.expensesByID, func(e domain.Expense) string { return e.ID }),
		ActivityLogs:   slices.Clone(s.activityLogs),
		RawMaterials:   sortedByKey(s.rawMaterialsByID, func(m domain.RawMaterial) string { return m.ID }),
		Users:          sortedByKey(s.usersByUsername, func(u domain.UserAccount) string { return u.Username }),
		Settings:       settings,
	}, nil
}

func (s *Store) ImportAll(_ context.Context, data domain.BackupData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[string]domain.Product, len(data.Products))
	for _, p := range data.Products {
		products[p.ID] = p
	}
	categories := make(map[string]domain.Category, len(data.Categories))
	for _, c := range data.Categories {
		categories[c.ID] = c
	}
	tables := make(map[string]domain.RestaurantTable, len(data.Tables))
	for _, t := range data.Tables {
		tables[t.ID] = t
	}
	orders := make(map[string]*domain.Order, len(data.Orders))
	for _, o := range data.Orders {
		stored := cloneOrder(o)
		orders[o.ID] = &stored
	}
	notifications := make(map[string]domain.Notification, len(data.Notifications))
	for _, n := range data.Notifications {
		notifications[n.ID] = n
	}
	summaries := make(map[string]domain.DailySummary, len(data.DailySummaries))
	for _, summary := range data.DailySummaries {
		summaries[summary.Date] = summary
	}
	shifts := make(map[string]domain.WorkShift, len(data.Shifts))
	activeShifts := make(map[string]string)
	for _, shift := range data.Shifts {
		shifts[shift.ID] = shift
		if shift.Status == domain.ShiftStatusOpen {
			activeShifts[shift.Username] = shift.ID
		}
	}
	reservations := make(map[string]domain.TableReservation, len(data.Reservations))
	for _, r := range data.Reservations {
		reservations[r.ID] = r
	}
	offers := make(map[string]domain.Offer, len(data.Offers))
	for _, o := range data.Offers {
		offers[o.ID] = o
	}
	goals := make(map[string]domain.SalesGoal, len(data.SalesGoals))
	for _, g := range data.SalesGoals {
		goals[g.Month] = g
	}
	expenses := make(map[string]domain.Expense, len(data.Expenses))
	for _, e := range data.Expenses {
		expenses[e.ID] = e
	}
	materials := make(map[string]domain.RawMaterial, len(data.RawMaterials))
	for _, m := range data.RawMaterials {
		materials[m.ID] = m
	}
	users := make(map[string]domain.UserAccount, len(data.Users))
	for _, u := range data.Users {
		users[u.Username] = u
	}

	s.products = products
	s.categories = categories
	s.tables = tables
	s.ordersByID = orders
	s.notificationsByID = notifications
	s.summariesByDate = summaries
	s.shiftsByID = shifts
	s.activeShiftByUser = activeShifts
	s.reservationsByID = reservations
	s.offersByID = offers
	s.goalsByMonth = goals
	s.expensesByID = expenses
	s.rawMaterialsByID = materials
	s.activityLogs = append(make([]domain.ActivityLog, 0, len(data.ActivityLogs)), data.ActivityLogs...)
	s.usersByUsername = users
	if data.Settings != nil {
		copySettings := *data.Settings
		s.settings = &copySettings
	}

	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	cloned := order
	cloned.Items = append(make([]domain.OrderItem, 0, len(order.Items)), order.Items...)
	if order.CompletedAt != nil {
		completedAt := *order.CompletedAt
		cloned.CompletedAt = &completedAt
	}
	return cloned
}
