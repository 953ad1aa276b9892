// Package postgres implements the record store on PostgreSQL via the pgx
// stdlib driver. Multi-step writes (order + stock, import) run inside a
// single transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	category_name TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	cost_cents BIGINT NOT NULL DEFAULT 0,
	price_cents BIGINT NOT NULL,
	quantity INT NOT NULL DEFAULT 0,
	min_quantity_alert INT NOT NULL DEFAULT 0,
	preparation_minutes INT NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS restaurant_tables (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	number INT NOT NULL UNIQUE,
	capacity INT NOT NULL,
	status TEXT NOT NULL,
	occupied_at TIMESTAMPTZ,
	current_order_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	items JSONB NOT NULL,
	subtotal_cents BIGINT NOT NULL,
	discount_cents BIGINT NOT NULL DEFAULT 0,
	total_cents BIGINT NOT NULL,
	total_cost_cents BIGINT NOT NULL DEFAULT 0,
	profit_cents BIGINT NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL,
	status TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	delivery_address TEXT NOT NULL DEFAULT '',
	table_id TEXT NOT NULL DEFAULT '',
	table_name TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);
CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	related_id TEXT NOT NULL DEFAULT '',
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS daily_summaries (
	date TEXT PRIMARY KEY,
	total_sales_cents BIGINT NOT NULL,
	total_cost_cents BIGINT NOT NULL,
	profit_cents BIGINT NOT NULL,
	order_count INT NOT NULL,
	dine_in_count INT NOT NULL,
	delivery_count INT NOT NULL,
	takeaway_count INT NOT NULL,
	cash_count INT NOT NULL,
	card_count INT NOT NULL,
	wallet_count INT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS work_shifts (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	status TEXT NOT NULL,
	opening_float_cents BIGINT NOT NULL,
	closing_cash_cents BIGINT NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	opened_at TIMESTAMPTZ NOT NULL,
	closed_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_open_user ON work_shifts (username) WHERE status = 'open';
CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	table_id TEXT NOT NULL,
	table_name TEXT NOT NULL DEFAULT '',
	customer_name TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	party_size INT NOT NULL DEFAULT 1,
	reserved_for TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS offers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	discount_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	flat_discount_cents BIGINT NOT NULL DEFAULT 0,
	min_subtotal_cents BIGINT NOT NULL DEFAULT 0,
	starts_at TIMESTAMPTZ,
	ends_at TIMESTAMPTZ,
	active BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS sales_goals (
	id TEXT PRIMARY KEY,
	month TEXT NOT NULL UNIQUE,
	target_sales_cents BIGINT NOT NULL,
	target_profit_cents BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	amount_cents BIGINT NOT NULL,
	incurred_at TIMESTAMPTZ NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS raw_materials (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
	min_quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_cost_cents BIGINT NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	store_name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT 'IDR',
	receipt_footer TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS activity_logs (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	entity_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const productColumns = `id, name, category_id, category_name, type, cost_cents, price_cents, quantity, min_quantity_alert, preparation_minutes, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.Type, &p.CostCents,
		&p.PriceCents, &p.Quantity, &p.MinQuantityAlert, &p.PreparationMinutes, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY category_name, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.PriceCents < 1 || product.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.Active = true

	var categoryName sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = $1`, product.CategoryID).Scan(&categoryName)
	if err == nil && categoryName.Valid {
		product.CategoryName = categoryName.String
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		product.ID, product.Name, product.CategoryID, product.CategoryName, product.Type,
		product.CostCents, product.PriceCents, product.Quantity, product.MinQuantityAlert,
		product.PreparationMinutes, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE active AND id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 || product.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}
	product.UpdatedAt = time.Now().UTC()

	var categoryName sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = $1`, product.CategoryID).Scan(&categoryName)
	if err == nil && categoryName.Valid {
		product.CategoryName = categoryName.String
	}

	result, err := s.db.ExecContext(ctx, `UPDATE products SET name=$2, category_id=$3, category_name=$4,
		cost_cents=$5, price_cents=$6, quantity=$7, min_quantity_alert=$8, preparation_minutes=$9,
		active=$10, updated_at=$11 WHERE id=$1`,
		product.ID, product.Name, product.CategoryID, product.CategoryName, product.CostCents,
		product.PriceCents, product.Quantity, product.MinQuantityAlert, product.PreparationMinutes,
		product.Active, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products
		WHERE active AND type = $1 AND quantity <= min_quantity_alert ORDER BY name`,
		domain.ProductTypeStored)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, note, active, created_at FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Note, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	category.Active = true

	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name, note, active, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		category.ID, category.Name, category.Note, category.Active, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" || category.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE categories SET name=$2, note=$3, active=$4 WHERE id=$1`,
		category.ID, category.Name, category.Note, category.Active)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET category_name=$2 WHERE category_id=$1`,
		category.ID, category.Name); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &category, nil
}

const tableColumns = `id, name, number, capacity, status, occupied_at, current_order_id, created_at`

func scanTable(row interface{ Scan(...any) error }) (domain.RestaurantTable, error) {
	var t domain.RestaurantTable
	err := row.Scan(&t.ID, &t.Name, &t.Number, &t.Capacity, &t.Status, &t.OccupiedAt, &t.CurrentOrderID, &t.CreatedAt)
	return t, err
}

func (s *Store) ListTables(ctx context.Context) ([]domain.RestaurantTable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tableColumns+` FROM restaurant_tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []domain.RestaurantTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *Store) GetTableByID(ctx context.Context, id string) (*domain.RestaurantTable, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id = $1`, id)
	t, err := scanTable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTable(ctx context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error) {
	if table.Name == "" || table.Number < 1 || table.Capacity < 1 {
		return nil, store.ErrInvalidRecord
	}
	if table.ID == "" {
		table.ID = xid.New("tbl")
	}
	if table.Status == "" {
		table.Status = domain.TableAvailable
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO restaurant_tables (`+tableColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		table.ID, table.Name, table.Number, table.Capacity, table.Status,
		table.OccupiedAt, table.CurrentOrderID, table.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	return &table, nil
}

func (s *Store) UpdateTable(ctx context.Context, table domain.RestaurantTable) (*domain.RestaurantTable, error) {
	if table.ID == "" || table.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	result, err := s.db.ExecContext(ctx, `UPDATE restaurant_tables SET name=$2, number=$3, capacity=$4,
		status=$5, occupied_at=$6, current_order_id=$7 WHERE id=$1`,
		table.ID, table.Name, table.Number, table.Capacity, table.Status, table.OccupiedAt, table.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &table, nil
}

const orderColumns = `id, number, type, items, subtotal_cents, discount_cents, total_cents, total_cost_cents, profit_cents, payment_method, status, customer_name, customer_phone, delivery_address, table_id, table_name, note, created_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	var items []byte
	err := row.Scan(&o.ID, &o.Number, &o.Type, &items, &o.SubtotalCents, &o.DiscountCents,
		&o.TotalCents, &o.TotalCostCents, &o.ProfitCents, &o.PaymentMethod, &o.Status,
		&o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.TableID, &o.TableName,
		&o.Note, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("decode order items: %w", err)
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.Number == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		var productType string
		var quantity int
		err := tx.QueryRowContext(ctx, `SELECT type, quantity FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID).Scan(&productType, &quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if productType != domain.ProductTypeStored {
			continue
		}
		if quantity < item.Qty {
			return nil, store.ErrInsufficientStock
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET quantity = quantity - $2, updated_at = NOW() WHERE id = $1`,
			item.ProductID, item.Qty); err != nil {
			return nil, err
		}
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		order.ID, order.Number, order.Type, items, order.SubtotalCents, order.DiscountCents,
		order.TotalCents, order.TotalCostCents, order.ProfitCents, order.PaymentMethod,
		order.Status, order.CustomerName, order.CustomerPhone, order.DeliveryAddress,
		order.TableID, order.TableName, order.Note, order.CreatedAt, order.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, filter store.OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`
	args := []any{}
	idx := 1
	if !filter.From.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(` AND created_at < $%d`, idx)
		args = append(args, filter.To)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, idx)
		args = append(args, filter.Type)
		idx++
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) CountOrdersBetween(ctx context.Context, from time.Time, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&count)
	return count, err
}

func (s *Store) ListOrdersInStatus(ctx context.Context, status string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) TransitionOrder(ctx context.Context, id string, from string, to string, at time.Time) (*domain.Order, error) {
	var completedAt *time.Time
	if to == domain.OrderStatusCompleted {
		completedAt = &at
	}
	result, err := s.db.ExecContext(ctx, `UPDATE orders SET status = $3, completed_at = COALESCE($4, completed_at)
		WHERE id = $1 AND status = $2`, id, from, to, completedAt)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, getErr := s.GetOrderByID(ctx, id); errors.Is(getErr, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrInvalidTransition
	}
	return s.GetOrderByID(ctx, id)
}

func (s *Store) RestockOrderItems(ctx context.Context, order domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `UPDATE products SET quantity = quantity + $2, updated_at = NOW()
			WHERE id = $1 AND type = $3`, item.ProductID, item.Qty, domain.ProductTypeStored); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) CreateNotificationIfAbsent(ctx context.Context, notification domain.Notification) (bool, error) {
	if notification.Type == "" || notification.Title == "" {
		return false, store.ErrInvalidRecord
	}
	if notification.ID == "" {
		notification.ID = xid.New("ntf")
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO notifications (id, type, title, message, related_id, read, created_at)
		SELECT $1,$2,$3,$4,$5,FALSE,$6
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications WHERE type = $2 AND related_id = $5 AND NOT read
		)`,
		notification.ID, notification.Type, notification.Title, notification.Message,
		notification.RelatedID, notification.CreatedAt)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (s *Store) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit < 1 {
		limit = 100
	}
	query := `SELECT id, type, title, message, related_id, read, created_at FROM notifications`
	if unreadOnly {
		query += ` WHERE NOT read`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE NOT read`)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertDailySummary(ctx context.Context, summary domain.DailySummary) error {
	if summary.Date == "" {
		return store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_summaries
		(date, total_sales_cents, total_cost_cents, profit_cents, order_count,
		 dine_in_count, delivery_count, takeaway_count, cash_count, card_count, wallet_count, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
		ON CONFLICT (date) DO UPDATE SET
			total_sales_cents = EXCLUDED.total_sales_cents,
			total_cost_cents = EXCLUDED.total_cost_cents,
			profit_cents = EXCLUDED.profit_cents,
			order_count = EXCLUDED.order_count,
			dine_in_count = EXCLUDED.dine_in_count,
			delivery_count = EXCLUDED.delivery_count,
			takeaway_count = EXCLUDED.takeaway_count,
			cash_count = EXCLUDED.cash_count,
			card_count = EXCLUDED.card_count,
			wallet_count = EXCLUDED.wallet_count,
			updated_at = NOW()`,
		summary.Date, summary.TotalSalesCents, summary.TotalCostCents, summary.ProfitCents,
		summary.OrderCount, summary.DineInCount, summary.DeliveryCount, summary.TakeawayCount,
		summary.CashCount, summary.CardCount, summary.WalletCount)
	return err
}

const summaryColumns = `date, total_sales_cents, total_cost_cents, profit_cents, order_count, dine_in_count, delivery_count, takeaway_count, cash_count, card_count, wallet_count, updated_at`

func scanSummary(row interface{ Scan(...any) error }) (domain.DailySummary, error) {
	var d domain.DailySummary
	err := row.Scan(&d.Date, &d.TotalSalesCents, &d.TotalCostCents, &d.ProfitCents, &d.OrderCount,
		&d.DineInCount, &d.DeliveryCount, &d.TakeawayCount, &d.CashCount, &d.CardCount,
		&d.WalletCount, &d.UpdatedAt)
	return d, err
}

func (s *Store) GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM daily_summaries WHERE date = $1`, date)
	d, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDailySummaries(ctx context.Context, fromDate string, toDate string) ([]domain.DailySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM daily_summaries WHERE TRUE`
	args := []any{}
	idx := 1
	if fromDate != "" {
		query += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, fromDate)
		idx++
	}
	if toDate != "" {
		query += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, toDate)
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		d, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}

const shiftColumns = `id, username, status, opening_float_cents, closing_cash_cents, notes, opened_at, closed_at`

func scanShift(row interface{ Scan(...any) error }) (domain.WorkShift, error) {
	var w domain.WorkShift
	err := row.Scan(&w.ID, &w.Username, &w.Status, &w.OpeningFloatCents, &w.ClosingCashCents,
		&w.Notes, &w.OpenedAt, &w.ClosedAt)
	return w, err
}

func (s *Store) CreateShift(ctx context.Context, shift domain.WorkShift) (*domain.WorkShift, error) {
	if shift.Username == "" {
		return nil, store.ErrInvalidRecord
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen

	_, err := s.db.ExecContext(ctx, `INSERT INTO work_shifts (`+shiftColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		shift.ID, shift.Username, shift.Status, shift.OpeningFloatCents, shift.ClosingCashCents,
		shift.Notes, shift.OpenedAt, shift.ClosedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	return &shift, nil
}

func (s *Store) GetActiveShift(ctx context.Context, username string) (*domain.WorkShift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM work_shifts
		WHERE username = $1 AND status = $2`, username, domain.ShiftStatusOpen)
	w, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) CloseActiveShift(ctx context.Context, username string, closingCashCents int64, notes string, closedAt time.Time) (*domain.WorkShift, error) {
	row := s.db.QueryRowContext(ctx, `UPDATE work_shifts
		SET status = $2, closing_cash_cents = $3, notes = $4, closed_at = $5
		WHERE username = $1 AND status = $6
		RETURNING `+shiftColumns,
		username, domain.ShiftStatusClosed, closingCashCents, notes, closedAt, domain.ShiftStatusOpen)
	w, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) ListShifts(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.WorkShift, error) {
	if limit < 1 {
		limit = 100
	}
	query := `SELECT ` + shiftColumns + ` FROM work_shifts WHERE TRUE`
	args := []any{}
	idx := 1
	if !from.IsZero() {
		query += fmt.Sprintf(` AND opened_at >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND opened_at < $%d`, idx)
		args = append(args, to)
		idx++
	}
	query += fmt.Sprintf(` ORDER BY opened_at DESC LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []domain.WorkShift
	for rows.Next() {
		w, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, w)
	}
	return shifts, rows.Err()
}

const reservationColumns = `id, table_id, table_name, customer_name, customer_phone, party_size, reserved_for, status, notes, created_at`

func scanReservation(row interface{ Scan(...any) error }) (domain.TableReservation, error) {
	var r domain.TableReservation
	err := row.Scan(&r.ID, &r.TableID, &r.TableName, &r.CustomerName, &r.CustomerPhone,
		&r.PartySize, &r.ReservedFor, &r.Status, &r.Notes, &r.CreatedAt)
	return r, err
}

func (s *Store) CreateReservation(ctx context.Context, reservation domain.TableReservation) (*domain.TableReservation, error) {
	if reservation.TableID == "" || reservation.CustomerName == "" || reservation.ReservedFor.IsZero() {
		return nil, store.ErrInvalidRecord
	}

	var tableName string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM restaurant_tables WHERE id = $1`, reservation.TableID).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reservation.ID == "" {
		reservation.ID = xid.New("rsv")
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = time.Now().UTC()
	}
	reservation.TableName = tableName
	if reservation.Status == "" {
		reservation.Status = domain.ReservationBooked
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO reservations (`+reservationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		reservation.ID, reservation.TableID, reservation.TableName, reservation.CustomerName,
		reservation.CustomerPhone, reservation.PartySize, reservation.ReservedFor,
		reservation.Status, reservation.Notes, reservation.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (s *Store) GetReservationByID(ctx context.Context, id string) (*domain.TableReservation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListReservations(ctx context.Context, from time.Time, to time.Time) ([]domain.TableReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE TRUE`
	args := []any{}
	idx := 1
	if !from.IsZero() {
		query += fmt.Sprintf(` AND reserved_for >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND reserved_for < $%d`, idx)
		args = append(args, to)
	}
	query += ` ORDER BY reserved_for`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []domain.TableReservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status string) (*domain.TableReservation, error) {
	row := s.db.QueryRowContext(ctx, `UPDATE reservations SET status = $2 WHERE id = $1 RETURNING `+reservationColumns, id, status)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const offerColumns = `id, name, type, discount_percent, flat_discount_cents, min_subtotal_cents, starts_at, ends_at, active, created_at`

func scanOffer(row interface{ Scan(...any) error }) (domain.Offer, error) {
	var o domain.Offer
	err := row.Scan(&o.ID, &o.Name, &o.Type, &o.DiscountPercent, &o.FlatDiscountCents,
		&o.MinSubtotalCents, &o.StartsAt, &o.EndsAt, &o.Active, &o.CreatedAt)
	return o, err
}

func (s *Store) CreateOffer(ctx context.Context, offer domain.Offer) (*domain.Offer, error) {
	if offer.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if offer.ID == "" {
		offer.ID = xid.New("offer")
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO offers (`+offerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		offer.ID, offer.Name, offer.Type, offer.DiscountPercent, offer.FlatDiscountCents,
		offer.MinSubtotalCents, offer.StartsAt, offer.EndsAt, offer.Active, offer.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *Store) ListOffers(ctx context.Context, activeOnly bool) ([]domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (s *Store) UpdateOfferActive(ctx context.Context, id string, active bool) (*domain.Offer, error) {
	row := s.db.QueryRowContext(ctx, `UPDATE offers SET active = $2 WHERE id = $1 RETURNING `+offerColumns, id, active)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpsertSalesGoal(ctx context.Context, goal domain.SalesGoal) (*domain.SalesGoal, error) {
	if goal.Month == "" {
		return nil, store.ErrInvalidRecord
	}
	if goal.ID == "" {
		goal.ID = xid.New("goal")
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, `INSERT INTO sales_goals (id, month, target_sales_cents, target_profit_cents, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (month) DO UPDATE SET
			target_sales_cents = EXCLUDED.target_sales_cents,
			target_profit_cents = EXCLUDED.target_profit_cents
		RETURNING id, month, target_sales_cents, target_profit_cents, created_at`,
		goal.ID, goal.Month, goal.TargetSalesCents, goal.TargetProfitCents, goal.CreatedAt)

	var saved domain.SalesGoal
	if err := row.Scan(&saved.ID, &saved.Month, &saved.TargetSalesCents, &saved.TargetProfitCents, &saved.CreatedAt); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Store) GetSalesGoal(ctx context.Context, month string) (*domain.SalesGoal, error) {
	var g domain.SalesGoal
	err := s.db.QueryRowContext(ctx, `SELECT id, month, target_sales_cents, target_profit_cents, created_at
		FROM sales_goals WHERE month = $1`, month).
		Scan(&g.ID, &g.Month, &g.TargetSalesCents, &g.TargetProfitCents, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListSalesGoals(ctx context.Context) ([]domain.SalesGoal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, month, target_sales_cents, target_profit_cents, created_at
		FROM sales_goals ORDER BY month DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.SalesGoal
	for rows.Next() {
		var g domain.SalesGoal
		if err := rows.Scan(&g.ID, &g.Month, &g.TargetSalesCents, &g.TargetProfitCents, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Description == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidRecord
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.IncurredAt.IsZero() {
		expense.IncurredAt = expense.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO expenses (id, description, category, amount_cents, incurred_at, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		expense.ID, expense.Description, expense.Category, expense.AmountCents,
		expense.IncurredAt, expense.CreatedBy, expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 200
	}
	query := `SELECT id, description, category, amount_cents, incurred_at, created_by, created_at FROM expenses WHERE TRUE`
	args := []any{}
	idx := 1
	if !from.IsZero() {
		query += fmt.Sprintf(` AND incurred_at >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND incurred_at < $%d`, idx)
		args = append(args, to)
		idx++
	}
	query += fmt.Sprintf(` ORDER BY incurred_at DESC LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.AmountCents, &e.IncurredAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

const materialColumns = `id, name, unit, quantity, min_quantity, unit_cost_cents, active, created_at, updated_at`

func scanMaterial(row interface{ Scan(...any) error }) (domain.RawMaterial, error) {
	var m domain.RawMaterial
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Quantity, &m.MinQuantity, &m.UnitCostCents,
		&m.Active, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *Store) ListRawMaterials(ctx context.Context, includeInactive bool) ([]domain.RawMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM raw_materials`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []domain.RawMaterial
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) CreateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if material.Name == "" || material.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}
	if material.ID == "" {
		material.ID = xid.New("raw")
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now
	material.Active = true

	_, err := s.db.ExecContext(ctx, `INSERT INTO raw_materials (`+materialColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		material.ID, material.Name, material.Unit, material.Quantity, material.MinQuantity,
		material.UnitCostCents, material.Active, material.CreatedAt, material.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRecord
		}
		return nil, err
	}
	return &material, nil
}

func (s *Store) UpdateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if material.ID == "" || material.Name == "" || material.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}
	material.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `UPDATE raw_materials SET name=$2, unit=$3, quantity=$4,
		min_quantity=$5, unit_cost_cents=$6, active=$7, updated_at=$8 WHERE id=$1`,
		material.ID, material.Name, material.Unit, material.Quantity, material.MinQuantity,
		material.UnitCostCents, material.Active, material.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return &material, nil
}

func (s *Store) ListLowStockRawMaterials(ctx context.Context) ([]domain.RawMaterial, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+materialColumns+` FROM raw_materials
		WHERE active AND quantity <= min_quantity ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []domain.RawMaterial
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, `SELECT store_name, address, phone, currency, receipt_footer, updated_at
		FROM settings WHERE id = 1`).
		Scan(&settings.StoreName, &settings.Address, &settings.Phone, &settings.Currency,
			&settings.ReceiptFooter, &settings.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	if settings.StoreName == "" {
		return nil, store.ErrInvalidRecord
	}
	settings.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (id, store_name, address, phone, currency, receipt_footer, updated_at)
		VALUES (1,$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			currency = EXCLUDED.currency,
			receipt_footer = EXCLUDED.receipt_footer,
			updated_at = EXCLUDED.updated_at`,
		settings.StoreName, settings.Address, settings.Phone, settings.Currency,
		settings.ReceiptFooter, settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) CreateActivityLog(ctx context.Context, entry domain.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("act")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO activity_logs (id, username, role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.ID, entry.Username, entry.Role, entry.Action, entry.EntityType, entry.EntityID,
		entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListActivityLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.ActivityLog, error) {
	if limit < 1 {
		limit = 100
	}
	query := `SELECT id, username, role, action, entity_type, entity_id, detail, created_at FROM activity_logs WHERE TRUE`
	args := []any{}
	idx := 1
	if !from.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND created_at < $%d`, idx)
		args = append(args, to)
		idx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, idx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var e domain.ActivityLog
		if err := rows.Scan(&e.ID, &e.Username, &e.Role, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrInvalidRecord
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, password, role, active, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserAccount
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, password)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetUserActive(ctx context.Context, username string, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET active = $2 WHERE username = $1`, username, active)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ExportAll(ctx context.Context) (domain.BackupData, error) {
	var data domain.BackupData
	var err error

	if data.Products, err = s.ListProducts(ctx, true); err != nil {
		return data, err
	}
	if data.Categories, err = s.ListCategories(ctx); err != nil {
		return data, err
	}
	if data.Tables, err = s.ListTables(ctx); err != nil {
		return data, err
	}
	if data.Orders, err = s.ListOrders(ctx, store.OrderFilter{}); err != nil {
		return data, err
	}
	if data.Notifications, err = s.ListNotifications(ctx, false, 1<<20); err != nil {
		return data, err
	}
	if data.DailySummaries, err = s.ListDailySummaries(ctx, "", ""); err != nil {
		return data, err
	}
	if data.Shifts, err = s.ListShifts(ctx, time.Time{}, time.Time{}, 1<<20); err != nil {
		return data, err
	}
	if data.Reservations, err = s.ListReservations(ctx, time.Time{}, time.Time{}); err != nil {
		return data, err
	}
	if data.Offers, err = s.ListOffers(ctx, false); err != nil {
		return data, err
	}
	if data.SalesGoals, err = s.ListSalesGoals(ctx); err != nil {
		return data, err
	}
	if data.Expenses, err = s.ListExpenses(ctx, time.Time{}, time.Time{}, 1<<20); err != nil {
		return data, err
	}
	if data.ActivityLogs, err = s.ListActivityLogs(ctx, time.Time{}, time.Time{}, 1<<20); err != nil {
		return data, err
	}
	if data.RawMaterials, err = s.ListRawMaterials(ctx, true); err != nil {
		return data, err
	}
	if data.Users, err = s.ListUsers(ctx); err != nil {
		return data, err
	}
	if settings, err := s.GetSettings(ctx); err == nil {
		data.Settings = settings
	} else if !errors.Is(err, store.ErrNotFound) {
		return data, err
	}
	return data, nil
}

func (s *Store) ImportAll(ctx context.Context, data domain.BackupData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{
		"activity_logs", "expenses", "sales_goals", "offers", "reservations",
		"work_shifts", "daily_summaries", "notifications", "orders",
		"restaurant_tables", "products", "categories", "raw_materials",
		"settings", "users",
	} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	for _, c := range data.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (id, name, note, active, created_at)
			VALUES ($1,$2,$3,$4,$5)`, c.ID, c.Name, c.Note, c.Active, c.CreatedAt); err != nil {
			return err
		}
	}
	for _, p := range data.Products {
		if _, err := tx.ExecContext(ctx, `INSERT INTO products (`+productColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			p.ID, p.Name, p.CategoryID, p.CategoryName, p.Type, p.CostCents, p.PriceCents,
			p.Quantity, p.MinQuantityAlert, p.PreparationMinutes, p.Active, p.CreatedAt, p.UpdatedAt); err != nil {
			return err
		}
	}
	for _, t := range data.Tables {
		if _, err := tx.ExecContext(ctx, `INSERT INTO restaurant_tables (`+tableColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.ID, t.Name, t.Number, t.Capacity, t.Status, t.OccupiedAt, t.CurrentOrderID, t.CreatedAt); err != nil {
			return err
		}
	}
	for _, o := range data.Orders {
		items, err := json.Marshal(o.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
			o.ID, o.Number, o.Type, items, o.SubtotalCents, o.DiscountCents, o.TotalCents,
			o.TotalCostCents, o.ProfitCents, o.PaymentMethod, o.Status, o.CustomerName,
			o.CustomerPhone, o.DeliveryAddress, o.TableID, o.TableName, o.Note,
			o.CreatedAt, o.CompletedAt); err != nil {
			return err
		}
	}
	for _, n := range data.Notifications {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notifications (id, type, title, message, related_id, read, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			n.ID, n.Type, n.Title, n.Message, n.RelatedID, n.Read, n.CreatedAt); err != nil {
			return err
		}
	}
	for _, d := range data.DailySummaries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO daily_summaries (`+summaryColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			d.Date, d.TotalSalesCents, d.TotalCostCents, d.ProfitCents, d.OrderCount,
			d.DineInCount, d.DeliveryCount, d.TakeawayCount, d.CashCount, d.CardCount,
			d.WalletCount, d.UpdatedAt); err != nil {
			return err
		}
	}
	for _, w := range data.Shifts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO work_shifts (`+shiftColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			w.ID, w.Username, w.Status, w.OpeningFloatCents, w.ClosingCashCents, w.Notes,
			w.OpenedAt, w.ClosedAt); err != nil {
			return err
		}
	}
	for _, r := range data.Reservations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			r.ID, r.TableID, r.TableName, r.CustomerName, r.CustomerPhone, r.PartySize,
			r.ReservedFor, r.Status, r.Notes, r.CreatedAt); err != nil {
			return err
		}
	}
	for _, o := range data.Offers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO offers (`+offerColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			o.ID, o.Name, o.Type, o.DiscountPercent, o.FlatDiscountCents, o.MinSubtotalCents,
			o.StartsAt, o.EndsAt, o.Active, o.CreatedAt); err != nil {
			return err
		}
	}
	for _, g := range data.SalesGoals {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sales_goals (id, month, target_sales_cents, target_profit_cents, created_at)
			VALUES ($1,$2,$3,$4,$5)`,
			g.ID, g.Month, g.TargetSalesCents, g.TargetProfitCents, g.CreatedAt); err != nil {
			return err
		}
	}
	for _, e := range data.Expenses {
		if _, err := tx.ExecContext(ctx, `INSERT INTO expenses (id, description, category, amount_cents, incurred_at, created_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			e.ID, e.Description, e.Category, e.AmountCents, e.IncurredAt, e.CreatedBy, e.CreatedAt); err != nil {
			return err
		}
	}
	for _, entry := range data.ActivityLogs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO activity_logs (id, username, role, action, entity_type, entity_id, detail, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			entry.ID, entry.Username, entry.Role, entry.Action, entry.EntityType, entry.EntityID,
			entry.Detail, entry.CreatedAt); err != nil {
			return err
		}
	}
	for _, m := range data.RawMaterials {
		if _, err := tx.ExecContext(ctx, `INSERT INTO raw_materials (`+materialColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			m.ID, m.Name, m.Unit, m.Quantity, m.MinQuantity, m.UnitCostCents, m.Active,
			m.CreatedAt, m.UpdatedAt); err != nil {
			return err
		}
	}
	for _, u := range data.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username, password, role, active, created_at)
			VALUES ($1,$2,$3,$4,$5)`,
			u.Username, u.Password, u.Role, u.Active, u.CreatedAt); err != nil {
			return err
		}
	}
	if data.Settings != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (id, store_name, address, phone, currency, receipt_footer, updated_at)
			VALUES (1,$1,$2,$3,$4,$5,$6)`,
			data.Settings.StoreName, data.Settings.Address, data.Settings.Phone,
			data.Settings.Currency, data.Settings.ReceiptFooter, data.Settings.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
