// Package service implements the POS workflows on top of the record store:
// catalog management, the order lifecycle, notification sweeps, daily
// summaries and backup. Handlers stay thin; every business rule lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dapurpos/backend/internal/cache"
	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/notify"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/xid"
)

var (
	ErrValidation               = errors.New("validation failed")
	ErrTableOccupied            = errors.New("table is occupied")
	ErrNoOpenShift              = errors.New("no open shift")
	ErrShiftAlreadyOpen         = errors.New("shift already open")
	ErrUnsupportedBackupVersion = errors.New("unsupported backup version")
)

type actorKey struct{}

// WithActor attaches the authenticated user to the context. Handlers set it
// after token verification; the service reads it for activity logging and
// per-user operations like shifts.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorKey{}).(domain.Actor); ok {
		return actor
	}
	return domain.Actor{Username: "system", Role: "system"}
}

type Service struct {
	store  store.Repository
	cache  cache.SummaryCache
	events notify.Publisher

	// now is swapped in tests to drive time-dependent workflows.
	now func() time.Time
}

func New(repo store.Repository, summaryCache cache.SummaryCache, events notify.Publisher) *Service {
	if summaryCache == nil {
		summaryCache = cache.NewNoop()
	}
	if events == nil {
		events = notify.NewNoop()
	}
	return &Service{
		store:  repo,
		cache:  summaryCache,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) logActivity(ctx context.Context, action, entityType, entityID, detail string) {
	actor := ActorFromContext(ctx)
	err := s.store.CreateActivityLog(ctx, domain.ActivityLog{
		Username:   actor.Username,
		Role:       actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	})
	if err != nil {
		log.Printf("[service] activity log %s/%s failed: %v", action, entityType, err)
	}
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, includeInactive)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if req.Type != domain.ProductTypePrepared && req.Type != domain.ProductTypeStored {
		return nil, fmt.Errorf("%w: unknown product type %q", ErrValidation, req.Type)
	}
	if req.PriceCents < 1 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.CostCents < 0 || req.InitialQuantity < 0 || req.MinQuantityAlert < 0 {
		return nil, fmt.Errorf("%w: negative amounts are not allowed", ErrValidation)
	}

	product := domain.Product{
		ID:                 xid.New("prd"),
		Name:               name,
		CategoryID:         req.CategoryID,
		Type:               req.Type,
		CostCents:          req.CostCents,
		PriceCents:         req.PriceCents,
		MinQuantityAlert:   req.MinQuantityAlert,
		PreparationMinutes: req.PreparationMinutes,
		CreatedAt:          s.now(),
	}
	if req.Type == domain.ProductTypeStored {
		product.Quantity = req.InitialQuantity
	}

	created, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "product", created.ID, created.Name)
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name is required", ErrValidation)
		}
		product.Name = name
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.CostCents != nil {
		if *req.CostCents < 0 {
			return nil, fmt.Errorf("%w: cost cannot be negative", ErrValidation)
		}
		product.CostCents = *req.CostCents
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
		}
		product.PriceCents = *req.PriceCents
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}
		product.Quantity = *req.Quantity
	}
	if req.MinQuantityAlert != nil {
		product.MinQuantityAlert = *req.MinQuantityAlert
	}
	if req.PreparationMinutes != nil {
		product.PreparationMinutes = *req.PreparationMinutes
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	updated, err := s.store.UpdateProduct(ctx, *product)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "update", "product", updated.ID, updated.Name)
	return updated, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name, note string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	created, err := s.store.CreateCategory(ctx, domain.Category{Name: name, Note: note})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "category", created.ID, created.Name)
	return created, nil
}

func (s *Service) ListTables(ctx context.Context) ([]domain.RestaurantTable, error) {
	return s.store.ListTables(ctx)
}

func (s *Service) CreateTable(ctx context.Context, req domain.TableCreateRequest) (*domain.RestaurantTable, error) {
	if strings.TrimSpace(req.Name) == "" || req.Number < 1 || req.Capacity < 1 {
		return nil, fmt.Errorf("%w: table needs a name, a positive number and capacity", ErrValidation)
	}
	created, err := s.store.CreateTable(ctx, domain.RestaurantTable{
		Name:     strings.TrimSpace(req.Name),
		Number:   req.Number,
		Capacity: req.Capacity,
	})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "table", created.ID, created.Name)
	return created, nil
}

// SetTableStatus handles manual corrections from the floor, e.g. marking a
// table available after a walk-out. Occupancy bookkeeping is reset when the
// table leaves the occupied state.
func (s *Service) SetTableStatus(ctx context.Context, id, status string) (*domain.RestaurantTable, error) {
	switch status {
	case domain.TableAvailable, domain.TableOccupied, domain.TableReserved:
	default:
		return nil, fmt.Errorf("%w: unknown table status %q", ErrValidation, status)
	}

	table, err := s.store.GetTableByID(ctx, id)
	if err != nil {
		return nil, err
	}
	table.Status = status
	if status == domain.TableOccupied {
		now := s.now()
		table.OccupiedAt = &now
	} else {
		table.OccupiedAt = nil
		table.CurrentOrderID = ""
	}

	updated, err := s.store.UpdateTable(ctx, *table)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "update", "table", updated.ID, "status "+status)
	return updated, nil
}

func (s *Service) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.Settings{StoreName: "Dapur POS", Currency: "IDR"}, nil
	}
	return settings, err
}

func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	if strings.TrimSpace(settings.StoreName) == "" {
		return nil, fmt.Errorf("%w: store name is required", ErrValidation)
	}
	saved, err := s.store.SaveSettings(ctx, settings)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "update", "settings", "", saved.StoreName)
	return saved, nil
}

func (s *Service) ListActivityLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.ActivityLog, error) {
	return s.store.ListActivityLogs(ctx, from, to, limit)
}

func (s *Service) ListRawMaterials(ctx context.Context, includeInactive bool) ([]domain.RawMaterial, error) {
	return s.store.ListRawMaterials(ctx, includeInactive)
}

func (s *Service) CreateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if strings.TrimSpace(material.Name) == "" {
		return nil, fmt.Errorf("%w: material name is required", ErrValidation)
	}
	if material.Quantity < 0 || material.MinQuantity < 0 || material.UnitCostCents < 0 {
		return nil, fmt.Errorf("%w: negative amounts are not allowed", ErrValidation)
	}
	created, err := s.store.CreateRawMaterial(ctx, material)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "raw_material", created.ID, created.Name)
	return created, nil
}

func (s *Service) UpdateRawMaterial(ctx context.Context, material domain.RawMaterial) (*domain.RawMaterial, error) {
	if material.ID == "" || strings.TrimSpace(material.Name) == "" {
		return nil, fmt.Errorf("%w: material id and name are required", ErrValidation)
	}
	if material.Quantity < 0 || material.MinQuantity < 0 {
		return nil, fmt.Errorf("%w: negative amounts are not allowed", ErrValidation)
	}
	updated, err := s.store.UpdateRawMaterial(ctx, material)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "update", "raw_material", updated.ID, updated.Name)
	return updated, nil
}
