package service

import (
	"context"
	"fmt"
	"time"

	"dapurpos/backend/internal/domain"
)

// tableTimeThreshold is how long a table may stay occupied before the floor
// gets a nudge.
const tableTimeThreshold = time.Hour

// RunNotificationSweep checks occupied tables and stock levels and raises
// notifications for anything past its threshold. Deduplication happens in
// the store: an unread notification with the same type and related record
// suppresses a new one, and the alert regenerates once the old one is read
// if the condition still holds.
func (s *Service) RunNotificationSweep(ctx context.Context) error {
	if err := s.sweepTableTimes(ctx); err != nil {
		return fmt.Errorf("table sweep: %w", err)
	}
	if err := s.sweepLowStock(ctx); err != nil {
		return fmt.Errorf("stock sweep: %w", err)
	}
	return nil
}

func (s *Service) sweepTableTimes(ctx context.Context) error {
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, table := range tables {
		if table.Status != domain.TableOccupied || table.OccupiedAt == nil {
			continue
		}
		occupied := now.Sub(*table.OccupiedAt)
		if occupied < tableTimeThreshold {
			continue
		}
		_, err := s.store.CreateNotificationIfAbsent(ctx, domain.Notification{
			Type:      domain.NotificationTableTime,
			Title:     table.Name + " occupied for over an hour",
			Message:   fmt.Sprintf("%s has been occupied for %d minutes", table.Name, int(occupied.Minutes())),
			RelatedID: table.ID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) sweepLowStock(ctx context.Context) error {
	now := s.now()

	products, err := s.store.ListLowStockProducts(ctx)
	if err != nil {
		return err
	}
	for _, product := range products {
		_, err := s.store.CreateNotificationIfAbsent(ctx, domain.Notification{
			Type:      domain.NotificationLowStock,
			Title:     "Low stock: " + product.Name,
			Message:   fmt.Sprintf("%s is down to %d (alert at %d)", product.Name, product.Quantity, product.MinQuantityAlert),
			RelatedID: product.ID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}

	materials, err := s.store.ListLowStockRawMaterials(ctx)
	if err != nil {
		return err
	}
	for _, material := range materials {
		_, err := s.store.CreateNotificationIfAbsent(ctx, domain.Notification{
			Type:      domain.NotificationLowStock,
			Title:     "Low stock: " + material.Name,
			Message:   fmt.Sprintf("%s is down to %.1f %s (alert at %.1f)", material.Name, material.Quantity, material.Unit, material.MinQuantity),
			RelatedID: material.ID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	return s.store.ListNotifications(ctx, unreadOnly, limit)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	return s.store.MarkAllNotificationsRead(ctx)
}

func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	return s.store.DeleteNotification(ctx, id)
}
