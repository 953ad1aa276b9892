package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dapurpos/backend/internal/domain"
	"dapurpos/backend/internal/store"
)

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (*domain.WorkShift, error) {
	if req.OpeningFloatCents < 0 {
		return nil, fmt.Errorf("%w: opening float cannot be negative", ErrValidation)
	}
	actor := ActorFromContext(ctx)

	if _, err := s.store.GetActiveShift(ctx, actor.Username); err == nil {
		return nil, ErrShiftAlreadyOpen
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	shift, err := s.store.CreateShift(ctx, domain.WorkShift{
		Username:          actor.Username,
		OpeningFloatCents: req.OpeningFloatCents,
		OpenedAt:          s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "open", "shift", shift.ID, "")
	return shift, nil
}

func (s *Service) GetActiveShift(ctx context.Context) (*domain.WorkShift, error) {
	actor := ActorFromContext(ctx)
	shift, err := s.store.GetActiveShift(ctx, actor.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoOpenShift
	}
	return shift, err
}

func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (*domain.WorkShift, error) {
	if req.ClosingCashCents < 0 {
		return nil, fmt.Errorf("%w: closing cash cannot be negative", ErrValidation)
	}
	actor := ActorFromContext(ctx)

	shift, err := s.store.CloseActiveShift(ctx, actor.Username, req.ClosingCashCents, req.Notes, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoOpenShift
	}
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "close", "shift", shift.ID, "")
	return shift, nil
}

func (s *Service) ListShifts(ctx context.Context, from, to time.Time, limit int) ([]domain.WorkShift, error) {
	return s.store.ListShifts(ctx, from, to, limit)
}

func (s *Service) CreateReservation(ctx context.Context, req domain.ReservationCreateRequest) (*domain.TableReservation, error) {
	if req.TableID == "" || strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: reservation needs a table and a customer name", ErrValidation)
	}
	if req.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrValidation)
	}
	reservedFor, err := time.Parse(time.RFC3339, req.ReservedFor)
	if err != nil {
		return nil, fmt.Errorf("%w: reserved_for must be RFC3339", ErrValidation)
	}
	if reservedFor.Before(s.now()) {
		return nil, fmt.Errorf("%w: reserved_for is in the past", ErrValidation)
	}

	created, err := s.store.CreateReservation(ctx, domain.TableReservation{
		TableID:       req.TableID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: req.CustomerPhone,
		PartySize:     req.PartySize,
		ReservedFor:   reservedFor,
		Notes:         req.Notes,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "reservation", created.ID, created.CustomerName)
	return created, nil
}

func (s *Service) ListReservations(ctx context.Context, from, to time.Time) ([]domain.TableReservation, error) {
	return s.store.ListReservations(ctx, from, to)
}

// UpdateReservationStatus moves a reservation to seated, cancelled or
// no-show. Seating a party marks the table occupied so the table timer
// starts from the actual seating moment.
func (s *Service) UpdateReservationStatus(ctx context.Context, id, status string) (*domain.TableReservation, error) {
	switch status {
	case domain.ReservationSeated, domain.ReservationCancelled, domain.ReservationNoShow:
	default:
		return nil, fmt.Errorf("%w: unknown reservation status %q", ErrValidation, status)
	}

	updated, err := s.store.UpdateReservationStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if status == domain.ReservationSeated {
		if _, err := s.SetTableStatus(ctx, updated.TableID, domain.TableOccupied); err != nil {
			log.Printf("[service] occupy table for reservation %s failed: %v", id, err)
		}
	}
	s.logActivity(ctx, "status", "reservation", updated.ID, status)
	return updated, nil
}

func (s *Service) CreateOffer(ctx context.Context, req domain.OfferCreateRequest) (*domain.Offer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: offer name is required", ErrValidation)
	}
	offer := domain.Offer{
		Name:             strings.TrimSpace(req.Name),
		Type:             req.Type,
		MinSubtotalCents: req.MinSubtotalCents,
		CreatedAt:        s.now(),
	}
	switch req.Type {
	case domain.OfferTypePercent:
		if req.DiscountPercent <= 0 || req.DiscountPercent > 100 {
			return nil, fmt.Errorf("%w: percent discount must be between 0 and 100", ErrValidation)
		}
		offer.DiscountPercent = req.DiscountPercent
	case domain.OfferTypeFlat:
		if req.FlatDiscountCents < 1 {
			return nil, fmt.Errorf("%w: flat discount must be positive", ErrValidation)
		}
		offer.FlatDiscountCents = req.FlatDiscountCents
	default:
		return nil, fmt.Errorf("%w: unknown offer type %q", ErrValidation, req.Type)
	}
	if req.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("%w: starts_at must be RFC3339", ErrValidation)
		}
		offer.StartsAt = &startsAt
	}
	if req.EndsAt != "" {
		endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			return nil, fmt.Errorf("%w: ends_at must be RFC3339", ErrValidation)
		}
		offer.EndsAt = &endsAt
	}
	if offer.StartsAt != nil && offer.EndsAt != nil && offer.EndsAt.Before(*offer.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at is before starts_at", ErrValidation)
	}

	created, err := s.store.CreateOffer(ctx, offer)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "offer", created.ID, created.Name)
	return created, nil
}

func (s *Service) ListOffers(ctx context.Context, activeOnly bool) ([]domain.Offer, error) {
	return s.store.ListOffers(ctx, activeOnly)
}

func (s *Service) ToggleOffer(ctx context.Context, id string, active bool) (*domain.Offer, error) {
	updated, err := s.store.UpdateOfferActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "toggle", "offer", updated.ID, fmt.Sprintf("active=%t", active))
	return updated, nil
}
