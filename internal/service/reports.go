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
	"dapurpos/backend/internal/store"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"

	summaryCacheTTL = 5 * time.Minute
)

// RecomputeDailySummary rebuilds the summary for the given day from scratch
// by scanning every completed order. A full rescan is cheap at restaurant
// volumes and self-heals any drift from crashed partial updates.
func (s *Service) RecomputeDailySummary(ctx context.Context, day time.Time) error {
	_, err := s.recomputeDailySummary(ctx, day)
	return err
}

func (s *Service) recomputeDailySummary(ctx context.Context, day time.Time) (*domain.DailySummary, error) {
	start, end := dayBounds(day)
	orders, err := s.store.ListOrders(ctx, store.OrderFilter{
		From:   start,
		To:     end,
		Status: domain.OrderStatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	summary := domain.DailySummary{Date: day.Format(dateLayout)}
	for _, order := range orders {
		summary.TotalSalesCents += order.TotalCents
		summary.TotalCostCents += order.TotalCostCents
		summary.ProfitCents += order.ProfitCents
		summary.OrderCount++

		switch order.Type {
		case domain.OrderTypeDineIn:
			summary.DineInCount++
		case domain.OrderTypeDelivery:
			summary.DeliveryCount++
		case domain.OrderTypeTakeaway:
			summary.TakeawayCount++
		}
		switch order.PaymentMethod {
		case domain.PaymentCash:
			summary.CashCount++
		case domain.PaymentCard:
			summary.CardCount++
		case domain.PaymentWallet:
			summary.WalletCount++
		}
	}

	if err := s.store.UpsertDailySummary(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.cache.SetSummary(ctx, summary, summaryCacheTTL); err != nil {
		log.Printf("[service] cache summary %s failed: %v", summary.Date, err)
	}
	return &summary, nil
}

// GetDailySummary reads through the cache; on a store miss the summary is
// computed on demand so the dashboard never sees a 404 for today.
func (s *Service) GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	if cached, err := s.cache.GetSummary(ctx, date); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[service] summary cache read %s failed: %v", date, err)
	}

	summary, err := s.store.GetDailySummary(ctx, date)
	if errors.Is(err, store.ErrNotFound) {
		// The recompute upserts and caches the summary itself.
		return s.recomputeDailySummary(ctx, day)
	}
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSummary(ctx, *summary, summaryCacheTTL); err != nil {
		log.Printf("[service] cache summary %s failed: %v", date, err)
	}
	return summary, nil
}

func (s *Service) ListDailySummaries(ctx context.Context, fromDate, toDate string) ([]domain.DailySummary, error) {
	for _, date := range []string{fromDate, toDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	return s.store.ListDailySummaries(ctx, fromDate, toDate)
}

func (s *Service) UpsertSalesGoal(ctx context.Context, month string, targetSalesCents, targetProfitCents int64) (*domain.SalesGoal, error) {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	if targetSalesCents < 0 || targetProfitCents < 0 {
		return nil, fmt.Errorf("%w: targets cannot be negative", ErrValidation)
	}
	saved, err := s.store.UpsertSalesGoal(ctx, domain.SalesGoal{
		Month:             month,
		TargetSalesCents:  targetSalesCents,
		TargetProfitCents: targetProfitCents,
	})
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "upsert", "sales_goal", saved.ID, month)
	return saved, nil
}

func (s *Service) ListSalesGoals(ctx context.Context) ([]domain.SalesGoal, error) {
	return s.store.ListSalesGoals(ctx)
}

// GetGoalProgress derives actuals for a month by summing its daily
// summaries. Progress is a view over existing records, never stored.
func (s *Service) GetGoalProgress(ctx context.Context, month string) (*domain.GoalProgress, error) {
	monthStart, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	goal, err := s.store.GetSalesGoal(ctx, month)
	if err != nil {
		return nil, err
	}

	fromDate := monthStart.Format(dateLayout)
	toDate := monthStart.AddDate(0, 1, -1).Format(dateLayout)
	summaries, err := s.store.ListDailySummaries(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	progress := domain.GoalProgress{
		Month:             month,
		TargetSalesCents:  goal.TargetSalesCents,
		TargetProfitCents: goal.TargetProfitCents,
	}
	for _, summary := range summaries {
		progress.ActualSalesCents += summary.TotalSalesCents
		progress.ActualProfitCents += summary.ProfitCents
	}
	if goal.TargetSalesCents > 0 {
		progress.SalesPercent = float64(progress.ActualSalesCents) / float64(goal.TargetSalesCents) * 100
	}
	if goal.TargetProfitCents > 0 {
		progress.ProfitPercent = float64(progress.ActualProfitCents) / float64(goal.TargetProfitCents) * 100
	}
	return &progress, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (*domain.Expense, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: expense description is required", ErrValidation)
	}
	if req.AmountCents < 1 {
		return nil, fmt.Errorf("%w: expense amount must be positive", ErrValidation)
	}

	expense := domain.Expense{
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		AmountCents: req.AmountCents,
		CreatedBy:   ActorFromContext(ctx).Username,
		CreatedAt:   s.now(),
	}
	if req.IncurredAt != "" {
		incurred, err := time.Parse(time.RFC3339, req.IncurredAt)
		if err != nil {
			return nil, fmt.Errorf("%w: incurred_at must be RFC3339", ErrValidation)
		}
		expense.IncurredAt = incurred
	}

	created, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "create", "expense", created.ID, created.Description)
	return created, nil
}

func (s *Service) ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	return s.store.ListExpenses(ctx, from, to, limit)
}
