package service

import (
	"context"
	"fmt"
	"log"

	"dapurpos/backend/internal/domain"
)

// ExportBackup snapshots every collection into a versioned document the
// client downloads as JSON.
func (s *Service) ExportBackup(ctx context.Context) (*domain.BackupDocument, error) {
	data, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, "export", "backup", "", "")
	return &domain.BackupDocument{
		Version:    domain.BackupVersion,
		ExportDate: s.now(),
		Data:       data,
	}, nil
}

// ImportBackup replaces the entire store with the document's contents. The
// store runs the clear-and-insert in one transaction, so a malformed
// document cannot leave a half-imported state.
func (s *Service) ImportBackup(ctx context.Context, doc domain.BackupDocument) error {
	if doc.Version != domain.BackupVersion {
		return fmt.Errorf("%w: got version %d, want %d", ErrUnsupportedBackupVersion, doc.Version, domain.BackupVersion)
	}
	if err := s.store.ImportAll(ctx, doc.Data); err != nil {
		return err
	}

	// Cached summaries may describe the pre-import state.
	for _, summary := range doc.Data.DailySummaries {
		if err := s.cache.InvalidateSummary(ctx, summary.Date); err != nil {
			log.Printf("[service] invalidate summary cache %s failed: %v", summary.Date, err)
		}
	}

	s.logActivity(ctx, "import", "backup", "", fmt.Sprintf("%d orders, %d products", len(doc.Data.Orders), len(doc.Data.Products)))
	return nil
}
