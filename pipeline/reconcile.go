package pipeline

import (
	"context"
	"fmt"
	"time"
)

// ReconcileReport lists what a sweep removed.
type ReconcileReport struct {
	// OrphanedCommits are documents committed to the document store but
	// never published, older than the grace period. They are deleted.
	OrphanedCommits []string `json:"orphaned_commits"`

	// StrayPublishes are index entries with no committed document. They
	// should be impossible with the commit check in place; finding one
	// means the stores diverged and the entry is removed.
	StrayPublishes []string `json:"stray_publishes"`
}

// Reconcile cross-checks the two indices and removes leftovers from
// interrupted pipeline runs.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	cutoff := s.nowMillis() - s.grace.Milliseconds()
	committed, err := s.docs.ListCommittedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list committed: %w", err)
	}
	publishedIDs, err := s.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	published := make(map[string]bool, len(publishedIDs))
	for _, id := range publishedIDs {
		published[id] = true
	}

	report := &ReconcileReport{}
	for _, id := range committed {
		if published[id] {
			continue
		}
		if err := s.docs.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("sweep commit %s: %w", id, err)
		}
		s.logger.Warn("swept orphaned commit", "id", id)
		report.OrphanedCommits = append(report.OrphanedCommits, id)
	}

	allCommitted, err := s.docs.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	committedSet := make(map[string]bool, len(allCommitted))
	for _, id := range allCommitted {
		committedSet[id] = true
	}
	for _, id := range publishedIDs {
		if committedSet[id] {
			continue
		}
		if err := s.index.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("sweep publish %s: %w", id, err)
		}
		s.logger.Warn("swept stray publish", "id", id)
		report.StrayPublishes = append(report.StrayPublishes, id)
	}

	return report, nil
}

// StartSweeper runs Reconcile at the given interval until ctx is done.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report, err := s.Reconcile(ctx)
				if err != nil {
					s.logger.Error("reconcile sweep failed", "error", err)
					continue
				}
				if len(report.OrphanedCommits) > 0 || len(report.StrayPublishes) > 0 {
					s.logger.Info("reconcile sweep",
						"orphaned_commits", len(report.OrphanedCommits),
						"stray_publishes", len(report.StrayPublishes))
				}
			}
		}
	}()
}
