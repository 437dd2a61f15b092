package documents

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"readify-backend/internal/blobs"
)

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Checked int        `json:"checked"`
	Stale   []Document `json:"stale"`
	Removed int        `json:"removed"`
	DryRun  bool       `json:"dryRun"`
}

// Reconciler finds document records whose blob no longer exists.
type Reconciler struct {
	Docs  *Service
	Blobs BlobChecker
	Log   *zap.Logger
}

// Sweep checks every document with a URL. Unless dryRun is set, stale records are removed
// in one write-back. URLs outside the blob store are skipped.
func (r *Reconciler) Sweep(ctx context.Context, dryRun bool) (SweepReport, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	docs, err := r.Docs.List(ctx)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{DryRun: dryRun, Stale: []Document{}}
	stale := make(map[string]string)
	for _, doc := range docs {
		if doc.URL == "" {
			continue
		}
		ok, err := r.Blobs.Exists(ctx, doc.URL)
		if errors.Is(err, blobs.ErrForeignURL) {
			continue
		}
		if err != nil {
			return SweepReport{}, err
		}
		report.Checked++
		if !ok {
			report.Stale = append(report.Stale, doc)
			stale[doc.ID] = doc.URL
		}
	}

	if dryRun || len(stale) == 0 {
		log.Info("reconcile.complete", zap.Int("checked", report.Checked), zap.Int("stale", len(stale)), zap.Bool("dry_run", dryRun))
		return report, nil
	}

	removed, err := r.Docs.forget(ctx, stale)
	if err != nil {
		return report, err
	}
	report.Removed = removed
	log.Info("reconcile.complete", zap.Int("checked", report.Checked), zap.Int("stale", len(stale)), zap.Int("removed", removed))
	return report, nil
}
