package experimentkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/advisorly/experimentkit/pkg/analytics"
	"github.com/advisorly/experimentkit/pkg/configstore"
	"github.com/advisorly/experimentkit/pkg/feature"
	"github.com/advisorly/experimentkit/pkg/segment"
)

// GetFlag returns the current definition of a flag.
func (e *Engine) GetFlag(ctx context.Context, featureID string) (feature.Flag, error) {
	doc, err := e.store.GetFlags(ctx)
	if err != nil {
		if configstore.IsNotFound(err) {
			return feature.Flag{}, fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
		}
		return feature.Flag{}, err
	}
	flag, ok := doc.Flags[featureID]
	if !ok {
		return feature.Flag{}, fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
	}
	return flag, nil
}

// ListFlags returns all flag definitions keyed by ID.
func (e *Engine) ListFlags(ctx context.Context) (map[string]feature.Flag, error) {
	doc, err := e.store.GetFlags(ctx)
	if err != nil {
		if configstore.IsNotFound(err) {
			return map[string]feature.Flag{}, nil
		}
		return nil, err
	}
	return doc.Flags, nil
}

// UpsertFlag creates or replaces a flag definition. The whole document is
// re-validated, so a change that introduces a dependency cycle or a dangling
// dependency is rejected before it can reach evaluation.
func (e *Engine) UpsertFlag(ctx context.Context, flag feature.Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}

	err := e.updateFlags(ctx, func(doc *configstore.FlagsDocument) error {
		flag.UpdatedAt = e.now()
		doc.Flags[flag.ID] = flag
		return nil
	})
	if err != nil {
		return err
	}

	e.evaluator.InvalidateFeature(flag.ID)
	e.log.InfoContext(ctx, "feature flag upserted", slog.String("feature", flag.ID))
	return nil
}

// DeleteFlag removes a flag definition. Deleting a flag other flags depend
// on fails document validation and is rejected.
func (e *Engine) DeleteFlag(ctx context.Context, featureID string) error {
	err := e.updateFlags(ctx, func(doc *configstore.FlagsDocument) error {
		if _, ok := doc.Flags[featureID]; !ok {
			return fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
		}
		delete(doc.Flags, featureID)
		return nil
	})
	if err != nil {
		return err
	}

	e.evaluator.InvalidateFeature(featureID)
	e.log.InfoContext(ctx, "feature flag deleted", slog.String("feature", featureID))
	return nil
}

// EmergencyDisable turns a flag off for everyone immediately, bypassing
// rollout state. The flag's rollout percentage is preserved so a later
// re-enable resumes where the rollout stood.
func (e *Engine) EmergencyDisable(ctx context.Context, featureID, reason string) error {
	err := e.updateFlags(ctx, func(doc *configstore.FlagsDocument) error {
		flag, ok := doc.Flags[featureID]
		if !ok {
			return fmt.Errorf("%w: %s", feature.ErrFlagNotFound, featureID)
		}
		flag.Enabled = false
		flag.UpdatedAt = e.now()
		doc.Flags[featureID] = flag
		return nil
	})
	if err != nil {
		return err
	}

	e.evaluator.InvalidateFeature(featureID)
	e.log.WarnContext(ctx, "feature emergency disabled",
		slog.String("feature", featureID),
		slog.String("reason", reason))
	e.emit(ctx, analytics.Event{
		ID:        uuid.New().String(),
		Type:      analytics.TypeEmergencyDisable,
		Feature:   featureID,
		Reason:    reason,
		CreatedAt: e.now(),
	})
	return nil
}

// UpsertSegment creates or replaces a segment definition.
func (e *Engine) UpsertSegment(ctx context.Context, seg segment.Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	err := e.updateSegments(ctx, func(doc *configstore.SegmentsDocument) error {
		doc.Segments[seg.ID] = seg
		return nil
	})
	if err != nil {
		return err
	}

	// Overrides may have changed for any feature; drop everything.
	e.evaluator.InvalidateAll()
	e.log.InfoContext(ctx, "segment upserted", slog.String("segment", seg.ID))
	return nil
}

// DeleteSegment removes a segment definition. The regular cohort is the
// engine-wide default and cannot be deleted.
func (e *Engine) DeleteSegment(ctx context.Context, segmentID string) error {
	if segmentID == segment.DefaultSegmentID {
		return fmt.Errorf("%w: %s is the default cohort", ErrSegmentInUse, segmentID)
	}

	err := e.updateSegments(ctx, func(doc *configstore.SegmentsDocument) error {
		if _, ok := doc.Segments[segmentID]; !ok {
			return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
		}
		delete(doc.Segments, segmentID)
		return nil
	})
	if err != nil {
		return err
	}

	e.evaluator.InvalidateAll()
	e.log.InfoContext(ctx, "segment deleted", slog.String("segment", segmentID))
	return nil
}

// updateFlags applies a read-modify-write to the flag document, retrying
// once on a version conflict with a concurrent writer.
func (e *Engine) updateFlags(ctx context.Context, mutate func(*configstore.FlagsDocument) error) error {
	for attempt := 0; ; attempt++ {
		doc, err := e.store.GetFlags(ctx)
		if err != nil {
			if !configstore.IsNotFound(err) {
				return err
			}
			doc = configstore.FlagsDocument{}
		}
		if doc.Flags == nil {
			doc.Flags = make(map[string]feature.Flag)
		}

		if err := mutate(&doc); err != nil {
			return err
		}
		doc.Version++
		doc.UpdatedAt = e.now()

		err = e.store.PutFlags(ctx, doc)
		if configstore.IsVersionConflict(err) && attempt == 0 {
			continue
		}
		return err
	}
}

// updateSegments mirrors updateFlags for the segment document.
func (e *Engine) updateSegments(ctx context.Context, mutate func(*configstore.SegmentsDocument) error) error {
	for attempt := 0; ; attempt++ {
		doc, err := e.store.GetSegments(ctx)
		if err != nil {
			if !configstore.IsNotFound(err) {
				return err
			}
			doc = configstore.SegmentsDocument{}
		}
		if doc.Segments == nil {
			doc.Segments = make(map[string]segment.Segment)
		}

		if err := mutate(&doc); err != nil {
			return err
		}
		doc.Version++
		doc.UpdatedAt = e.now()

		err = e.store.PutSegments(ctx, doc)
		if configstore.IsVersionConflict(err) && attempt == 0 {
			continue
		}
		return err
	}
}
