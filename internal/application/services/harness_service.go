package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/repositories"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
)

// HarnessService serves the per-part harness context and panel view, and
// removes stored harnesses.
type HarnessService struct {
	harnesses   repositories.HarnessRepository
	parts       repositories.PartRepository
	cache       interfaces.ContextCache
	files       FileStore
	publisher   messaging.Publisher
	partLink    harness.PartLinker
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewHarnessService creates a harness service.
func NewHarnessService(
	harnesses repositories.HarnessRepository,
	parts repositories.PartRepository,
	cache interfaces.ContextCache,
	files FileStore,
	publisher messaging.Publisher,
	partLink harness.PartLinker,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *HarnessService {
	if partLink == nil {
		partLink = harness.DefaultPartLink
	}
	return &HarnessService{
		harnesses:   harnesses,
		parts:       parts,
		cache:       cache,
		files:       files,
		publisher:   publisher,
		partLink:    partLink,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Context returns the published context for a part (cache-first). Parts
// without a harness yield the empty context.
func (s *HarnessService) Context(ctx context.Context, partID int64) (harness.Context, error) {
	marker := s.perfTracker.StartOperation("harness_context", strconv.FormatInt(partID, 10))
	defer marker.Complete()

	if cached, ok := s.cache.GetContext(ctx, partID); ok {
		marker.AddCacheHit()
		return cached, nil
	}
	marker.AddCacheMiss()

	if err := s.requirePart(ctx, partID); err != nil {
		marker.SetError(err)
		return harness.Empty(), err
	}

	rec, err := s.harnesses.FindByPart(ctx, partID)
	if err != nil {
		marker.SetError(err)
		return harness.Empty(), fmt.Errorf("failed to load harness for part %d: %w", partID, err)
	}

	result := rec.Context(s.files.URL)
	if !s.cache.FillContext(ctx, partID, result) {
		s.logger.Cache().Debug("Kept newer cached context", "partId", partID)
	}
	return result, nil
}

// View builds the panel view for a part.
func (s *HarnessService) View(ctx context.Context, partID int64, canEdit bool) (harness.View, error) {
	hctx, err := s.Context(ctx, partID)
	if err != nil {
		return harness.View{}, err
	}
	return s.BuildView(hctx, canEdit), nil
}

// ViewFromMap builds a panel view from an untrusted context payload.
func (s *HarnessService) ViewFromMap(raw map[string]any, canEdit bool) harness.View {
	return s.BuildView(harness.Normalize(raw), canEdit)
}

// BuildView applies the configured part link to a normalized context.
func (s *HarnessService) BuildView(hctx harness.Context, canEdit bool) harness.View {
	return harness.BuildView(hctx, harness.ViewOptions{CanEdit: canEdit, PartLink: s.partLink})
}

// Delete removes a part's harness record and its stored files.
func (s *HarnessService) Delete(ctx context.Context, partID int64) error {
	marker := s.perfTracker.StartOperation("harness_delete", strconv.FormatInt(partID, 10))
	defer marker.Complete()

	if err := s.requirePart(ctx, partID); err != nil {
		marker.SetError(err)
		return err
	}

	rec, err := s.harnesses.FindByPart(ctx, partID)
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("failed to load harness for part %d: %w", partID, err)
	}
	if rec == nil {
		return ErrHarnessNotFound
	}

	if err := s.harnesses.Delete(ctx, partID); err != nil {
		marker.SetError(err)
		return err
	}
	if err := s.files.RemovePartDir(partID); err != nil {
		s.logger.Harness().Warn("Failed to remove harness files", "partId", partID, "error", err.Error())
	}

	s.cache.SetContext(ctx, partID, harness.Empty())
	s.publisher.Publish(messaging.Message{
		Type:    messaging.TypeHarnessUpdated,
		Part:    partID,
		Payload: harness.Empty().Map(),
	})
	s.logger.Harness().Info("Harness deleted", "partId", partID, "files", len(rec.Files()))
	return nil
}

func (s *HarnessService) requirePart(ctx context.Context, partID int64) error {
	part, err := s.parts.FindByID(ctx, partID)
	if err != nil {
		return fmt.Errorf("failed to load part %d: %w", partID, err)
	}
	if part == nil {
		return fmt.Errorf("%w: %d", ErrPartNotFound, partID)
	}
	return nil
}
