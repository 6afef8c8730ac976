package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/inventory"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/repositories"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
)

// PartService maintains the mirrored part catalogue used for BOM matching.
type PartService struct {
	repo   repositories.PartRepository
	logger *logging.ChanneledLogger
}

// NewPartService creates a part service.
func NewPartService(repo repositories.PartRepository, logger *logging.ChanneledLogger) *PartService {
	return &PartService{repo: repo, logger: logger}
}

// Get returns a part by id.
func (s *PartService) Get(ctx context.Context, id int64) (*inventory.Part, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, fmt.Errorf("%w: %d", ErrPartNotFound, id)
	}
	return part, nil
}

// Match resolves a part number the way imports do.
func (s *PartService) Match(ctx context.Context, pn string) (*inventory.Part, error) {
	return s.repo.MatchPartNumber(ctx, pn)
}

// Sync upserts parts pushed by the host. All parts are validated before any
// is written.
func (s *PartService) Sync(ctx context.Context, parts []inventory.Part) (int, error) {
	var problems []string
	for i, part := range parts {
		if part.ID <= 0 {
			problems = append(problems, fmt.Sprintf("parts[%d]: id must be positive", i))
		}
		if strings.TrimSpace(part.Name) == "" {
			problems = append(problems, fmt.Sprintf("parts[%d]: name is required", i))
		}
		for _, alias := range part.Aliases {
			if !inventory.ValidAliasKind(alias.Kind) {
				problems = append(problems, fmt.Sprintf("parts[%d]: unknown alias kind %q", i, alias.Kind))
			}
		}
	}
	if len(problems) > 0 {
		return 0, newValidationError(problems...)
	}

	for i := range parts {
		if err := s.repo.Store(ctx, &parts[i]); err != nil {
			return i, fmt.Errorf("failed to store part %d: %w", parts[i].ID, err)
		}
	}
	s.logger.Database().Info("Parts synchronised", "count", len(parts))
	return len(parts), nil
}
