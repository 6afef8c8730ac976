package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/repositories"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
)

// Plugin setting keys.
const (
	SettingWirevizPath = "WIREVIZ_PATH"
	SettingExtractBOM  = "EXTRACT_BOM"
)

// Settings are the plugin's user-editable settings.
type Settings struct {
	WirevizPath string `json:"WIREVIZ_PATH"`
	ExtractBOM  bool   `json:"EXTRACT_BOM"`
}

// SettingsUpdate changes the settings that are non-nil.
type SettingsUpdate struct {
	WirevizPath *string `json:"WIREVIZ_PATH"`
	ExtractBOM  *bool   `json:"EXTRACT_BOM"`
}

// SettingsService reads and writes plugin settings. Stored values override
// the environment defaults.
type SettingsService struct {
	repo      repositories.SettingsRepository
	templates TemplateStore
	publisher messaging.Publisher
	logger    *logging.ChanneledLogger

	onPathChange func()
}

// NewSettingsService creates a settings service.
func NewSettingsService(repo repositories.SettingsRepository, templates TemplateStore, publisher messaging.Publisher, logger *logging.ChanneledLogger) *SettingsService {
	return &SettingsService{
		repo:      repo,
		templates: templates,
		publisher: publisher,
		logger:    logger,
	}
}

// OnWirevizPathChange registers a callback run after the template
// directory moves, e.g. to retarget a file watcher.
func (s *SettingsService) OnWirevizPathChange(fn func()) {
	s.onPathChange = fn
}

// Get returns the effective settings.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	settings := Settings{WirevizPath: config.WirevizPath, ExtractBOM: config.ExtractBOM}

	stored, err := s.repo.All(ctx)
	if err != nil {
		return settings, fmt.Errorf("failed to load settings: %w", err)
	}
	if path, ok := stored[SettingWirevizPath]; ok {
		settings.WirevizPath = path
	}
	if raw, ok := stored[SettingExtractBOM]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			settings.ExtractBOM = v
		} else {
			s.logger.System().Warn("Ignoring malformed stored setting", "key", SettingExtractBOM, "value", raw)
		}
	}
	return settings, nil
}

// ExtractBOM reports the EXTRACT_BOM setting, falling back to the
// environment default when the store is unavailable.
func (s *SettingsService) ExtractBOM(ctx context.Context) bool {
	settings, err := s.Get(ctx)
	if err != nil {
		s.logger.System().Error("Failed to read EXTRACT_BOM, using default", "error", err.Error())
		return config.ExtractBOM
	}
	return settings.ExtractBOM
}

// Apply points the template store at the effective WIREVIZ_PATH. Called
// once at startup.
func (s *SettingsService) Apply(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.templates.SetSubdir(settings.WirevizPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return nil
}

// Update persists the given settings and returns the effective result.
func (s *SettingsService) Update(ctx context.Context, update SettingsUpdate) (Settings, error) {
	if update.WirevizPath != nil {
		previous := s.templates.Subdir()
		if err := s.templates.SetSubdir(*update.WirevizPath); err != nil {
			return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		if err := s.repo.Set(ctx, SettingWirevizPath, s.templates.Subdir()); err != nil {
			_ = s.templates.SetSubdir(previous)
			return Settings{}, err
		}
		s.logger.System().Info("Wireviz template path changed", "from", previous, "to", s.templates.Subdir())
		if s.onPathChange != nil {
			s.onPathChange()
		}
	}

	if update.ExtractBOM != nil {
		if err := s.repo.Set(ctx, SettingExtractBOM, strconv.FormatBool(*update.ExtractBOM)); err != nil {
			return Settings{}, err
		}
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	s.publisher.Publish(messaging.Message{Type: messaging.TypeSettingsUpdated, Payload: settings})
	return settings, nil
}
