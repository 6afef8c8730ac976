package services

import (
	"errors"
	"fmt"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/templates"
)

// TemplateService manages the shared template files.
type TemplateService struct {
	store     TemplateStore
	urlFor    func(rel string) string
	publisher messaging.Publisher
	logger    *logging.ChanneledLogger
}

// NewTemplateService creates a template service; urlFor maps media-relative
// paths to public URLs.
func NewTemplateService(store TemplateStore, urlFor func(rel string) string, publisher messaging.Publisher, logger *logging.ChanneledLogger) *TemplateService {
	return &TemplateService{store: store, urlFor: urlFor, publisher: publisher, logger: logger}
}

// List returns the stored templates in name order.
func (s *TemplateService) List() ([]harness.Template, error) {
	entries, err := s.store.List()
	if err != nil {
		return nil, err
	}
	out := make([]harness.Template, 0, len(entries))
	for _, entry := range entries {
		out = append(out, s.toTemplate(entry))
	}
	return out, nil
}

// View builds the settings panel view.
func (s *TemplateService) View(canEdit bool) (harness.TemplateView, error) {
	list, err := s.List()
	if err != nil {
		return harness.TemplateView{}, err
	}
	return harness.BuildTemplateView(list, canEdit), nil
}

// Upload stores a template, replacing one with the same name.
func (s *TemplateService) Upload(name string, data []byte) (harness.Template, error) {
	entry, err := s.store.Save(name, data)
	if err != nil {
		if errors.Is(err, templates.ErrInvalidName) || errors.Is(err, templates.ErrInvalidYAML) {
			return harness.Template{}, newValidationError(err.Error())
		}
		return harness.Template{}, err
	}
	s.notify()
	return s.toTemplate(entry), nil
}

// Delete removes a template by name.
func (s *TemplateService) Delete(name string) error {
	if err := s.store.Delete(name); err != nil {
		switch {
		case errors.Is(err, templates.ErrNotFound):
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		case errors.Is(err, templates.ErrInvalidName):
			return newValidationError(err.Error())
		}
		return err
	}
	s.notify()
	return nil
}

// Changed announces template changes made outside the service, such as
// files edited on disk.
func (s *TemplateService) Changed() {
	s.logger.Storage().Info("Template directory changed")
	s.notify()
}

func (s *TemplateService) notify() {
	list, err := s.List()
	if err != nil {
		s.logger.Storage().Warn("Failed to list templates", "error", err.Error())
		list = []harness.Template{}
	}
	s.publisher.Publish(messaging.Message{Type: messaging.TypeTemplatesUpdated, Payload: list})
}

func (s *TemplateService) toTemplate(entry templates.Entry) harness.Template {
	return harness.Template{Name: entry.Name, URL: s.urlFor(entry.Path), Size: entry.Size}
}
