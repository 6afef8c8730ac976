package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/repositories"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/render"
)

// AcceptedExtensions lists the harness file extensions accepted for import.
var AcceptedExtensions = []string{".wireviz", ".yml", ".yaml"}

// ImportDependencies groups the collaborators of an ImportService.
type ImportDependencies struct {
	Harnesses repositories.HarnessRepository
	Parts     repositories.PartRepository
	Templates TemplateSource
	Settings  BOMSetting
	Renderer  render.Renderer
	Previews  Previewer
	Files     FileStore
	Cache     interfaces.ContextCache
	Publisher messaging.Publisher
	Metrics   *metrics.Collector
}

// ImportResult is the outcome of a successful import.
type ImportResult struct {
	PartID  int64           `json:"part"`
	Context harness.Context `json:"context"`
}

// ImportService turns uploaded harness files into stored harness records:
// templates are prepended, the file parsed, the BOM extracted and matched
// against the inventory, and the diagram rendered.
type ImportService struct {
	deps        ImportDependencies
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewImportService creates an import service.
func NewImportService(deps ImportDependencies, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ImportService {
	if deps.Publisher == nil {
		deps.Publisher = messaging.NopPublisher{}
	}
	return &ImportService{deps: deps, logger: logger, perfTracker: perfTracker}
}

// Validate checks that data is an acceptable harness file without storing
// anything.
func (s *ImportService) Validate(filename string, data []byte) (*wireviz.Document, error) {
	if err := checkExtension(filename); err != nil {
		return nil, err
	}
	_, doc, err := s.parse(data)
	return doc, err
}

// ImportHarness imports a harness file for a part, replacing any previous
// harness. Render failures are recorded in the harness errors and do not
// fail the import.
func (s *ImportService) ImportHarness(ctx context.Context, partID int64, filename string, data []byte) (*ImportResult, error) {
	marker := s.perfTracker.StartOperation("import_harness", strconv.FormatInt(partID, 10))
	defer marker.Complete()
	log := s.logger.WithPart(logging.ChannelHarness, partID)

	part, err := s.deps.Parts.FindByID(ctx, partID)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load part %d: %w", partID, err)
	}
	if part == nil {
		marker.SetError(ErrPartNotFound)
		return nil, fmt.Errorf("%w: %d", ErrPartNotFound, partID)
	}

	if err := checkExtension(filename); err != nil {
		marker.SetError(err)
		s.deps.Metrics.RecordImport(metrics.StatusInvalid, 0, 0)
		return nil, err
	}

	log.Info("Processing wireviz file", "filename", filename, "size", len(data))

	source, doc, err := s.parse(data)
	if err != nil {
		marker.SetError(err)
		s.deps.Metrics.RecordImport(metrics.StatusInvalid, 0, 0)
		log.Warn("Rejected wireviz file", "filename", filename, "error", err.Error())
		return nil, err
	}

	rec := &harness.Record{PartID: partID, BOMData: []harness.BomEntry{}, Errors: []string{}, Warnings: []string{}}

	unmatched := 0
	if s.deps.Settings.ExtractBOM(ctx) {
		entries, warnings, err := s.buildBOM(ctx, doc)
		if err != nil {
			marker.SetError(err)
			s.deps.Metrics.RecordImport(metrics.StatusFailed, 0, 0)
			return nil, err
		}
		rec.BOMData = entries
		rec.Warnings = append(rec.Warnings, warnings...)
		unmatched = len(warnings)
	}

	var written []string
	cleanup := func() {
		if err := s.deps.Files.Remove(written...); err != nil {
			log.Warn("Failed to clean up harness files", "error", err.Error())
		}
	}

	rel, err := s.deps.Files.SaveHarnessFile(partID, extensionOf(filename), data)
	if err != nil {
		marker.SetError(err)
		s.deps.Metrics.RecordImport(metrics.StatusFailed, 0, 0)
		return nil, fmt.Errorf("failed to store harness source: %w", err)
	}
	written = append(written, rel)
	rec.SourceFile = rel

	status := metrics.StatusOK
	if svg, err := s.renderSVG(ctx, source); err != nil {
		status = metrics.StatusRenderError
		rec.Errors = append(rec.Errors, fmt.Sprintf("Failed to render diagram: %v", err))
		log.Warn("Diagram render failed", "error", err.Error())
	} else {
		rel, err := s.deps.Files.SaveHarnessFile(partID, "svg", svg)
		if err != nil {
			cleanup()
			marker.SetError(err)
			s.deps.Metrics.RecordImport(metrics.StatusFailed, 0, 0)
			return nil, fmt.Errorf("failed to store diagram: %w", err)
		}
		written = append(written, rel)
		rec.SVGFile = rel

		if preview := s.renderPreview(ctx, partID, source); preview != "" {
			written = append(written, preview)
			rec.PreviewFile = preview
		}
	}

	previous, err := s.deps.Harnesses.FindByPart(ctx, partID)
	if err != nil {
		log.Warn("Failed to load previous harness", "error", err.Error())
	}

	if err := s.deps.Harnesses.Store(ctx, rec); err != nil {
		cleanup()
		marker.SetError(err)
		s.deps.Metrics.RecordImport(metrics.StatusFailed, 0, 0)
		return nil, err
	}

	if previous != nil {
		if err := s.deps.Files.Remove(previous.Files()...); err != nil {
			log.Warn("Failed to remove replaced harness files", "error", err.Error())
		}
	}

	result := rec.Context(s.deps.Files.URL)
	s.deps.Cache.InvalidatePart(ctx, partID)
	s.deps.Cache.SetContext(ctx, partID, result)
	s.deps.Publisher.Publish(messaging.Message{
		Type:    messaging.TypeHarnessUpdated,
		Part:    partID,
		Payload: result.Map(),
	})
	s.deps.Metrics.RecordImport(status, len(rec.BOMData), unmatched)

	log.Info("Harness imported",
		"bomLines", len(rec.BOMData),
		"warnings", len(rec.Warnings),
		"errors", len(rec.Errors),
		"diagram", rec.SVGFile != "")
	return &ImportResult{PartID: partID, Context: result}, nil
}

// parse prepends the templates and parses the combined source.
func (s *ImportService) parse(data []byte) ([]byte, *wireviz.Document, error) {
	prepend, err := s.deps.Templates.PrependData()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	source := make([]byte, 0, len(prepend)+len(data))
	source = append(source, prepend...)
	source = append(source, data...)

	doc, err := wireviz.Parse(source)
	if err != nil {
		return nil, nil, newValidationError(ParseFailureMessage, err.Error())
	}
	return source, doc, nil
}

// buildBOM extracts the BOM and resolves every line's part number against
// the inventory. Unmatched part numbers become warnings.
func (s *ImportService) buildBOM(ctx context.Context, doc *wireviz.Document) ([]harness.BomEntry, []string, error) {
	items := wireviz.ExtractBOM(doc)
	entries := make([]harness.BomEntry, 0, len(items))
	var warnings []string

	for _, item := range items {
		entry := harness.BomEntry{
			Idx:         item.Idx,
			Designators: item.DesignatorList(),
			Description: item.Description,
			Quantity:    item.Qty,
			Unit:        optional(item.Unit),
		}

		candidates := nonEmptyStrings(item.PN, item.MPN, item.SPN)
		if len(candidates) > 0 {
			pn := candidates[0]
			entry.PN = &pn

			for _, candidate := range candidates {
				part, err := s.deps.Parts.MatchPartNumber(ctx, candidate)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to match part number %q: %w", candidate, err)
				}
				if part != nil {
					id := part.ID
					entry.SubPart = &id
					break
				}
			}

			if entry.SubPart == nil {
				label := entry.Designators
				if label == "" {
					label = entry.Description
				}
				warnings = append(warnings, fmt.Sprintf("Part number '%s' for %s does not match any part", pn, label))
			}
		}

		entries = append(entries, entry)
	}
	return entries, warnings, nil
}

func (s *ImportService) renderSVG(ctx context.Context, source []byte) ([]byte, error) {
	if s.deps.Renderer == nil {
		return nil, render.ErrUnavailable
	}
	start := time.Now()
	svg, err := s.deps.Renderer.RenderSVG(ctx, source)
	s.deps.Metrics.RecordRender(s.deps.Renderer.Name(), err, time.Since(start))
	return svg, err
}

// renderPreview stores a WebP preview when the renderer can rasterize.
// Failures are logged only.
func (s *ImportService) renderPreview(ctx context.Context, partID int64, source []byte) string {
	raster, ok := s.deps.Renderer.(render.RasterRenderer)
	if !ok || s.deps.Previews == nil || !s.deps.Previews.Enabled() {
		return ""
	}

	png, err := raster.RenderPNG(ctx, source)
	if err != nil {
		s.logger.Render().Warn("Preview render failed", "partId", partID, "error", err.Error())
		return ""
	}
	rel, err := s.deps.Previews.Save(partID, png)
	if err != nil {
		s.logger.Render().Warn("Preview encoding failed", "partId", partID, "error", err.Error())
		return ""
	}
	return rel
}

func checkExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return newValidationError(fmt.Sprintf("File '%s' must have one of the extensions %s", filename, strings.Join(AcceptedExtensions, ", ")))
}

func extensionOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonEmptyStrings(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
