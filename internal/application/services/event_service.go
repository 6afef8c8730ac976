package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
)

// EventAttachmentCreated is raised by the host when a part attachment is added.
const EventAttachmentCreated = "part_partattachment.created"

// Event is a host event notification.
type Event struct {
	Event  string         `json:"event"`
	Kwargs map[string]any `json:"kwargs"`
}

// EventResult reports what processing an event did.
type EventResult struct {
	Handled bool          `json:"handled"`
	Import  *ImportResult `json:"import,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// EventService reacts to host events. New .wireviz part attachments are
// imported as the part's harness.
type EventService struct {
	imports *ImportService
	files   FileStore
	logger  *logging.ChanneledLogger
}

// NewEventService creates an event service.
func NewEventService(imports *ImportService, files FileStore, logger *logging.ChanneledLogger) *EventService {
	return &EventService{imports: imports, files: files, logger: logger}
}

// Process handles one event. Events that do not concern the plugin, and
// attachments whose file is missing, are skipped without error.
func (s *EventService) Process(ctx context.Context, event Event) (*EventResult, error) {
	if event.Event != EventAttachmentCreated {
		return &EventResult{Reason: "ignored event"}, nil
	}

	partID, ok := intArg(event.Kwargs, "part")
	if !ok {
		return nil, newValidationError("event is missing the part id")
	}
	attachment, _ := event.Kwargs["attachment"].(string)
	if attachment == "" {
		return nil, newValidationError("event is missing the attachment path")
	}

	if !strings.HasSuffix(strings.ToLower(attachment), ".wireviz") {
		return &EventResult{Reason: "not a wireviz attachment"}, nil
	}

	log := s.logger.WithPart(logging.ChannelHarness, partID)
	log.Info("Processing wireviz attachment", "attachment", attachment)

	data, err := s.files.Read(attachment)
	if errors.Is(err, os.ErrNotExist) {
		log.Error("Attachment file does not exist", "attachment", attachment)
		return &EventResult{Reason: "attachment file does not exist"}, nil
	}
	if errors.Is(err, media.ErrOutsideRoot) {
		return nil, newValidationError(fmt.Sprintf("attachment path %q is outside the media root", attachment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	result, err := s.imports.ImportHarness(ctx, partID, path.Base(attachment), data)
	if err != nil {
		return nil, err
	}
	return &EventResult{Handled: true, Import: result}, nil
}

func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil
	}
	return 0, false
}
