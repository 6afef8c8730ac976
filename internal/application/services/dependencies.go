package services

import (
	"context"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/templates"
)

// TemplateSource supplies the template text prepended to every harness.
type TemplateSource interface {
	PrependData() ([]byte, error)
}

// TemplateStore manages template files.
type TemplateStore interface {
	TemplateSource
	List() ([]templates.Entry, error)
	Save(name string, data []byte) (templates.Entry, error)
	Delete(name string) error
	Subdir() string
	SetSubdir(subdir string) error
}

// FileStore keeps harness files below the media root.
type FileStore interface {
	SaveHarnessFile(partID int64, ext string, data []byte) (string, error)
	Read(rel string) ([]byte, error)
	Remove(rels ...string) error
	RemovePartDir(partID int64) error
	URL(rel string) string
}

// Previewer turns a raster render into a stored preview image.
type Previewer interface {
	Enabled() bool
	Save(partID int64, raster []byte) (string, error)
}

// BOMSetting reports whether imports extract a bill of materials.
type BOMSetting interface {
	ExtractBOM(ctx context.Context) bool
}
