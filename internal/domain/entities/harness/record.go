package harness

import "time"

// Record is the persisted import result for one part. File fields hold
// media-relative paths; Context turns them into public URLs.
type Record struct {
	PartID      int64
	SourceFile  string
	SVGFile     string
	PreviewFile string
	BOMData     []BomEntry
	Errors      []string
	Warnings    []string
	UpdatedAt   time.Time
}

// Files lists the stored media paths of the record.
func (r *Record) Files() []string {
	if r == nil {
		return nil
	}
	var files []string
	for _, f := range []string{r.SourceFile, r.SVGFile, r.PreviewFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Context converts the record into the context published to the panels.
func (r *Record) Context(urlFor func(path string) string) Context {
	ctx := Empty()
	if r == nil {
		return ctx
	}

	if r.SVGFile != "" {
		url := urlFor(r.SVGFile)
		ctx.SVGFile = &url
	}
	if r.SourceFile != "" {
		url := urlFor(r.SourceFile)
		ctx.SourceFile = &url
	}
	if r.PreviewFile != "" {
		url := urlFor(r.PreviewFile)
		ctx.PreviewFile = &url
	}
	ctx.BOMData = append(ctx.BOMData, r.BOMData...)
	ctx.Errors = append(ctx.Errors, r.Errors...)
	ctx.Warnings = append(ctx.Warnings, r.Warnings...)
	return ctx
}
