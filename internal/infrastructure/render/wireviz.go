package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WirevizRenderer runs the wireviz command line tool.
type WirevizRenderer struct {
	Binary  string
	Timeout time.Duration
}

// Name identifies the renderer in status output.
func (r *WirevizRenderer) Name() string { return "wireviz" }

// Available reports whether the wireviz binary can be found.
func (r *WirevizRenderer) Available() bool { return available(r.Binary) }

// RenderSVG renders the harness source to SVG with the wireviz CLI.
func (r *WirevizRenderer) RenderSVG(ctx context.Context, source []byte) ([]byte, error) {
	return r.render(ctx, source, "s", ".svg")
}

// RenderPNG renders the harness source to PNG with the wireviz CLI.
func (r *WirevizRenderer) RenderPNG(ctx context.Context, source []byte) ([]byte, error) {
	return r.render(ctx, source, "p", ".png")
}

// render writes the source to a scratch directory and asks wireviz to emit a
// single output format next to it.
func (r *WirevizRenderer) render(ctx context.Context, source []byte, format, ext string) ([]byte, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%s: %w", r.Binary, ErrUnavailable)
	}

	dir, err := os.MkdirTemp("", "wireviz-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "harness.yml")
	if err := os.WriteFile(input, source, 0644); err != nil {
		return nil, fmt.Errorf("failed to write harness source: %w", err)
	}

	if _, err := run(ctx, r.Timeout, nil, r.Binary, "--format", format, "--output-dir", dir, input); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(filepath.Join(dir, "harness"+ext))
	if err != nil {
		return nil, fmt.Errorf("wireviz produced no %s output: %w", ext, err)
	}
	return out, nil
}
