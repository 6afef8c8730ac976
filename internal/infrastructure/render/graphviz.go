package render

import (
	"context"
	"fmt"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
)

// GraphvizRenderer draws a simplified diagram from the parsed harness by
// piping generated DOT through Graphviz. Used when wireviz is not installed.
type GraphvizRenderer struct {
	Binary  string
	Timeout time.Duration
}

// Name identifies the renderer in status output.
func (r *GraphvizRenderer) Name() string { return "graphviz" }

// Available reports whether the dot binary can be found.
func (r *GraphvizRenderer) Available() bool { return available(r.Binary) }

// RenderSVG renders the harness source to SVG with Graphviz dot.
func (r *GraphvizRenderer) RenderSVG(ctx context.Context, source []byte) ([]byte, error) {
	return r.render(ctx, source, "svg")
}

// RenderPNG renders the harness source to PNG with Graphviz dot.
func (r *GraphvizRenderer) RenderPNG(ctx context.Context, source []byte) ([]byte, error) {
	return r.render(ctx, source, "png")
}

func (r *GraphvizRenderer) render(ctx context.Context, source []byte, format string) ([]byte, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%s: %w", r.Binary, ErrUnavailable)
	}

	doc, err := wireviz.Parse(source)
	if err != nil {
		return nil, err
	}
	return run(ctx, r.Timeout, []byte(DOT(doc)), r.Binary, "-T"+format)
}
