package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChainRenderer tries renderers in order and returns the first success.
type ChainRenderer struct {
	renderers []Renderer
}

// NewChain creates a chain over the given renderers.
func NewChain(renderers ...Renderer) *ChainRenderer {
	return &ChainRenderer{renderers: renderers}
}

// Name lists the chained renderers.
func (c *ChainRenderer) Name() string {
	names := make([]string, len(c.renderers))
	for i, r := range c.renderers {
		names[i] = r.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Available reports whether any renderer in the chain is usable.
func (c *ChainRenderer) Available() bool {
	for _, r := range c.renderers {
		if r.Available() {
			return true
		}
	}
	return false
}

// RenderSVG returns the first successful SVG in chain order.
func (c *ChainRenderer) RenderSVG(ctx context.Context, source []byte) ([]byte, error) {
	return c.try(func(r Renderer) ([]byte, error) { return r.RenderSVG(ctx, source) })
}

// RenderPNG only consults renderers that support raster output.
func (c *ChainRenderer) RenderPNG(ctx context.Context, source []byte) ([]byte, error) {
	return c.try(func(r Renderer) ([]byte, error) {
		raster, ok := r.(RasterRenderer)
		if !ok {
			return nil, fmt.Errorf("%s: no raster output", r.Name())
		}
		return raster.RenderPNG(ctx, source)
	})
}

func (c *ChainRenderer) try(fn func(Renderer) ([]byte, error)) ([]byte, error) {
	var errs []error
	for _, r := range c.renderers {
		if !r.Available() {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), ErrUnavailable))
			continue
		}
		out, err := fn(r)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrUnavailable
	}
	return nil, errors.Join(errs...)
}
