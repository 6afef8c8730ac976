// Package render turns harness sources into diagrams by driving the external
// WireViz and Graphviz tools.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable is returned when a renderer's binary cannot be found.
var ErrUnavailable = errors.New("renderer binary not available")

// Renderer produces an SVG diagram from a (template-prepended) harness source.
type Renderer interface {
	Name() string
	Available() bool
	RenderSVG(ctx context.Context, source []byte) ([]byte, error)
}

// RasterRenderer is implemented by renderers that can also produce PNG output.
type RasterRenderer interface {
	Renderer
	RenderPNG(ctx context.Context, source []byte) ([]byte, error)
}

// Config selects and configures renderers.
type Config struct {
	Mode          string // wireviz, graphviz or auto
	WirevizBinary string
	DotBinary     string
	Timeout       time.Duration
}

// New builds the renderer selected by cfg.Mode.
func New(cfg Config) (RasterRenderer, error) {
	wv := &WirevizRenderer{Binary: cfg.WirevizBinary, Timeout: cfg.Timeout}
	gv := &GraphvizRenderer{Binary: cfg.DotBinary, Timeout: cfg.Timeout}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "wireviz":
		return wv, nil
	case "graphviz", "dot":
		return gv, nil
	case "", "auto":
		return NewChain(wv, gv), nil
	}
	return nil, fmt.Errorf("unknown renderer %q", cfg.Mode)
}

// run executes a command with a timeout, feeding stdin and returning stdout.
// Stderr is folded into the error.
func run(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, lastLine(msg))
	}
	return stdout.Bytes(), nil
}

func available(binary string) bool {
	if binary == "" {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
