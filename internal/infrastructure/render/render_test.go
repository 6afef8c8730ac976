package render

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHarness = `
connectors:
  X1:
    type: Molex KK 254
    subtype: female
    pinlabels: [GND, VCC, RX, TX]
  X2:
    type: D-Sub
    pins: [A, B, C]
cables:
  W1:
    gauge: 0.25 mm2
    length: 0.2
    colors: [BK, RD, OG]
connections:
  - - X1: [1, 2, 3]
    - W1: [1, 2, 3]
    - X2: [A, B, C]
`

func parseSample(t *testing.T) *wireviz.Document {
	t.Helper()
	doc, err := wireviz.Parse([]byte(sampleHarness))
	require.NoError(t, err)
	return doc
}

func TestDOTNodesAndEdges(t *testing.T) {
	dot := DOT(parseSample(t))

	assert.True(t, strings.HasPrefix(dot, "graph harness {\n"))
	assert.Contains(t, dot, `"X1" [label="{X1|Molex KK 254, female|{<p1> 1 GND|<p2> 2 VCC|<p3> 3 RX|<p4> 4 TX}}"];`)
	assert.Contains(t, dot, `"X2" [label="{X2|D-Sub|{<p1> A|<p2> B|<p3> C}}"];`)
	assert.Contains(t, dot, `"W1" [label="{W1|0.25 mm², 0.2 m|{<w1> 1 BK|<w2> 2 RD|<w3> 3 OG}}", style=rounded];`)
	assert.Contains(t, dot, `"X1":p1 -- "W1":w1;`)
	assert.Contains(t, dot, `"W1":w3 -- "X2":p3;`)
	assert.Equal(t, 6, strings.Count(dot, " -- "))
}

func TestDOTEscapesRecordCharacters(t *testing.T) {
	doc := &wireviz.Document{Connectors: []wireviz.Connector{{Designator: "J1", Type: "a|b <c>", PinCount: 1}}}
	assert.Contains(t, DOT(doc), `{J1|a\|b \<c\>|{<p1> 1}}`)
}

func TestDOTFanOutSinglePin(t *testing.T) {
	doc, err := wireviz.Parse([]byte(`
connectors:
  X1: {pincount: 2}
  X2: {pincount: 2}
cables:
  W1: {wirecount: 2}
connections:
  - - X1: 1
    - W1: [1, 2]
    - X2: [1, 2]
`))
	require.NoError(t, err)
	dot := DOT(doc)
	assert.Contains(t, dot, `"X1":p1 -- "W1":w1;`)
	assert.Contains(t, dot, `"X1":p1 -- "W1":w2;`)
}

func TestDOTPinRanges(t *testing.T) {
	doc, err := wireviz.Parse([]byte(`
connectors:
  X1: {pincount: 3}
  X2: {pincount: 3}
cables:
  W1: {wirecount: 3}
connections:
  - - X1: [1-3]
    - W1: [1-3]
    - X2: [3-1]
`))
	require.NoError(t, err)
	dot := DOT(doc)
	assert.Contains(t, dot, `"X1":p3 -- "W1":w3;`)
	assert.Contains(t, dot, `"W1":w1 -- "X2":p3;`)
	assert.Contains(t, dot, `"W1":w3 -- "X2":p1;`)
	assert.Equal(t, 6, strings.Count(dot, " -- "))
}

type fakeRenderer struct {
	name      string
	available bool
	out       []byte
	err       error
	calls     int
}

func (f *fakeRenderer) Name() string    { return f.name }
func (f *fakeRenderer) Available() bool { return f.available }
func (f *fakeRenderer) RenderSVG(context.Context, []byte) ([]byte, error) {
	f.calls++
	return f.out, f.err
}
func (f *fakeRenderer) RenderPNG(ctx context.Context, src []byte) ([]byte, error) {
	return f.RenderSVG(ctx, src)
}

func TestChainReturnsFirstSuccess(t *testing.T) {
	failing := &fakeRenderer{name: "a", available: true, err: errors.New("boom")}
	missing := &fakeRenderer{name: "b"}
	working := &fakeRenderer{name: "c", available: true, out: []byte("<svg/>")}
	never := &fakeRenderer{name: "d", available: true, out: []byte("other")}

	chain := NewChain(failing, missing, working, never)
	out, err := chain.RenderSVG(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(out))
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, missing.calls)
	assert.Equal(t, 0, never.calls)
	assert.Equal(t, "chain(a,b,c,d)", chain.Name())
	assert.True(t, chain.Available())
}

func TestChainJoinsErrors(t *testing.T) {
	chain := NewChain(
		&fakeRenderer{name: "a", available: true, err: errors.New("first")},
		&fakeRenderer{name: "b"},
	)
	_, err := chain.RenderPNG(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewSelectsRenderer(t *testing.T) {
	r, err := New(Config{Mode: "wireviz", WirevizBinary: "wireviz"})
	require.NoError(t, err)
	assert.Equal(t, "wireviz", r.Name())

	r, err = New(Config{Mode: "GraphViz", DotBinary: "dot"})
	require.NoError(t, err)
	assert.Equal(t, "graphviz", r.Name())

	r, err = New(Config{Mode: "auto"})
	require.NoError(t, err)
	assert.Equal(t, "chain(wireviz,graphviz)", r.Name())

	_, err = New(Config{Mode: "inkscape"})
	assert.Error(t, err)
}

// fakeWireviz writes a shell script that mimics the wireviz CLI output layout.
func fakeWireviz(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "wireviz")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestWirevizRendererReadsOutput(t *testing.T) {
	bin := fakeWireviz(t, `out="$4"; in="$5"; base=$(basename "$in" .yml)
if [ "$2" = "s" ]; then echo "<svg>$(head -c 5 "$in")</svg>" > "$out/$base.svg"; fi
`)
	r := &WirevizRenderer{Binary: bin, Timeout: 5 * time.Second}
	require.True(t, r.Available())

	out, err := r.RenderSVG(context.Background(), []byte("conne"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>conne</svg>\n", string(out))

	_, err = r.RenderPNG(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "no .png output")
}

func TestWirevizRendererReportsStderr(t *testing.T) {
	bin := fakeWireviz(t, "echo 'Traceback' >&2\necho 'ValueError: bad pin' >&2\nexit 1\n")
	r := &WirevizRenderer{Binary: bin, Timeout: 5 * time.Second}

	_, err := r.RenderSVG(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ValueError: bad pin")
}

func TestWirevizRendererUnavailable(t *testing.T) {
	r := &WirevizRenderer{Binary: filepath.Join(t.TempDir(), "missing")}
	_, err := r.RenderSVG(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGraphvizRendererProducesSVG(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("graphviz not installed")
	}
	r := &GraphvizRenderer{Binary: "dot", Timeout: 10 * time.Second}
	out, err := r.RenderSVG(context.Background(), []byte(sampleHarness))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestGraphvizRendererRejectsInvalidSource(t *testing.T) {
	bin := fakeWireviz(t, "cat > /dev/null\necho '<svg/>'\n")
	r := &GraphvizRenderer{Binary: bin}
	_, err := r.RenderSVG(context.Background(), []byte("just: text"))
	assert.ErrorIs(t, err, wireviz.ErrEmptyHarness)

	out, err := r.RenderSVG(context.Background(), []byte(sampleHarness))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>\n", string(out))
}
