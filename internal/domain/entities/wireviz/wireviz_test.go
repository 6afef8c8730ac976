package wireviz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHarness = `
connectors:
  X1:
    type: D-Sub
    subtype: female
    pinlabels: [DCD, RX, TX, DTR, GND, DSR, RTS, CTS, RI]
    pn: DSUB-9F
  X2:
    type: Molex KK 254
    subtype: female
    pincount: 3
    pn: KK-3
    additional_components:
      - type: Crimp
        subtype: KK 254
        qty_multiplier: pincount
        pn: KK-CRIMP
  X3:
    type: Molex KK 254
    subtype: female
    pincount: 3
    pn: KK-3
  F1:
    style: simple
    type: Ferrule
    autogenerate: true

cables:
  W1:
    gauge: 0.25 mm2
    length: 0.2
    wirecount: 3
    shield: true
    pn: CAB-3
  W2:
    category: bundle
    gauge: 0.5
    length: 2 m
    colors: [BK, RD]

connections:
  - - X1: [5, 2, 3]
    - W1: [1, 2, 3]
    - X2: [1, 3, 2]
  - - F1
    - W2: [1]
    - X3: [1]
  - - F1
    - W2: [2]
    - X3: [2]

additional_bom_items:
  - description: Label, pinout
    qty: 2
    designators: [X1]
    pn: LBL-1
`

func TestParseSample(t *testing.T) {
	doc, err := Parse([]byte(sampleHarness))
	require.NoError(t, err)

	require.Len(t, doc.Connectors, 4)
	assert.Equal(t, "X1", doc.Connectors[0].Designator, "document order is preserved")
	assert.Equal(t, 9, doc.Connectors[0].EffectivePinCount())
	assert.Equal(t, "DSUB-9F", doc.Connectors[0].PN)
	assert.True(t, doc.Connectors[3].Autogenerate)

	require.Len(t, doc.Cables, 2)
	length, unit := doc.Cables[1].Length()
	assert.Equal(t, 2.0, length)
	assert.Equal(t, "m", unit)
	assert.True(t, doc.Cables[0].Shielded())

	require.Len(t, doc.Connections, 3)
	assert.Equal(t, []string{"5", "2", "3"}, doc.Connections[0][0].Pins)
	assert.Equal(t, "F1", doc.Connections[1][0].Designator)
}

func TestExtractBOM(t *testing.T) {
	doc, err := Parse([]byte(sampleHarness))
	require.NoError(t, err)

	items := ExtractBOM(doc)
	byDesc := map[string]BomItem{}
	for i, item := range items {
		assert.Equal(t, i+1, item.Idx)
		byDesc[item.Description] = item
	}

	dsub := byDesc["Connector, D-Sub, female, 9 pins"]
	assert.Equal(t, 1.0, dsub.Qty)
	assert.Equal(t, []string{"X1"}, dsub.Designators)
	assert.Equal(t, "DSUB-9F", dsub.PN)

	kk := byDesc["Connector, Molex KK 254, female, 3 pins"]
	assert.Equal(t, 2.0, kk.Qty, "identical connectors are grouped")
	assert.Equal(t, "X2, X3", kk.DesignatorList())

	crimp := byDesc["Crimp, KK 254"]
	assert.Equal(t, 3.0, crimp.Qty)

	ferrule := byDesc["Connector, Ferrule"]
	assert.Equal(t, 2.0, ferrule.Qty)
	assert.Empty(t, ferrule.Designators)

	cable := byDesc["Cable, 3 x 0.25 mm², shielded"]
	assert.Equal(t, 0.2, cable.Qty)
	assert.Equal(t, "m", cable.Unit)
	assert.Equal(t, "CAB-3", cable.PN)

	black := byDesc["Wire, 0.5 mm², BK"]
	assert.Equal(t, 2.0, black.Qty)
	assert.Equal(t, []string{"W2"}, black.Designators)

	label := byDesc["Label, pinout"]
	assert.Equal(t, 2.0, label.Qty)
	assert.Equal(t, "LBL-1", label.PN)

	assert.Equal(t, "Connector, D-Sub, female, 9 pins", items[0].Description)
	assert.Equal(t, "Label, pinout", items[len(items)-1].Description)
}

func TestParseWithPrependedTemplate(t *testing.T) {
	tmpl := []byte(`
templates:
  - &kk3
    type: Molex KK 254
    subtype: female
    pincount: 3
`)
	source := []byte(`
connectors:
  X1:
    <<: *kk3
    pn: KK-3
`)

	doc, err := Parse(Prepend([][]byte{tmpl}, source))
	require.NoError(t, err)
	require.Len(t, doc.Connectors, 1)
	assert.Equal(t, "Molex KK 254", doc.Connectors[0].Type)
	assert.Equal(t, 3, doc.Connectors[0].EffectivePinCount())

	_, err = Parse(source)
	assert.Error(t, err, "unknown anchor without the template")
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not a mapping":  "- just\n- a list\n",
		"invalid yaml":   "connectors: [unclosed",
		"no components":  "metadata:\n  title: nothing\n",
		"unknown target": "connectors:\n  X1:\n    pincount: 2\nconnections:\n  - - X1: [1]\n    - W9: [1]\n",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(""))
	assert.ErrorIs(t, err, ErrEmptyHarness)
}

func TestPrependOrder(t *testing.T) {
	out := Prepend([][]byte{[]byte("a: 1"), []byte("b: 2")}, []byte("c: 3"))
	assert.Equal(t, "a: 1\n\nb: 2\n\nc: 3", string(out))
}

func TestParseLaterSectionReplacesTemplateSection(t *testing.T) {
	tmpl := []byte(`
connectors:
  TPL:
    type: Template only
    pincount: 2
cables:
  WT:
    wirecount: 1
`)
	source := []byte(`
connectors:
  X1:
    type: Molex KK 254
    pincount: 2
`)

	doc, err := Parse(Prepend([][]byte{tmpl}, source))
	require.NoError(t, err)
	require.Len(t, doc.Connectors, 1)
	assert.Equal(t, "X1", doc.Connectors[0].Designator)
	require.Len(t, doc.Cables, 1, "sections the harness does not repeat are kept")

	for _, item := range ExtractBOM(doc) {
		assert.NotContains(t, item.Description, "Template only")
	}
}

func TestParseExpandsPinRanges(t *testing.T) {
	doc, err := Parse([]byte(`
connectors:
  X1: {pincount: 6}
  X2: {pins: [A-1, B-2]}
cables:
  W1: {wirecount: 3}
connections:
  - - X1: [1-3]
    - W1: [1, 2, 3]
    - X1: [6-4]
  - - X2: [A-1]
    - W1: 2
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, doc.Connections[0][0].Pins)
	assert.Equal(t, []string{"6", "5", "4"}, doc.Connections[0][2].Pins)
	assert.Equal(t, []string{"A-1"}, doc.Connections[1][0].Pins, "non-numeric names are kept")
	assert.Equal(t, 3, doc.Connections[0].Width())
	assert.Equal(t, 1, doc.Connections[1].Width())
}

func TestExtractBOMCountsAutogeneratedPerWire(t *testing.T) {
	doc, err := Parse([]byte(`
connectors:
  F1:
    type: Ferrule
    autogenerate: true
  X1:
    pincount: 3
cables:
  W1:
    wirecount: 3
connections:
  - - F1
    - W1: [1, 2, 3]
    - X1: [1-3]
`))
	require.NoError(t, err)

	byDesc := map[string]BomItem{}
	for _, item := range ExtractBOM(doc) {
		byDesc[item.Description] = item
	}
	assert.Equal(t, 3.0, byDesc["Connector, Ferrule"].Qty)
}

func TestExtractBOMCableDescriptions(t *testing.T) {
	doc, err := Parse([]byte(`
connectors:
  X1: {pincount: 2}
cables:
  W1:
    type: LIYY
    wirecount: 2
    length: 1
  W2:
    wirecount: 1
    gauge: 0.5
    length: 1
`))
	require.NoError(t, err)

	items := ExtractBOM(doc)
	var descriptions []string
	for _, item := range items {
		descriptions = append(descriptions, item.Description)
	}
	assert.Contains(t, descriptions, "Cable, LIYY, 2 wires")
	assert.Contains(t, descriptions, "Cable, 1 x 0.5 mm²")
}
