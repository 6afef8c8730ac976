package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func TestNormalizeMissingFields(t *testing.T) {
	ctx := Normalize(map[string]any{"unrelated": 42})

	assert.Nil(t, ctx.SVGFile)
	assert.Nil(t, ctx.SourceFile)
	assert.NotNil(t, ctx.BOMData)
	assert.Empty(t, ctx.BOMData)
	assert.Equal(t, []string{}, ctx.Errors)
	assert.Equal(t, []string{}, ctx.Warnings)

	assert.Empty(t, ResolveRows(ctx.BOMData, nil))
}

func TestNormalizeNilMap(t *testing.T) {
	ctx := Normalize(nil)
	assert.Empty(t, ctx.BOMData)
	assert.False(t, DeriveState(ctx).HasDiagram)
}

func TestNormalizeMalformedFields(t *testing.T) {
	ctx := Normalize(map[string]any{
		KeySVGFile:    123,
		KeySourceFile: "",
		KeyBOMData:    "not a list",
		KeyErrors:     []any{"boom", 7, nil, "again"},
		KeyWarnings:   map[string]any{"x": 1},
	})

	assert.Nil(t, ctx.SVGFile)
	assert.Nil(t, ctx.SourceFile)
	assert.Empty(t, ctx.BOMData)
	assert.Equal(t, []string{"boom", "again"}, ctx.Errors)
	assert.Empty(t, ctx.Warnings)
}

func TestNormalizeBOMEntries(t *testing.T) {
	ctx := Normalize(map[string]any{
		KeyBOMData: []any{
			map[string]any{
				"idx":         float64(3),
				"designators": []any{"X1", "X2"},
				"description": "Connector, D-Sub, female, 9 pins",
				"quantity":    "2",
				"unit":        "",
				"pn":          "DSUB-9F",
				"sub_part":    float64(12),
			},
			"garbage",
			map[string]any{"description": "no idx"},
		},
	})

	require.Len(t, ctx.BOMData, 2)

	first := ctx.BOMData[0]
	assert.Equal(t, 3, first.Idx)
	assert.Equal(t, "X1, X2", first.Designators)
	assert.Equal(t, 2.0, first.Quantity)
	assert.Nil(t, first.Unit)
	require.NotNil(t, first.PN)
	assert.Equal(t, "DSUB-9F", *first.PN)
	require.NotNil(t, first.SubPart)
	assert.Equal(t, int64(12), *first.SubPart)

	second := ctx.BOMData[1]
	assert.Equal(t, 3, second.Idx, "missing idx falls back to the 1-based position")
	assert.Nil(t, second.PN)
	assert.Nil(t, second.SubPart)
}

func TestNormalizeJSON(t *testing.T) {
	ctx, err := NormalizeJSON([]byte(`{"wireviz_svg_file":"a.svg","wireviz_bom_data":[{"idx":1,"pn":"R1","sub_part":5}]}`))
	require.NoError(t, err)
	require.NotNil(t, ctx.SVGFile)
	assert.Equal(t, "a.svg", *ctx.SVGFile)
	require.Len(t, ctx.BOMData, 1)

	_, err = NormalizeJSON([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)
}

func TestContextMapRoundTrip(t *testing.T) {
	original := Context{
		SVGFile:  strPtr("/media/a.svg"),
		BOMData:  []BomEntry{{Idx: 1, Designators: "W1", Quantity: 0.5, Unit: strPtr("m"), PN: strPtr("C1")}},
		Errors:   []string{},
		Warnings: []string{"w"},
	}

	assert.Equal(t, original, Normalize(original.Map()))
}

func TestResolveRowsPartLinkRequiresSubPart(t *testing.T) {
	rows := ResolveRows([]BomEntry{
		{Idx: 1, PN: strPtr("R1")},
		{Idx: 2, PN: nil},
	}, nil)

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Nil(t, row.PartLink)
		assert.False(t, row.HasLink())
	}
}

func TestResolveRowsPartLinkRequiresPN(t *testing.T) {
	rows := ResolveRows([]BomEntry{{Idx: 1, SubPart: intPtr(9)}}, nil)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PartLink)
}

func TestResolveRowsPartLinkDeterministic(t *testing.T) {
	entries := []BomEntry{{Idx: 1, PN: strPtr("R1"), SubPart: intPtr(5)}}

	first := ResolveRows(entries, nil)
	second := ResolveRows(entries, nil)

	require.NotNil(t, first[0].PartLink)
	assert.Equal(t, "/part/5/", *first[0].PartLink)
	assert.Equal(t, *first[0].PartLink, *second[0].PartLink)

	custom := ResolveRows(entries, PartLinkWithPrefix("/platform/part"))
	assert.Equal(t, "/platform/part/5/", *custom[0].PartLink)
}

func TestResolveRowsPreservesOrder(t *testing.T) {
	idxs := []int{4, 1, 5, 2, 3}
	entries := make([]BomEntry, 0, len(idxs))
	for _, idx := range idxs {
		entries = append(entries, BomEntry{Idx: idx})
	}

	rows := ResolveRows(entries, nil)
	require.Len(t, rows, len(idxs))
	for i, row := range rows {
		assert.Equal(t, idxs[i], row.Idx)
	}
}

func TestResolveRowsKeysUnique(t *testing.T) {
	rows := ResolveRows([]BomEntry{
		{Idx: 1, Designators: "X1"},
		{Idx: 1, Designators: "X1"},
		{Idx: 2, Designators: "X1"},
	}, nil)

	keys := map[string]bool{}
	for _, row := range rows {
		assert.False(t, keys[row.Key], "duplicate key %s", row.Key)
		keys[row.Key] = true
	}
	assert.Equal(t, "bom-1", rows[0].Key)
}

func TestDiagramStateWithoutSVG(t *testing.T) {
	view := BuildView(Normalize(map[string]any{KeySVGFile: nil}), ViewOptions{})

	assert.False(t, view.State.HasDiagram)
	assert.Nil(t, view.SVGFile)
	assert.Equal(t, NoDiagramMessage, view.Diagram)
}

func TestDiagramStateAlerts(t *testing.T) {
	none := DeriveState(Normalize(map[string]any{KeyErrors: []any{}}))
	assert.False(t, none.HasErrors)
	assert.Empty(t, BuildView(Normalize(map[string]any{KeyErrors: []any{}}), ViewOptions{}).Alerts)

	view := BuildView(Normalize(map[string]any{KeyErrors: []any{"x"}}), ViewOptions{})
	assert.True(t, view.State.HasErrors)
	require.Len(t, view.Alerts, 1)
	assert.Equal(t, AlertError, view.Alerts[0].Level)
	assert.Equal(t, "x", view.Alerts[0].Message)
}

func TestDiagramStateIdenticalMessagesKeepDistinctKeys(t *testing.T) {
	view := BuildView(Normalize(map[string]any{
		KeyErrors:   []any{"same", "same"},
		KeyWarnings: []any{"same"},
	}), ViewOptions{})

	require.Len(t, view.Alerts, 3)
	assert.NotEqual(t, view.Alerts[0].Key, view.Alerts[1].Key)
	assert.NotEqual(t, view.Alerts[1].Key, view.Alerts[2].Key)
}

func TestDiagramStateSource(t *testing.T) {
	state := DeriveState(Normalize(map[string]any{KeySourceFile: "/media/x.wireviz"}))
	assert.True(t, state.HasSource)
	assert.False(t, state.HasDiagram)
}

func TestBuildViewEndToEnd(t *testing.T) {
	raw := map[string]any{
		KeySVGFile: "a.svg",
		KeyBOMData: []any{map[string]any{
			"idx":         float64(1),
			"sub_part":    float64(5),
			"pn":          "R1",
			"designators": "R1",
			"description": "resistor",
			"quantity":    float64(1),
			"unit":        nil,
		}},
		KeyErrors:   []any{},
		KeyWarnings: []any{},
	}

	view := BuildViewFromMap(raw, ViewOptions{CanEdit: true})

	require.Len(t, view.Rows, 1)
	require.NotNil(t, view.Rows[0].PartLink)
	assert.Equal(t, DefaultPartLink(5), *view.Rows[0].PartLink)
	assert.True(t, view.State.HasDiagram)
	assert.Equal(t, "a.svg", view.Diagram)
	assert.Empty(t, view.Alerts)
	assert.True(t, view.CanEdit)
}

func TestBuildTemplateView(t *testing.T) {
	empty := BuildTemplateView(nil, false)
	assert.True(t, empty.Empty)
	assert.NotNil(t, empty.Templates)

	view := BuildTemplateView([]Template{{Name: "b.wireviz"}, {Name: "a.wireviz"}}, true)
	assert.False(t, view.Empty)
	assert.Equal(t, "b.wireviz", view.Templates[0].Name)
}
