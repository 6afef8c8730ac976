package harness

import "fmt"

// NoDiagramMessage is shown in the diagram slot when nothing was rendered.
const NoDiagramMessage = "No wireviz diagram available for this part"

// AlertLevel distinguishes error and warning alert blocks.
type AlertLevel string

const (
	AlertError   AlertLevel = "error"
	AlertWarning AlertLevel = "warning"
)

// Alert is one message inside an alert block.
type Alert struct {
	Key     string     `json:"key"`
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
}

// ViewOptions parameterizes BuildView.
type ViewOptions struct {
	CanEdit  bool
	PartLink PartLinker
}

// View is everything a harness panel needs for one render pass.
type View struct {
	CanEdit    bool         `json:"can_edit"`
	SVGFile    *string      `json:"svg_file"`
	SourceFile *string      `json:"source_file"`
	Preview    *string      `json:"preview_file,omitempty"`
	Diagram    string       `json:"diagram"`
	Rows       []BomRow     `json:"rows"`
	State      DiagramState `json:"state"`
	Alerts     []Alert      `json:"alerts"`
}

// BuildView assembles the panel view from a normalized context.
func BuildView(ctx Context, opts ViewOptions) View {
	state := DeriveState(ctx)

	view := View{
		CanEdit: opts.CanEdit,
		Rows:    ResolveRows(ctx.BOMData, opts.PartLink),
		State:   state,
		Alerts:  alerts(state),
	}

	if state.HasDiagram {
		view.SVGFile = ctx.SVGFile
		view.Diagram = *ctx.SVGFile
		view.Preview = ctx.PreviewFile
	} else {
		view.Diagram = NoDiagramMessage
	}
	if state.HasSource {
		view.SourceFile = ctx.SourceFile
	}

	return view
}

// BuildViewFromMap normalizes raw and builds its view.
func BuildViewFromMap(raw map[string]any, opts ViewOptions) View {
	return BuildView(Normalize(raw), opts)
}

func alerts(state DiagramState) []Alert {
	out := make([]Alert, 0, len(state.Errors)+len(state.Warnings))
	for i, msg := range state.Errors {
		out = append(out, Alert{Key: fmt.Sprintf("error-%d", i), Level: AlertError, Message: msg})
	}
	for i, msg := range state.Warnings {
		out = append(out, Alert{Key: fmt.Sprintf("warning-%d", i), Level: AlertWarning, Message: msg})
	}
	return out
}

// Template is an uploaded wireviz template file.
type Template struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// TemplateView drives the settings panel.
type TemplateView struct {
	CanEdit   bool       `json:"can_edit"`
	Templates []Template `json:"templates"`
	Empty     bool       `json:"empty"`
}

// BuildTemplateView keeps the template order it is given.
func BuildTemplateView(templates []Template, canEdit bool) TemplateView {
	list := append([]Template{}, templates...)
	return TemplateView{
		CanEdit:   canEdit,
		Templates: list,
		Empty:     len(list) == 0,
	}
}
