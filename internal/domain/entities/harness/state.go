package harness

// DiagramState says which panel sections have something to show.
type DiagramState struct {
	HasDiagram  bool     `json:"has_diagram"`
	HasSource   bool     `json:"has_source"`
	HasErrors   bool     `json:"has_errors"`
	HasWarnings bool     `json:"has_warnings"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
}

// DeriveState computes the section visibility for ctx. Absent and empty
// message lists are treated the same.
func DeriveState(ctx Context) DiagramState {
	errs := append([]string{}, ctx.Errors...)
	warns := append([]string{}, ctx.Warnings...)

	return DiagramState{
		HasDiagram:  ctx.SVGFile != nil && *ctx.SVGFile != "",
		HasSource:   ctx.SourceFile != nil && *ctx.SourceFile != "",
		HasErrors:   len(errs) > 0,
		HasWarnings: len(warns) > 0,
		Errors:      errs,
		Warnings:    warns,
	}
}
