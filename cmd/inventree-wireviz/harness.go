package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/render"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/templates"
	"github.com/AtRiskMedia/inventree-wireviz-go/pkg/config"
	"github.com/spf13/cobra"
)

var (
	templateDir string
	bomJSON     bool
	outputPath  string
	renderPNG   bool
	rendererArg string
)

var bomCmd = &cobra.Command{
	Use:   "bom <file>",
	Short: "Print the bill of materials of a harness file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBOM,
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a harness file to SVG or PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	for _, cmd := range []*cobra.Command{bomCmd, renderCmd} {
		cmd.Flags().StringVar(&templateDir, "templates", "", "directory of template files to prepend (default MEDIA_ROOT/WIREVIZ_PATH)")
	}
	bomCmd.Flags().BoolVar(&bomJSON, "json", false, "print the BOM as JSON")

	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderPNG, "png", false, "render PNG instead of SVG")
	renderCmd.Flags().StringVar(&rendererArg, "renderer", "", "wireviz, graphviz or auto (default RENDERER)")
}

// loadSource reads a harness file with the templates prepended.
func loadSource(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	store := templates.NewStore(config.MediaRoot, config.WirevizPath, logging.NewDiscardLogger())
	if templateDir != "" {
		store = templates.NewStore(templateDir, ".", logging.NewDiscardLogger())
	}
	prepend, err := store.PrependData()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	source := make([]byte, 0, len(prepend)+len(data))
	source = append(source, prepend...)
	return append(source, data...), nil
}

func runBOM(cmd *cobra.Command, args []string) error {
	source, err := loadSource(args[0])
	if err != nil {
		return err
	}
	doc, err := wireviz.Parse(source)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	items := wireviz.ExtractBOM(doc)

	out := cmd.OutOrStdout()
	if bomJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tQTY\tUNIT\tDESCRIPTION\tDESIGNATORS\tPN")
	for _, item := range items {
		pn := item.PN
		if pn == "" {
			pn = item.MPN
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			item.Idx, strconv.FormatFloat(item.Qty, 'f', -1, 64), item.Unit,
			item.Description, item.DesignatorList(), pn)
	}
	return tw.Flush()
}

func runRender(cmd *cobra.Command, args []string) error {
	source, err := loadSource(args[0])
	if err != nil {
		return err
	}
	if _, err := wireviz.Parse(source); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	mode := config.Renderer
	if rendererArg != "" {
		mode = rendererArg
	}
	renderer, err := render.New(render.Config{
		Mode:          mode,
		WirevizBinary: config.WirevizBinary,
		DotBinary:     config.DotBinary,
		Timeout:       config.RenderTimeout,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), config.RenderTimeout)
	defer cancel()

	var output []byte
	if renderPNG {
		output, err = renderer.RenderPNG(ctx, source)
	} else {
		output, err = renderer.RenderSVG(ctx, source)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", renderer.Name(), err)
	}

	if outputPath == "" {
		_, err = cmd.OutOrStdout().Write(output)
		return err
	}
	return os.WriteFile(outputPath, output, 0644)
}
