package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
	"github.com/greg-hellings/execadmin/pkg/listview"
	"github.com/greg-hellings/execadmin/pkg/report"
	"github.com/greg-hellings/execadmin/pkg/report/format"
	"github.com/greg-hellings/execadmin/pkg/services"
)

// criteriaFlags are the search form fields shared by list and export.
type criteriaFlags struct {
	code            string
	name            string
	territory       string
	operationType   string
	anywhere        bool
	includeInactive bool
	classifications []string
	reset           bool
}

func (f *criteriaFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.code, "code", "", "Executive code filter")
	c.Flags().StringVar(&f.name, "name", "", "Executive name filter")
	c.Flags().StringVar(&f.territory, "territory", "", "Territory code filter")
	c.Flags().StringVar(&f.operationType, "operation-type", "", "Operation type filter")
	c.Flags().BoolVar(&f.anywhere, "anywhere", false, "Match code and name anywhere instead of as a prefix")
	c.Flags().BoolVar(&f.includeInactive, "all", false, "Include inactive executives")
	c.Flags().StringArrayVar(&f.classifications, "classification", nil, "Classification filter GROUP:VALUE (repeatable)")
	c.Flags().BoolVar(&f.reset, "reset", false, "Ignore the criteria saved by the last search")
}

// apply overwrites the criteria fields named on the command line.
func (f *criteriaFlags) apply(c *cobra.Command, crit *executive.SelectionCriteria) {
	if f.reset {
		*crit = executive.DefaultSelectionCriteria()
	}
	set := func(flag string, dst *string, v string) {
		if c.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("code", &crit.ExecutiveCode, f.code)
	set("name", &crit.ExecutiveName, f.name)
	set("territory", &crit.TerritoryCode, f.territory)
	set("operation-type", &crit.OperationType, f.operationType)
	if c.Flags().Changed("anywhere") {
		crit.SearchType = executive.SearchStartWith
		if f.anywhere {
			crit.SearchType = executive.SearchAnyWhere
		}
	}
	if c.Flags().Changed("all") {
		crit.ActiveOnly = !f.includeInactive
	}
	crit.Normalize()
}

// selections parses the --classification values.
func (f *criteriaFlags) selections() ([]classification.Selection, error) {
	out := make([]classification.Selection, 0, len(f.classifications))
	for i, raw := range f.classifications {
		group, value, ok := strings.Cut(raw, ":")
		group, value = strings.TrimSpace(group), strings.TrimSpace(value)
		if !ok || group == "" || value == "" {
			return nil, fmt.Errorf("invalid classification %q, want GROUP:VALUE", raw)
		}
		out = append(out, classification.Selection{Index: i, GroupCode: group, ValueCode: value})
	}
	return out, nil
}

type listFlags struct {
	criteria   criteriaFlags
	page       int
	sortBy     string
	descending bool
	output     string
	noColor    bool
	colWidth   int
	open       string
	mode       string
	timeout    time.Duration
}

var lsFlags listFlags

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "Search executives",
		Long: strings.TrimSpace(`
Search executives page by page. The criteria of the last search are saved in
the client settings store and reused unless overridden or --reset is given.

Formats:
  console (default) - adaptive terminal table
  json              - machine-readable JSON

Examples:
  execadmin list --name kam --anywhere
  execadmin list --classification REG:W --page 2 --sort ExecutiveName
  execadmin list --code EX001 --open EX001 --mode edit
`),
		Args: cobra.NoArgs,
		RunE: runList,
	}
	lsFlags.criteria.register(c)
	c.Flags().IntVarP(&lsFlags.page, "page", "p", 1, "Page to show")
	c.Flags().StringVar(&lsFlags.sortBy, "sort", "", "Sort the page by column ("+strings.Join(listview.SortFields(), "|")+")")
	c.Flags().BoolVar(&lsFlags.descending, "desc", false, "Sort descending")
	c.Flags().StringVarP(&lsFlags.output, "format", "f", "console", "Output format: console|json")
	c.Flags().BoolVar(&lsFlags.noColor, "no-color", false, "Disable ANSI colors (console format)")
	c.Flags().IntVar(&lsFlags.colWidth, "col-width", 0, "Max column width (console format; 0=auto)")
	c.Flags().StringVar(&lsFlags.open, "open", "", "Store an edit intent for this executive code (see 'edit')")
	c.Flags().StringVar(&lsFlags.mode, "mode", string(executive.ModeEdit), "Intent stored by --open: edit|newBasedOn|new")
	c.Flags().DurationVar(&lsFlags.timeout, "timeout", 2*time.Minute, "Timeout for the search")
	return c
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), lsFlags.timeout)
	defer cancel()

	screen := listview.New(a.executives, a.prompts, a.store, listview.Options{
		Presenter: a.presenter(cmd.ErrOrStderr(), cmd.InOrStdin()),
		Logger:    slog.Default(),
	})
	screen.Restore()
	lsFlags.criteria.apply(cmd, &screen.Criteria)
	if err := screen.Selector.Load(ctx); err != nil {
		slog.Warn("classification groups unavailable", "error", err)
	}
	if cmd.Flags().Changed("classification") || lsFlags.criteria.reset {
		sel, err := lsFlags.criteria.selections()
		if err != nil {
			return err
		}
		screen.Selector.Clean()
		screen.Selector.SetSelectedClassifications(sel)
	}

	if err := screen.Search(ctx, true); err != nil {
		return err
	}
	if lsFlags.page > 1 {
		if err := screen.GoToPage(ctx, lsFlags.page); err != nil {
			return err
		}
	}
	if lsFlags.sortBy != "" {
		if err := screen.Sort(lsFlags.sortBy); err != nil {
			return err
		}
		if lsFlags.descending {
			_ = screen.Sort(lsFlags.sortBy)
		}
	}

	if lsFlags.open != "" {
		if err := storeIntent(screen, executive.Mode(lsFlags.mode), lsFlags.open); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(lsFlags.output) {
	case "console":
		return renderList(screen, out)
	case "json":
		return renderListJSON(screen, out)
	default:
		return fmt.Errorf("unsupported format: %s", lsFlags.output)
	}
}

// storeIntent records the navigation intent for the edit command.
func storeIntent(screen *listview.Screen, mode executive.Mode, code string) error {
	if mode == executive.ModeNew {
		return screen.Navigate(mode, nil)
	}
	row, ok := screen.Find(code)
	if !ok {
		return fmt.Errorf("executive %q is not on the current page", code)
	}
	if err := screen.Navigate(mode, row); err != nil {
		return err
	}
	slog.Info("edit intent stored", "mode", mode, "code", row.ExecutiveCode)
	return nil
}

func renderList(screen *listview.Screen, w io.Writer) error {
	if screen.NoData() {
		fmt.Fprintln(w, "No data to display.")
		return nil
	}
	formatter := format.NewConsoleFormatter()
	formatter.EnableColors = !lsFlags.noColor
	if lsFlags.colWidth > 0 {
		formatter.MaxColWidth = lsFlags.colWidth
	}
	formatter.Footer = fmt.Sprintf("Page %d of %d   %s",
		screen.Loader.CurrentPage(), screen.Loader.TotalPages(), screen.Loader.Summary())
	return formatter.Render(report.FromExecutives("Executives", screen.Rows()), w)
}

// listOutput is the JSON shape of one search page.
type listOutput struct {
	Version     string                      `json:"cliVersion"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	Criteria    executive.SelectionCriteria `json:"criteria"`
	Page        int                         `json:"page"`
	TotalPages  int                         `json:"totalPages"`
	TotalCount  int                         `json:"totalCount"`
	Executives  []executive.Summary         `json:"executives"`
}

func renderListJSON(screen *listview.Screen, w io.Writer) error {
	rows := screen.Rows()
	if rows == nil {
		rows = []executive.Summary{}
	}
	payload := listOutput{
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Criteria:    screen.Criteria,
		Page:        screen.Loader.CurrentPage(),
		TotalPages:  screen.Loader.TotalPages(),
		TotalCount:  screen.Loader.RowCount(),
		Executives:  rows,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
	return nil
}

type exportFlags struct {
	criteria criteriaFlags
	output   string
	outFile  string
	name     string
	pageSize int
	maxRows  int
	timeout  time.Duration
}

var expFlags exportFlags

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Export every executive matching the criteria",
		Long: strings.TrimSpace(`
Page through the whole search result and write it as a document. The file is
named after the grid and written to export.directory unless --out is given.

Formats: ` + formatNames() + `

Examples:
  execadmin export --format xlsx
  execadmin export --name kam --anywhere --format pdf --out kam.pdf
  execadmin export --format csv --out -
`),
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	expFlags.criteria.register(c)
	c.Flags().StringVarP(&expFlags.output, "format", "f", string(report.FormatExcel), "Output format: "+formatNames())
	c.Flags().StringVarP(&expFlags.outFile, "out", "o", "", "Output file ('-' for stdout)")
	c.Flags().StringVar(&expFlags.name, "grid-name", "Executives", "Grid name used for the file name and title")
	c.Flags().IntVar(&expFlags.pageSize, "page-size", 0, "Rows fetched per request (0=export.pageSize)")
	c.Flags().IntVar(&expFlags.maxRows, "max-rows", 0, "Stop after this many rows (0=all)")
	c.Flags().DurationVar(&expFlags.timeout, "timeout", 5*time.Minute, "Timeout for the export")
	return c
}

func formatNames() string {
	names := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, "|")
}

func runExport(cmd *cobra.Command, args []string) error {
	start := time.Now()
	f, err := report.ParseFormat(expFlags.output)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	crit := executive.DefaultSelectionCriteria()
	if saved, ok := a.store.SelectionCriteria(executive.TaskCode); ok {
		crit = saved
	}
	expFlags.criteria.apply(cmd, &crit)
	sel, err := expFlags.criteria.selections()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("classification") && !expFlags.criteria.reset {
		sel = a.store.ExecutiveLevels(executive.TaskCode)
	}
	req := backend.SearchRequest{SelectionCriteria: crit}
	for _, s := range sel {
		req.SelectedClassifications = append(req.SelectedClassifications, executive.ClassificationParameter{
			ParameterCode:  s.GroupCode,
			ParameterValue: s.ValueCode,
		})
	}

	pageSize := expFlags.pageSize
	if pageSize <= 0 {
		pageSize = a.cfg.Export.PageSize
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), expFlags.timeout)
	defer cancel()

	svc := services.NewExportService(a.executives, a.store, slog.Default())
	progress, handle, err := svc.Run(ctx, req, services.ExportOptions{
		GridName: expFlags.name,
		PageSize: pageSize,
		MaxRows:  expFlags.maxRows,
	})
	if err != nil {
		return fmt.Errorf("failed to start export: %w", err)
	}
	for p := range progress {
		slog.Info("Export progress", "phase", p.Phase, "page", p.Page, "totalPages", p.TotalPages, "rows", p.Rows, "total", p.Total)
	}
	grid, err := handle.Result()
	if err != nil {
		return fmt.Errorf("failed to export executives: %w", err)
	}

	if expFlags.outFile == "-" {
		return format.Write(cmd.OutOrStdout(), grid, f)
	}
	path := expFlags.outFile
	if path == "" {
		path = filepath.Join(a.cfg.Export.Directory, report.FileName(grid, f))
	}
	if err := writeFile(path, func(w io.Writer) error { return format.Write(w, grid, f) }); err != nil {
		return err
	}

	slog.Info("Export complete", "file", path, "rows", len(grid.Rows), "duration", time.Since(start).String())
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(grid.Rows), path)
	return nil
}

// writeFile creates path (and its directory) and hands it to fn.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
