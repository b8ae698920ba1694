package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/editform"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

// selectorTypes names the classification types kept on a record.
var selectorTypes = []struct {
	name string
	typ  string
}{
	{"executive", backend.ExecutiveClassificationType},
	{"marketing", backend.MarketingClassificationType},
	{"geo", backend.GeoClassificationType},
}

// recordDocument is the YAML shape written by show and read by validate.
type recordDocument struct {
	Record          executive.Record                      `yaml:"record" json:"record"`
	Classifications map[string][]classification.Selection `yaml:"classifications,omitempty" json:"classifications,omitempty"`
}

var showFormat string

func newShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "show <executive-code>",
		Short: "Print one executive record with its classifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			code := strings.TrimSpace(args[0])
			ctx := cmd.Context()

			data, err := a.executives.GetExecutiveData(ctx, code)
			if err != nil {
				return fmt.Errorf("failed to load executive %s: %w", code, err)
			}
			doc := recordDocument{Record: executive.NewRecord(), Classifications: map[string][]classification.Selection{}}
			data.ApplyTo(&doc.Record, executive.ModeEdit)
			for _, st := range selectorTypes {
				sel, err := a.executives.GetExecutiveClassificationData(ctx, code, st.typ)
				if err != nil {
					slog.Warn("classification data unavailable", "type", st.typ, "error", err)
					continue
				}
				if len(sel) > 0 {
					doc.Classifications[st.name] = sel
				}
			}
			return writeDocument(cmd.OutOrStdout(), doc, showFormat)
		},
	}
	c.Flags().StringVarP(&showFormat, "format", "f", "yaml", "Output format: yaml|json")
	return c
}

func writeDocument(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n"))
		return nil
	}
	return fmt.Errorf("unsupported format: %s", format)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <record.yaml>",
		Short: "Check a record file against the form rules without saving it",
		Long: strings.TrimSpace(`
Validate a record the way the edit form does before a save. The file holds
either a bare record or the document printed by 'execadmin show'.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}
			err = rec.Validate()
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Record is valid.")
				return nil
			}
			var fe executive.FieldErrors
			if !errors.As(err, &fe) {
				return err
			}
			renderFieldErrors(cmd.OutOrStdout(), fe)
			return fmt.Errorf("record has %d invalid field(s)", len(fe))
		},
	}
}

// readRecord decodes a record file on top of executive.NewRecord.
func readRecord(path string) (executive.Record, error) {
	rec := executive.NewRecord()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return rec, fmt.Errorf("failed to read record file: %w", err)
	}
	var doc struct {
		Record yaml.Node `yaml:"record"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return rec, fmt.Errorf("failed to parse record file: %w", err)
	}
	if doc.Record.Kind != 0 {
		err = doc.Record.Decode(&rec)
	} else {
		err = yaml.Unmarshal(data, &rec)
	}
	if err != nil {
		return rec, fmt.Errorf("failed to parse record file: %w", err)
	}
	return rec, nil
}

func renderFieldErrors(w io.Writer, fe executive.FieldErrors) {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Problem"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, fe[k]})
	}
	tw.Render()
}

// editChanges is the change file applied by the edit command.
type editChanges struct {
	Record yaml.Node `yaml:"record"`
	// Classifications maps selector name (executive, marketing, geo) to
	// group code to value code.
	Classifications map[string]map[string]string `yaml:"classifications"`
	// Prompts maps a prompt name to the code to pick from it.
	Prompts map[string]string `yaml:"prompts"`
	// ReturnLocations maps a return type code to a location code.
	ReturnLocations map[string]string `yaml:"returnLocations"`
	AutoTMRouteCode *bool             `yaml:"autoTMRouteCode"`
}

type editFlags struct {
	mode    string
	changes string
	dryRun  bool
	timeout time.Duration
}

var edFlags editFlags

func newEditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit [executive-code]",
		Short: "Create or change an executive record",
		Long: strings.TrimSpace(`
Open the edit form, apply a change file and save. Without a code the intent
stored by 'execadmin list --open' is used.

The change file may hold:
  record:           record fields to overwrite (same layout as 'show')
  classifications:  {executive|marketing|geo: {GROUP: VALUE}}
  prompts:          {` + strings.Join(editform.PromptNames(), "|") + `: CODE}
  returnLocations:  {RETURN_TYPE: LOCATION}
  autoTMRouteCode:  true|false

Examples:
  execadmin edit EX001 --changes rename.yaml
  execadmin edit --mode new --changes new-executive.yaml --dry-run
`),
		Args: cobra.MaximumNArgs(1),
		RunE: runEdit,
	}
	c.Flags().StringVar(&edFlags.mode, "mode", string(executive.ModeEdit), "Form mode when a code is given: edit|newBasedOn|new")
	c.Flags().StringVar(&edFlags.changes, "changes", "", "YAML change file")
	c.Flags().BoolVar(&edFlags.dryRun, "dry-run", false, "Validate and print the save request without sending it")
	c.Flags().DurationVar(&edFlags.timeout, "timeout", 2*time.Minute, "Timeout for the whole edit")
	return c
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	mode := executive.Mode(edFlags.mode)
	if len(args) == 1 || mode == executive.ModeNew {
		if !mode.Valid() {
			return fmt.Errorf("invalid mode %q", edFlags.mode)
		}
		pi := executive.PageInit{Mode: mode}
		if len(args) == 1 && mode != executive.ModeNew {
			pi.ExecutiveCode = strings.TrimSpace(args[0])
		}
		if err := a.store.SetPageInit(executive.TaskCode, pi); err != nil {
			return fmt.Errorf("failed to store page init: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), edFlags.timeout)
	defer cancel()

	form := editform.New(a.executives, a.prompts, a.store, editform.Options{
		Presenter: a.presenter(cmd.ErrOrStderr(), cmd.InOrStdin()),
		Logger:    slog.Default(),
	})
	if err := form.Open(ctx); err != nil {
		if errors.Is(err, editform.ErrNoPageInit) {
			return errors.New("nothing to edit: pass an executive code or run 'execadmin list --open <code>'")
		}
		return err
	}
	slog.Info("form opened", "mode", form.Mode(), "code", form.Record.Profile.ExecutiveCode)

	if edFlags.changes != "" {
		if err := applyChanges(ctx, form, edFlags.changes); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if edFlags.dryRun {
		if err := form.Validate(); err != nil {
			return reportInvalid(out, err)
		}
		return writeDocument(out, form.SaveRequest(), "json")
	}
	if err := form.Submit(ctx); err != nil {
		return reportInvalid(out, err)
	}
	fmt.Fprintf(out, "Saved executive %s.\n", form.Record.Profile.ExecutiveCode)
	return nil
}

func reportInvalid(w io.Writer, err error) error {
	var ve *editform.ValidationError
	if errors.As(err, &ve) {
		renderFieldErrors(w, ve.Fields)
		return fmt.Errorf("record has %d invalid field(s)", len(ve.Fields))
	}
	return err
}

// applyChanges drives the form the way a user would: record fields first,
// then prompts, selectors, the territory cascade and return locations.
func applyChanges(ctx context.Context, form *editform.Form, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read change file: %w", err)
	}
	var ch editChanges
	if err := yaml.Unmarshal(data, &ch); err != nil {
		return fmt.Errorf("failed to parse change file: %w", err)
	}

	if ch.Record.Kind != 0 {
		code := form.Record.Profile.ExecutiveCode
		if err := ch.Record.Decode(&form.Record); err != nil {
			return fmt.Errorf("failed to apply record changes: %w", err)
		}
		if form.CodeLocked() && form.Record.Profile.ExecutiveCode != code {
			return editform.ErrCodeLocked
		}
	}

	for _, name := range sortedKeys(ch.Prompts) {
		if err := applyPrompt(ctx, form, name, ch.Prompts[name]); err != nil {
			return err
		}
	}

	selectors := map[string]*classification.Selector{
		"executive": form.Executive,
		"marketing": form.Marketing,
		"geo":       form.Geo,
	}
	for _, name := range sortedKeys(ch.Classifications) {
		sel, ok := selectors[name]
		if !ok {
			return fmt.Errorf("unknown classification selector %q", name)
		}
		values := ch.Classifications[name]
		for _, group := range sortedKeys(values) {
			if err := selectValue(ctx, sel, group, values[group]); err != nil {
				return fmt.Errorf("%s classification: %w", name, err)
			}
		}
	}
	form.Sync(ctx)

	for i, rl := range form.Record.ReturnLocations {
		if code, ok := ch.ReturnLocations[rl.ReturnTypeCode]; ok {
			if err := form.SelectReturnLocation(i, code); err != nil {
				return err
			}
		}
	}
	if ch.AutoTMRouteCode != nil {
		if err := form.SetAutoTMRouteCode(ctx, *ch.AutoTMRouteCode); err != nil {
			return err
		}
	}
	return nil
}

func applyPrompt(ctx context.Context, form *editform.Form, name, code string) error {
	items, err := form.Prompt(ctx, name)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", name, err)
	}
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it.Code), strings.TrimSpace(code)) {
			return form.ApplyPrompt(name, it)
		}
	}
	return fmt.Errorf("prompt %s has no value %q", name, code)
}

// selectValue types code into the group's row and picks the candidate with
// exactly that code.
func selectValue(ctx context.Context, sel *classification.Selector, group, code string) error {
	row := -1
	for i, r := range sel.Rows() {
		if strings.EqualFold(r.Group.Code, strings.TrimSpace(group)) {
			row = i
			break
		}
	}
	if row == -1 {
		return fmt.Errorf("no group %q", group)
	}
	if err := sel.Input(ctx, row, classification.FieldCode, code); err != nil {
		return err
	}
	for k, c := range sel.Filtered() {
		if !strings.EqualFold(c.Code, strings.TrimSpace(code)) {
			continue
		}
		for sel.Page() < k/sel.PageSize()+1 {
			sel.NextPage()
		}
		return sel.Pick(ctx, k%sel.PageSize())
	}
	if err := sel.ClearRow(ctx, row); err != nil {
		return err
	}
	sel.FocusLeaveRegion(ctx)
	return fmt.Errorf("group %s has no value %q", group, code)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
