package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

type classifyFlags struct {
	mode         string
	activeStatus string
	set          []string
	format       string
}

var clFlags classifyFlags

func newClassifyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "classify <classification-type>",
		Short: "Walk a classification hierarchy and print the selection",
		Long: strings.TrimSpace(`
Fill one value per group of a classification type. Each row opens the
candidate popup; at the prompt type filter text, a candidate number, '>' or
'<' to page, '^c' or '^d' to sort by code or description (repeat to reverse),
'-' to clear the row, or an empty line to keep the first match and move on.

With --set GROUP=TEXT the rows are filled without prompting; the first
candidate matching TEXT is committed.

Examples:
  execadmin classify 03
  execadmin classify 00 --mode all --set PROV=WP --set TETY=T01
`),
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}
	c.Flags().StringVar(&clFlags.mode, "mode", "none", "Validation mode: none|all|last")
	c.Flags().StringVar(&clFlags.activeStatus, "active-status", classification.DefaultActiveStatus, "Active status sent with value lookups")
	c.Flags().StringArrayVar(&clFlags.set, "set", nil, "Fill GROUP with the first value matching TEXT (repeatable)")
	c.Flags().StringVarP(&clFlags.format, "format", "f", "console", "Output format for the selection: console|yaml|json")
	return c
}

func runClassify(cmd *cobra.Command, args []string) error {
	mode, err := classification.ParseValidationMode(clFlags.mode)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sel := classification.New(a.prompts, classification.Options{
		ClassificationType: args[0],
		TaskCode:           executive.TaskCode,
		ActiveStatus:       clFlags.activeStatus,
		Mode:               mode,
		PageSizes:          a.store,
		Logger:             slog.Default(),
	})
	if err := sel.Load(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(clFlags.set) > 0 {
		if err := fillRows(ctx, sel, clFlags.set); err != nil {
			return err
		}
	} else if err := walkRows(ctx, sel, cmd.InOrStdin(), out); err != nil {
		return err
	}

	if !sel.Validate() {
		renderRows(out, sel)
		return fmt.Errorf("classification %s has missing values", args[0])
	}
	if strings.EqualFold(clFlags.format, "console") {
		renderRows(out, sel)
		return nil
	}
	return writeDocument(out, sel.SelectedClassifications(), clFlags.format)
}

// fillRows applies --set GROUP=TEXT entries in order.
func fillRows(ctx context.Context, sel *classification.Selector, entries []string) error {
	for _, e := range entries {
		group, text, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(group) == "" {
			return fmt.Errorf("invalid --set %q, want GROUP=TEXT", e)
		}
		row := rowFor(sel, group)
		if row == -1 {
			return fmt.Errorf("classification %s has no group %q", sel.ClassificationType(), group)
		}
		if err := sel.Input(ctx, row, classification.FieldCode, strings.TrimSpace(text)); err != nil {
			return err
		}
		if err := sel.TabOut(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func rowFor(sel *classification.Selector, group string) int {
	for i, r := range sel.Rows() {
		if strings.EqualFold(r.Group.Code, strings.TrimSpace(group)) {
			return i
		}
	}
	return -1
}

// walkRows prompts for every row in turn.
func walkRows(ctx context.Context, sel *classification.Selector, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for i, r := range sel.Rows() {
		if err := sel.FocusEnter(ctx, i, classification.FieldCode); err != nil {
			return err
		}
		for {
			if _, open := sel.Active(); !open {
				break
			}
			renderCandidates(out, sel, r.Group)
			fmt.Fprintf(out, "%s> ", r.Group.Code)
			if !scanner.Scan() {
				sel.FocusLeaveRegion(ctx)
				return scanner.Err()
			}
			if err := handleAnswer(ctx, sel, i, strings.TrimSpace(scanner.Text())); err != nil {
				fmt.Fprintf(out, "%v\n", err)
			}
		}
	}
	return nil
}

func handleAnswer(ctx context.Context, sel *classification.Selector, row int, answer string) error {
	switch answer {
	case "":
		return sel.TabOut(ctx, row)
	case ">":
		sel.NextPage()
		return nil
	case "<":
		sel.PreviousPage()
		return nil
	case "^c":
		sel.SortBy(classification.FieldCode)
		return nil
	case "^d":
		sel.SortBy(classification.FieldDescription)
		return nil
	case "-":
		if err := sel.ClearRow(ctx, row); err != nil {
			return err
		}
		return sel.TabOut(ctx, row)
	}
	if n, err := strconv.Atoi(answer); err == nil {
		return sel.Pick(ctx, n-1)
	}
	return sel.Input(ctx, row, classification.FieldCode, answer)
}

func renderCandidates(w io.Writer, sel *classification.Selector, g classification.Group) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s - %s", g.Code, g.Description))
	tw.AppendHeader(table.Row{"#", "Code", "Description"})
	for i, c := range sel.Candidates() {
		tw.AppendRow(table.Row{i + 1, c.Code, c.Description})
	}
	tw.AppendFooter(table.Row{"", "Page", fmt.Sprintf("%d / %d", sel.Page(), max(sel.TotalPages(), 1))})
	tw.Render()
}

func renderRows(w io.Writer, sel *classification.Selector) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Group", "Description", "Code", "Value", ""})
	for _, r := range sel.Rows() {
		tw.AppendRow(table.Row{r.Group.Code, r.Group.Description, r.Code, r.Description, r.Error})
	}
	tw.Render()
}
