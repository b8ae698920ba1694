// Package listview drives the executive list screen: the search form with
// its classification selector, server-side paging through the grid loader,
// client-side sorting of the loaded page and navigation to the edit form.
package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
	"github.com/greg-hellings/execadmin/pkg/gridloader"
)

// Search selector settings.
const (
	ClassificationType = backend.ExecutiveClassificationType
	ActiveStatus       = "All"
	// DefaultSortField is the column the grid is ordered by before any click.
	DefaultSortField = "ExecutiveCode"
	// MaxExecutiveLevels is the number of Executive1..5 criteria slots.
	MaxExecutiveLevels = 5
)

// ErrUnknownSortField is returned by Sort for a column the grid lacks.
var ErrUnknownSortField = errors.New("listview: unknown sort field")

// Searcher runs the executive search.
type Searcher interface {
	GetAllExecutive(ctx context.Context, req backend.SearchRequest) (*backend.SearchResponse, error)
}

// Store persists the screen's state between runs.
type Store interface {
	classification.PageSizer
	gridloader.LoadSizer
	SelectionCriteria(taskCode string) (executive.SelectionCriteria, bool)
	SetSelectionCriteria(taskCode string, c executive.SelectionCriteria) error
	ExecutiveLevels(taskCode string) []classification.Selection
	SetExecutiveLevels(taskCode string, levels []classification.Selection) error
	SetPageInit(taskCode string, pi executive.PageInit) error
}

// Presenter shows errors to the user (see message.Prompt).
type Presenter interface {
	Show(ctx context.Context, err error, taskCode string) error
}

// Options configures a Screen.
type Options struct {
	Presenter Presenter
	Logger    *slog.Logger
}

// Screen is the list screen state.
type Screen struct {
	Criteria executive.SelectionCriteria
	Selector *classification.Selector
	Loader   *gridloader.Loader
	Panel    *Panel

	searcher  Searcher
	store     Store
	presenter Presenter
	logger    *slog.Logger

	rows     []executive.Summary
	loading  bool
	searched bool
	sortBy   string
	sortDesc bool
}

// New builds the screen. lookup feeds the classification selector.
func New(searcher Searcher, lookup classification.Lookup, store Store, opts Options) *Screen {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Screen{
		Criteria:  executive.DefaultSelectionCriteria(),
		Loader:    gridloader.New(store),
		Panel:     NewPanel("", ""),
		searcher:  searcher,
		store:     store,
		presenter: opts.Presenter,
		logger:    logger,
		sortBy:    DefaultSortField,
	}
	s.Selector = classification.New(lookup, classification.Options{
		ClassificationType: ClassificationType,
		TaskCode:           executive.TaskCode,
		ActiveStatus:       ActiveStatus,
		Mode:               classification.ModeNone,
		PageSizes:          store,
		Logger:             logger,
	})
	return s
}

// Open restores saved criteria, loads the selector groups and runs the
// initial search.
func (s *Screen) Open(ctx context.Context) error {
	s.Restore()
	if err := s.Selector.Load(ctx); err != nil {
		s.logger.Warn("classification groups unavailable", "error", err)
	}
	return s.Search(ctx, true)
}

// Restore reapplies the criteria and classification selection saved by the
// last search.
func (s *Screen) Restore() {
	if c, ok := s.store.SelectionCriteria(executive.TaskCode); ok {
		c.Normalize()
		s.Criteria = c
	}
	if levels := s.store.ExecutiveLevels(executive.TaskCode); len(levels) > 0 {
		s.Selector.SetSelectedClassifications(levels)
	}
}

// Search runs the list query. An initial search starts at page 1; otherwise
// the loader's current row window is requested. Failures are shown through
// the presenter, leave the grid empty and are returned.
func (s *Screen) Search(ctx context.Context, isInit bool) error {
	s.loading = true
	s.searched = true
	defer func() { s.loading = false }()

	s.saveState()
	s.Loader.Init(executive.TaskCode)
	if isInit {
		s.Loader.SetCurrentPage(1)
		s.Criteria.FirstRow = 1
		s.Criteria.LastRow = s.Loader.LoadSize()
	} else {
		s.Criteria.FirstRow = s.Loader.RowStart()
		s.Criteria.LastRow = s.Loader.RowEnd()
	}

	req := s.request()
	s.logger.Debug("searching executives", "firstRow", req.SelectionCriteria.FirstRow,
		"lastRow", req.SelectionCriteria.LastRow, "classifications", len(req.SelectedClassifications))
	resp, err := s.searcher.GetAllExecutive(ctx, req)
	if err != nil {
		s.rows = nil
		s.show(ctx, err)
		return fmt.Errorf("search executives: %w", err)
	}
	s.rows = resp.Executives
	s.Loader.SetRowCount(resp.TotalCount)
	return nil
}

func (s *Screen) saveState() {
	if err := s.store.SetSelectionCriteria(executive.TaskCode, s.Criteria); err != nil {
		s.logger.Warn("failed to save selection criteria", "error", err)
	}
	if err := s.store.SetExecutiveLevels(executive.TaskCode, s.Selector.SelectedClassifications()); err != nil {
		s.logger.Warn("failed to save executive levels", "error", err)
	}
}

func (s *Screen) request() backend.SearchRequest {
	sel := s.Selector.SelectedClassifications()
	params := make([]executive.ClassificationParameter, 0, len(sel))
	for _, item := range sel {
		params = append(params, executive.ClassificationParameter{
			ParameterCode:  item.GroupCode,
			ParameterValue: item.ValueCode,
		})
	}
	s.UpdateExecutiveLevels(sel)
	s.Criteria.Normalize()
	return backend.SearchRequest{SelectionCriteria: s.Criteria, SelectedClassifications: params}
}

// UpdateExecutiveLevels copies the first five selections into the
// Executive1..5 criteria slots by row index.
func (s *Screen) UpdateExecutiveLevels(sel []classification.Selection) {
	s.Criteria.ClearLevels()
	for _, item := range sel {
		if item.Index < 0 || item.Index >= MaxExecutiveLevels || item.ValueCode == "" {
			continue
		}
		s.Criteria.SetLevel(item.Index, executive.ExecutiveLevel{Code: item.ValueCode, Name: item.ValueDescription})
	}
}

func (s *Screen) show(ctx context.Context, err error) {
	if s.presenter == nil {
		s.logger.Error("executive search failed", "error", err)
		return
	}
	if showErr := s.presenter.Show(ctx, err, executive.TaskCode); showErr != nil {
		s.logger.Error("failed to show error", "error", showErr, "cause", err)
	}
}

// GoToPage moves the loader and reloads when the page changed.
func (s *Screen) GoToPage(ctx context.Context, page int) error {
	return s.navigate(ctx, func() bool { return s.Loader.GoToPage(page) })
}

// NextPage loads the following page.
func (s *Screen) NextPage(ctx context.Context) error { return s.navigate(ctx, s.Loader.Next) }

// PreviousPage loads the preceding page.
func (s *Screen) PreviousPage(ctx context.Context) error { return s.navigate(ctx, s.Loader.Previous) }

// FirstPage loads page 1.
func (s *Screen) FirstPage(ctx context.Context) error { return s.navigate(ctx, s.Loader.First) }

// LastPage loads the final page.
func (s *Screen) LastPage(ctx context.Context) error { return s.navigate(ctx, s.Loader.Last) }

// PageInput handles a typed page number.
func (s *Screen) PageInput(ctx context.Context, text string) error {
	return s.navigate(ctx, func() bool { return s.Loader.PageInput(text) })
}

func (s *Screen) navigate(ctx context.Context, move func() bool) error {
	if !move() {
		return nil
	}
	return s.Search(ctx, false)
}

// Rows returns the loaded page in display order.
func (s *Screen) Rows() []executive.Summary {
	return append([]executive.Summary(nil), s.rows...)
}

// Loading reports whether a search is in flight.
func (s *Screen) Loading() bool { return s.loading }

// NoData reports whether a finished search returned nothing.
func (s *Screen) NoData() bool { return s.searched && !s.loading && len(s.rows) == 0 }

// SortState returns the current sort column and direction.
func (s *Screen) SortState() (field string, descending bool) { return s.sortBy, s.sortDesc }

var sortKeys = map[string]func(executive.Summary) any{
	"ExecutiveCode":     func(e executive.Summary) any { return e.ExecutiveCode },
	"ExecutiveName":     func(e executive.Summary) any { return e.ExecutiveName },
	"UserProfileName":   func(e executive.Summary) any { return e.UserProfileName },
	"TerritoryName":     func(e executive.Summary) any { return e.TerritoryName },
	"OperationTypeDesc": func(e executive.Summary) any { return e.OperationTypeDesc },
	"Status":            func(e executive.Summary) any { return e.Status },
}

// SortFields lists the sortable columns.
func SortFields() []string {
	out := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Sort orders the loaded page by field. Sorting by the current field flips
// the direction; a new field starts ascending. Text compares with locale
// collation ignoring case, numbers numerically.
func (s *Screen) Sort(field string) error {
	key, ok := lookupSortKey(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortField, field)
	}
	if s.sortBy == key {
		s.sortDesc = !s.sortDesc
	} else {
		s.sortBy = key
		s.sortDesc = false
	}
	SortSummaries(s.rows, s.sortBy, s.sortDesc)
	return nil
}

func lookupSortKey(field string) (string, bool) {
	for k := range sortKeys {
		if strings.EqualFold(k, strings.TrimSpace(field)) {
			return k, true
		}
	}
	return "", false
}

// SortSummaries sorts rows in place by field. Unknown fields leave the
// order unchanged.
func SortSummaries(rows []executive.Summary, field string, descending bool) {
	key, ok := sortKeys[field]
	if !ok {
		return
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key(rows[i]), key(rows[j])
		var c int
		switch av := a.(type) {
		case string:
			c = col.CompareString(av, b.(string))
		case int:
			c = av - b.(int)
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// Reset restores the default criteria, clears the selector and the grid.
func (s *Screen) Reset() {
	s.Criteria = executive.DefaultSelectionCriteria()
	s.Selector.Clean()
	s.rows = nil
	s.searched = false
}

// Navigate stores the edit form intent for row. New mode ignores row.
func (s *Screen) Navigate(mode executive.Mode, row *executive.Summary) error {
	if !mode.Valid() {
		return fmt.Errorf("listview: invalid mode %q", mode)
	}
	pi := executive.PageInit{Mode: mode}
	if mode != executive.ModeNew {
		if row == nil {
			return fmt.Errorf("listview: %s needs a row", mode)
		}
		pi.ExecutiveCode = strings.TrimSpace(row.ExecutiveCode)
		pi.ExecutiveName = strings.TrimSpace(row.ExecutiveName)
	}
	if err := s.store.SetPageInit(executive.TaskCode, pi); err != nil {
		return fmt.Errorf("store page init: %w", err)
	}
	return nil
}

// Find returns the loaded row with code.
func (s *Screen) Find(code string) (*executive.Summary, bool) {
	code = strings.TrimSpace(code)
	for i := range s.rows {
		if strings.EqualFold(strings.TrimSpace(s.rows[i].ExecutiveCode), code) {
			r := s.rows[i]
			return &r, true
		}
	}
	return nil, false
}
