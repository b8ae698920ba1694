package classification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// DefaultClassificationType is used when Options leaves the type empty.
	DefaultClassificationType = "01"
	// DefaultActiveStatus is sent with value lookups when none is configured.
	DefaultActiveStatus = "Active"
	// DefaultPageSize is the popup page size without a PageSizer.
	DefaultPageSize = 10

	errorMarker = "*"
)

// Options configures a Selector. It is read once by New.
type Options struct {
	ClassificationType string
	TaskCode           string
	ActiveStatus       string
	Mode               ValidationMode
	Disabled           bool
	PageSizes          PageSizer
	// OnChange fires after every commit.
	OnChange func()
	// OnError receives lookup failures. The default logs them.
	OnError func(op string, err error)
	Logger  *slog.Logger
	// DisableSnapshotFallback stops SelectedClassifications from returning
	// the last externally supplied list when every row is empty.
	DisableSnapshotFallback bool
}

// Selector is one classification selector instance. It is not safe for
// concurrent use; lookups run synchronously so responses apply in call order.
type Selector struct {
	lookup Lookup
	opts   Options
	logger *slog.Logger
	fold   cases.Caser

	loaded bool
	rows   []Row
	valid  bool

	// popup state; active == -1 means no popup
	active     int
	focus      Field
	candidates []Candidate
	filtered   []Candidate
	page       int
	pageSize   int
	sortField  Field
	sortSet    bool
	sortDesc   bool

	pending  []Selection
	snapshot []Selection
}

// New creates a selector. Call Load before using the rows.
func New(lookup Lookup, opts Options) *Selector {
	if opts.ClassificationType == "" {
		opts.ClassificationType = DefaultClassificationType
	}
	if opts.ActiveStatus == "" {
		opts.ActiveStatus = DefaultActiveStatus
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		lookup:   lookup,
		opts:     opts,
		logger:   logger.With("classificationType", opts.ClassificationType),
		fold:     cases.Fold(),
		valid:    true,
		active:   -1,
		page:     1,
		pageSize: DefaultPageSize,
	}
	return s
}

// ClassificationType returns the configured type.
func (s *Selector) ClassificationType() string { return s.opts.ClassificationType }

// Mode returns the validation mode.
func (s *Selector) Mode() ValidationMode { return s.opts.Mode }

// Loaded reports whether the group list has been fetched.
func (s *Selector) Loaded() bool { return s.loaded }

// SetDisabled toggles the selector. A disabled selector ignores focus calls.
func (s *Selector) SetDisabled(disabled bool) {
	s.opts.Disabled = disabled
	if disabled {
		s.reset()
	}
}

// Disabled reports whether focus calls are ignored.
func (s *Selector) Disabled() bool { return s.opts.Disabled }

// Load fetches the groups and allocates one empty row per group. A list
// passed to SetSelectedClassifications before Load is applied here and then
// dropped. Lookup failures are also reported to OnError.
func (s *Selector) Load(ctx context.Context) error {
	groups, err := s.lookup.GroupsForType(ctx, s.opts.ClassificationType)
	if err != nil {
		s.report("groups", err)
		return fmt.Errorf("load classification groups: %w", err)
	}
	rows := make([]Row, len(groups))
	for i, g := range groups {
		rows[i] = Row{
			Index: i,
			Group: Group{
				Code:              strings.TrimSpace(g.Code),
				Description:       strings.TrimSpace(g.Description),
				Type:              strings.TrimSpace(g.Type),
				HierarchyRequired: g.HierarchyRequired,
			},
		}
	}
	s.rows = rows
	s.loaded = true
	s.reset()
	s.logger.Debug("classification groups loaded", "groups", len(rows))

	if len(s.pending) > 0 {
		s.apply(s.pending)
		s.pending = nil
		s.snapshot = nil
	}
	s.Validate()
	return nil
}

// Rows returns a copy of the row state.
func (s *Selector) Rows() []Row {
	return append([]Row(nil), s.rows...)
}

// Groups returns the loaded groups in row order.
func (s *Selector) Groups() []Group {
	out := make([]Group, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Group
	}
	return out
}

// SetSelectedClassifications replaces every row from recs, matching by group
// code. Rows without a matching record are cleared. Before Load the list is
// held and applied once the rows exist.
func (s *Selector) SetSelectedClassifications(recs []Selection) {
	if recs == nil {
		return
	}
	cp := append([]Selection(nil), recs...)
	if !s.loaded {
		s.pending = cp
		return
	}
	s.snapshot = cp
	s.apply(cp)
}

func (s *Selector) apply(recs []Selection) {
	s.Clean()
	for _, rec := range recs {
		group := strings.TrimSpace(rec.GroupCode)
		for i := range s.rows {
			if s.rows[i].Group.Code == group {
				s.rows[i].set(strings.TrimSpace(rec.ValueCode), strings.TrimSpace(rec.ValueDescription))
			}
		}
	}
	s.Validate()
}

// SelectedClassifications returns every row with a committed code in row
// order. When no row has a value, the last list given to
// SetSelectedClassifications is returned instead unless
// Options.DisableSnapshotFallback is set.
func (s *Selector) SelectedClassifications() []Selection {
	var out []Selection
	for i, r := range s.rows {
		code := strings.TrimSpace(r.Committed)
		if code == "" {
			continue
		}
		out = append(out, Selection{
			Index:            i,
			GroupCode:        r.Group.Code,
			GroupDescription: r.Group.Description,
			GroupType:        r.Group.Type,
			HasHierarchy:     r.Group.HierarchyRequired,
			ValueCode:        code,
			ValueDescription: strings.TrimSpace(r.CommittedDescription),
		})
	}
	if len(out) == 0 && len(s.snapshot) > 0 && !s.opts.DisableSnapshotFallback {
		s.logger.Debug("returning externally supplied classifications", "count", len(s.snapshot))
		return append([]Selection(nil), s.snapshot...)
	}
	return out
}

// Clean empties every row's text and error in place.
func (s *Selector) Clean() {
	for i := range s.rows {
		s.rows[i].clear()
		s.rows[i].Error = ""
	}
}

// Validate recomputes every row's error marker and returns Valid().
func (s *Selector) Validate() bool {
	for i := range s.rows {
		empty := strings.TrimSpace(s.rows[i].Code) == ""
		switch {
		case s.opts.Mode == ModeAllMandatory && empty:
			s.rows[i].Error = errorMarker
		case s.opts.Mode == ModeAllMandatory:
			s.rows[i].Error = ""
		case empty:
			s.rows[i].Error = ""
		}
	}
	if s.opts.Mode == ModeLastLevelOnly && len(s.rows) > 0 {
		last := &s.rows[len(s.rows)-1]
		if strings.TrimSpace(last.Code) == "" {
			last.Error = errorMarker
		}
	}
	s.valid = true
	for _, r := range s.rows {
		if r.Error != "" {
			s.valid = false
			break
		}
	}
	return s.Valid()
}

// Valid is false while any row has an error or a popup is open.
func (s *Selector) Valid() bool {
	if s.active != -1 {
		return false
	}
	return s.valid
}

// valueChanged re-checks the row that was just committed, then everything.
func (s *Selector) valueChanged(i int) {
	empty := s.rows[i].Code == ""
	if s.opts.Mode == ModeAllMandatory || (s.opts.Mode == ModeLastLevelOnly && i == len(s.rows)-1) {
		if empty {
			s.rows[i].Error = errorMarker
		} else {
			s.rows[i].Error = ""
		}
	}
	s.Validate()
}

// commit sets the active row to c, or clears it when c is nil.
func (s *Selector) commit(ctx context.Context, c *Candidate) {
	i := s.active
	row := &s.rows[i]
	if c != nil {
		code := strings.TrimSpace(c.Code)
		if row.Committed != code {
			s.clearDependents(i)
		}
		row.set(code, strings.TrimSpace(c.Description))
		row.Error = ""
		if row.Group.HierarchyRequired {
			s.autoFill(ctx, i)
		}
	} else {
		row.clear()
		s.clearDependents(i)
	}
	s.valueChanged(i)
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

// clearDependents empties the contiguous run of hierarchy rows after i.
func (s *Selector) clearDependents(i int) {
	for j := i + 1; j < len(s.rows) && s.rows[j].Group.HierarchyRequired; j++ {
		s.rows[j].clear()
		s.rows[j].Error = ""
	}
}

// autoFill replaces every row with the hierarchy returned for row i's value.
// Rows whose group is absent from the response are cleared. On failure the
// rows are left untouched.
func (s *Selector) autoFill(ctx context.Context, i int) {
	g, code := s.rows[i].Group.Code, s.rows[i].Code
	entries, err := s.lookup.HierarchyValues(ctx, g, code, s.opts.ActiveStatus)
	if err != nil {
		s.report("hierarchy", err)
		return
	}
	byGroup := make(map[string]HierarchyEntry, len(entries))
	for _, e := range entries {
		key := strings.TrimSpace(e.GroupCode)
		if _, seen := byGroup[key]; !seen {
			byGroup[key] = e
		}
	}
	for j := range s.rows {
		e, ok := byGroup[s.rows[j].Group.Code]
		if !ok {
			s.rows[j].clear()
			continue
		}
		s.rows[j].set(strings.TrimSpace(e.Code), strings.TrimSpace(e.Description))
		s.rows[j].Error = ""
	}
	s.logger.Debug("hierarchy auto-filled", "group", g, "code", code, "entries", len(entries))
	s.Validate()
}

func (s *Selector) report(op string, err error) {
	if s.opts.OnError != nil {
		s.opts.OnError(op, err)
		return
	}
	s.logger.Error("classification lookup failed", "op", op, "error", err)
}
