package classification

import (
	"context"
	"sort"
	"strings"
)

// FocusEnter is called when a row's code or description input gains focus.
// Entering another row while a popup is open closes that popup first.
func (s *Selector) FocusEnter(ctx context.Context, row int, field Field) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if s.active != -1 && s.active != row {
		s.abandon()
	}
	s.focus = field
	if s.active == row {
		s.filter()
		return nil
	}
	s.open(ctx, row)
	return nil
}

// Input records the text typed into a row's field and re-filters the popup,
// opening it (and fetching candidates) when necessary.
func (s *Selector) Input(ctx context.Context, row int, field Field, text string) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if s.active != -1 && s.active != row {
		s.abandon()
	}
	if field == FieldDescription {
		s.rows[row].Description = text
	} else {
		s.rows[row].Code = text
	}
	s.focus = field
	if s.active != row {
		s.open(ctx, row)
		return nil
	}
	if s.candidates == nil {
		s.fetch(ctx)
	}
	s.filter()
	return nil
}

// TabOut leaves the last field of the focused row. When the focused field
// has text the first matching candidate is committed, otherwise the row is
// cleared. The popup closes either way.
func (s *Selector) TabOut(ctx context.Context, row int) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if s.active != row {
		return nil
	}
	s.leave(ctx)
	return nil
}

// FocusLeaveRegion is called when focus moves outside the selector. It
// behaves like TabOut on the row whose popup is open.
func (s *Selector) FocusLeaveRegion(ctx context.Context) {
	if s.active != -1 {
		s.leave(ctx)
		return
	}
	s.reset()
}

func (s *Selector) leave(ctx context.Context) {
	if s.focusedText() == "" {
		s.commit(ctx, nil)
	} else {
		s.filter()
		view := s.sorted()
		if len(view) > 0 {
			first := view[0]
			s.commit(ctx, &first)
		} else {
			s.commit(ctx, nil)
		}
	}
	s.reset()
}

// Pick commits the i-th candidate of the visible page and closes the popup.
func (s *Selector) Pick(ctx context.Context, i int) error {
	if s.active == -1 {
		return ErrNoPopup
	}
	page := s.Candidates()
	if i < 0 || i >= len(page) {
		return ErrCandidateOutOfRange
	}
	c := page[i]
	s.commit(ctx, &c)
	s.reset()
	return nil
}

// ClearRow clears a row's value and leaves its popup open on the code field.
func (s *Selector) ClearRow(ctx context.Context, row int) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if s.active != row {
		s.abandon()
		s.focus = FieldCode
		s.open(ctx, row)
	}
	s.focus = FieldCode
	s.commit(ctx, nil)
	s.filter()
	return nil
}

func (s *Selector) checkRow(row int) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.opts.Disabled {
		return ErrDisabled
	}
	if row < 0 || row >= len(s.rows) {
		return ErrRowOutOfRange
	}
	return nil
}

func (s *Selector) open(ctx context.Context, row int) {
	s.active = row
	s.fetch(ctx)
	s.filter()
}

// fetch loads the candidates for the active row. On failure the popup stays
// open with an empty list.
func (s *Selector) fetch(ctx context.Context) {
	if s.opts.PageSizes != nil {
		if n := s.opts.PageSizes.SelectorPageSize(); n > 0 {
			s.pageSize = n
		}
	}
	got, err := s.lookup.ValuesForGroup(ctx, s.active, s.Rows(), s.opts.ActiveStatus)
	if err != nil {
		s.report("values", err)
		return
	}
	s.candidates = make([]Candidate, len(got))
	for i, c := range got {
		s.candidates[i] = Candidate{
			Code:        strings.TrimSpace(c.Code),
			Description: strings.TrimSpace(c.Description),
		}
	}
	s.page = 1
}

func (s *Selector) focusedText() string {
	if s.active == -1 {
		return ""
	}
	if s.focus == FieldDescription {
		return s.rows[s.active].Description
	}
	return s.rows[s.active].Code
}

// filter keeps the candidates whose focused column contains the focused
// field's text, ignoring case.
func (s *Selector) filter() {
	if s.active == -1 || s.candidates == nil {
		return
	}
	needle := s.fold.String(s.focusedText())
	out := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if needle == "" || strings.Contains(s.fold.String(s.column(c, s.focus)), needle) {
			out = append(out, c)
		}
	}
	s.filtered = out
	s.page = 1
}

func (s *Selector) column(c Candidate, f Field) string {
	if f == FieldDescription {
		return c.Description
	}
	return c.Code
}

// abandon closes the popup of a row that lost focus without a commit. Text
// typed into it goes back to the last committed value.
func (s *Selector) abandon() {
	if s.active != -1 {
		s.rows[s.active].revert()
		s.valueChanged(s.active)
	}
	s.reset()
}

// reset closes the popup and drops the fetched candidates.
func (s *Selector) reset() {
	s.active = -1
	s.candidates = nil
	s.filtered = nil
	s.page = 1
}

// Active returns the row whose popup is open.
func (s *Selector) Active() (int, bool) {
	return s.active, s.active != -1
}

// Focus returns the field that last received input.
func (s *Selector) Focus() Field { return s.focus }

// SortBy sorts the popup by field, toggling direction on repeated calls.
func (s *Selector) SortBy(field Field) {
	if s.sortSet && s.sortField == field {
		s.sortDesc = !s.sortDesc
	} else {
		s.sortField = field
		s.sortSet = true
		s.sortDesc = false
	}
	s.page = 1
}

// sorted returns the filtered candidates in display order.
func (s *Selector) sorted() []Candidate {
	out := append([]Candidate(nil), s.filtered...)
	if !s.sortSet {
		return out
	}
	keys := make([]string, len(out))
	for i, c := range out {
		keys[i] = s.fold.String(s.column(c, s.sortField))
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if s.sortDesc {
			return keys[idx[a]] > keys[idx[b]]
		}
		return keys[idx[a]] < keys[idx[b]]
	})
	res := make([]Candidate, len(out))
	for i, j := range idx {
		res[i] = out[j]
	}
	return res
}

// Filtered returns every candidate passing the current filter, in display order.
func (s *Selector) Filtered() []Candidate { return s.sorted() }

// Candidates returns the visible page of the popup.
func (s *Selector) Candidates() []Candidate {
	all := s.sorted()
	start := (s.page - 1) * s.pageSize
	if start >= len(all) {
		return nil
	}
	end := start + s.pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// Page returns the 1-based popup page.
func (s *Selector) Page() int { return s.page }

// PageSize returns the popup page size.
func (s *Selector) PageSize() int { return s.pageSize }

// TotalPages returns the number of popup pages for the filtered list.
func (s *Selector) TotalPages() int {
	return (len(s.filtered) + s.pageSize - 1) / s.pageSize
}

// NextPage advances the popup page when there is one.
func (s *Selector) NextPage() {
	if s.page < s.TotalPages() {
		s.page++
	}
}

// PreviousPage moves back one popup page.
func (s *Selector) PreviousPage() {
	if s.page > 1 {
		s.page--
	}
}

// View is a serializable snapshot of the selector.
type View struct {
	ClassificationType string      `json:"classificationType"`
	Rows               []Row       `json:"rows"`
	ActiveRow          int         `json:"activeRow"`
	Focus              string      `json:"focus"`
	Candidates         []Candidate `json:"candidates"`
	Page               int         `json:"page"`
	TotalPages         int         `json:"totalPages"`
	Valid              bool        `json:"valid"`
	Selected           []Selection `json:"selected"`
	SortField          string      `json:"sortField,omitempty"`
	SortDescending     bool        `json:"sortDescending,omitempty"`
}

// View captures the current state.
func (s *Selector) View() View {
	v := View{
		ClassificationType: s.opts.ClassificationType,
		Rows:               s.Rows(),
		ActiveRow:          s.active,
		Focus:              s.focus.String(),
		Candidates:         s.Candidates(),
		Page:               s.page,
		TotalPages:         s.TotalPages(),
		Valid:              s.Valid(),
		Selected:           s.SelectedClassifications(),
	}
	if s.sortSet {
		v.SortField = s.sortField.String()
		v.SortDescending = s.sortDesc
	}
	return v
}
