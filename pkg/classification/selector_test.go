package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	groups       []Group
	groupsErr    error
	values       map[string][]Candidate
	valuesErr    error
	hierarchy    map[string][]HierarchyEntry
	hierarchyErr error

	valueCalls     int
	hierarchyCalls []string
	lastStatus     string
}

func (f *fakeLookup) GroupsForType(_ context.Context, _ string) ([]Group, error) {
	return f.groups, f.groupsErr
}

func (f *fakeLookup) ValuesForGroup(_ context.Context, rowIndex int, rows []Row, activeStatus string) ([]Candidate, error) {
	f.valueCalls++
	f.lastStatus = activeStatus
	if f.valuesErr != nil {
		return nil, f.valuesErr
	}
	return f.values[rows[rowIndex].Group.Code], nil
}

func (f *fakeLookup) HierarchyValues(_ context.Context, groupCode, code, _ string) ([]HierarchyEntry, error) {
	f.hierarchyCalls = append(f.hierarchyCalls, groupCode+"="+code)
	if f.hierarchyErr != nil {
		return nil, f.hierarchyErr
	}
	return f.hierarchy[groupCode+"="+code], nil
}

type fixedPageSize int

func (p fixedPageSize) SelectorPageSize() int { return int(p) }

func threeGroups() []Group {
	return []Group{
		{Code: "TETY", Description: "Territory Type"},
		{Code: "EXETYPE", Description: "Executive Type", HierarchyRequired: true},
		{Code: "EXECLAS", Description: "Executive Class", HierarchyRequired: true},
	}
}

func newLoaded(t *testing.T, f *fakeLookup, opts Options) *Selector {
	t.Helper()
	if opts.OnError == nil {
		opts.OnError = func(string, error) {}
	}
	s := New(f, opts)
	require.NoError(t, s.Load(context.Background()))
	return s
}

// choose types code into row, then picks the single matching candidate.
func choose(t *testing.T, s *Selector, row int, code string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Input(ctx, row, FieldCode, code))
	require.NoError(t, s.TabOut(ctx, row))
}

func TestLoadAllocatesRows(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		f := &fakeLookup{groups: threeGroups()[:n]}
		s := newLoaded(t, f, Options{})
		rows := s.Rows()
		require.Len(t, rows, n)
		for i, r := range rows {
			assert.Equal(t, i, r.Index)
			assert.Empty(t, r.Code)
			assert.Empty(t, r.Description)
			assert.Empty(t, r.Error)
		}
		assert.True(t, s.Valid())
	}
}

func TestLoadFailureReportsAndReturns(t *testing.T) {
	var reported []string
	f := &fakeLookup{groupsErr: errors.New("boom")}
	s := New(f, Options{OnError: func(op string, err error) { reported = append(reported, op) }})
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"groups"}, reported)
	assert.False(t, s.Loaded())
	assert.ErrorIs(t, s.FocusEnter(context.Background(), 0, FieldCode), ErrNotLoaded)
}

func TestDefaults(t *testing.T) {
	s := New(&fakeLookup{}, Options{})
	assert.Equal(t, DefaultClassificationType, s.ClassificationType())
	assert.Equal(t, DefaultActiveStatus, s.opts.ActiveStatus)
	assert.Equal(t, DefaultPageSize, s.PageSize())
}

func TestSetThenGetSelected(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{})
	s.SetSelectedClassifications([]Selection{
		{GroupCode: "EXECLAS ", ValueCode: " C1 ", ValueDescription: "Class 1"},
		{GroupCode: "UNKNOWN", ValueCode: "X"},
		{GroupCode: "TETY", ValueCode: "T1", ValueDescription: " Urban "},
		{GroupCode: "EXETYPE", ValueCode: ""},
	})

	got := s.SelectedClassifications()
	require.Len(t, got, 2)
	assert.Equal(t, "TETY", got[0].GroupCode)
	assert.Equal(t, "Urban", got[0].ValueDescription)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "EXECLAS", got[1].GroupCode)
	assert.Equal(t, "C1", got[1].ValueCode)
	assert.True(t, got[1].HasHierarchy)
}

func TestPendingSelectionAppliedOnLoad(t *testing.T) {
	f := &fakeLookup{groups: threeGroups()}
	s := New(f, Options{Mode: ModeAllMandatory})
	s.SetSelectedClassifications([]Selection{{GroupCode: "TETY", ValueCode: "T1"}})
	require.NoError(t, s.Load(context.Background()))

	rows := s.Rows()
	assert.Equal(t, "T1", rows[0].Code)
	assert.Equal(t, "*", rows[1].Error, "validation runs after the pending list is applied")
	assert.False(t, s.Valid())

	s.Clean()
	assert.Empty(t, s.SelectedClassifications(), "pending list is discarded once applied")
}

func TestSnapshotFallback(t *testing.T) {
	recs := []Selection{{GroupCode: "TETY", ValueCode: "T1"}}

	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{})
	s.SetSelectedClassifications(recs)
	s.Clean()
	assert.Equal(t, recs, s.SelectedClassifications())

	off := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{DisableSnapshotFallback: true})
	off.SetSelectedClassifications(recs)
	off.Clean()
	assert.Empty(t, off.SelectedClassifications())
}

func TestCleanWithoutPriorSet(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "T1", Description: "Urban"}}},
	}
	s := newLoaded(t, f, Options{})
	choose(t, s, 0, "T1")
	require.Len(t, s.SelectedClassifications(), 1)
	s.Clean()
	assert.Empty(t, s.SelectedClassifications())
}

func TestCommitClearsContiguousHierarchyRun(t *testing.T) {
	groups := []Group{
		{Code: "G0", HierarchyRequired: true},
		{Code: "G1", HierarchyRequired: true},
		{Code: "G2", HierarchyRequired: true},
		{Code: "G3"},
		{Code: "G4", HierarchyRequired: true},
	}
	f := &fakeLookup{
		groups:       groups,
		values:       map[string][]Candidate{"G0": {{Code: "NEW", Description: "New"}}},
		hierarchyErr: errors.New("no hierarchy"),
	}
	s := newLoaded(t, f, Options{})
	s.SetSelectedClassifications([]Selection{
		{GroupCode: "G0", ValueCode: "OLD"},
		{GroupCode: "G1", ValueCode: "A"},
		{GroupCode: "G2", ValueCode: "B"},
		{GroupCode: "G3", ValueCode: "KEEP3"},
		{GroupCode: "G4", ValueCode: "KEEP4"},
	})

	choose(t, s, 0, "NEW")
	rows := s.Rows()
	assert.Equal(t, "NEW", rows[0].Code)
	assert.Empty(t, rows[1].Code)
	assert.Empty(t, rows[2].Code)
	assert.Equal(t, "KEEP3", rows[3].Code)
	assert.Equal(t, "KEEP4", rows[4].Code)
}

func TestClearDependentsStopsAtPlainRow(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: []Group{
		{Code: "A", HierarchyRequired: true},
		{Code: "B", HierarchyRequired: true},
		{Code: "C"},
		{Code: "D", HierarchyRequired: true},
	}}, Options{})
	s.SetSelectedClassifications([]Selection{
		{GroupCode: "A", ValueCode: "1"},
		{GroupCode: "B", ValueCode: "2"},
		{GroupCode: "C", ValueCode: "3"},
		{GroupCode: "D", ValueCode: "4"},
	})
	s.clearDependents(0)
	rows := s.Rows()
	assert.Equal(t, "1", rows[0].Code)
	assert.Empty(t, rows[1].Code)
	assert.Equal(t, "3", rows[2].Code)
	assert.Equal(t, "4", rows[3].Code)
}

func TestExecutiveTypeChangeClearsClass(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{
			"TETY":    {{Code: "T1", Description: "Urban"}},
			"EXETYPE": {{Code: "MGR", Description: "Manager"}, {Code: "REP", Description: "Representative"}},
			"EXECLAS": {{Code: "C1", Description: "Class 1"}},
		},
		hierarchy: map[string][]HierarchyEntry{
			"EXETYPE=MGR": {
				{GroupCode: "TETY", Code: "T1", Description: "Urban"},
				{GroupCode: "EXETYPE", Code: "MGR", Description: "Manager"},
			},
			"EXETYPE=REP": {
				{GroupCode: "TETY", Code: "T1", Description: "Urban"},
				{GroupCode: "EXETYPE", Code: "REP", Description: "Representative"},
			},
			"EXECLAS=C1": {
				{GroupCode: "TETY", Code: "T1", Description: "Urban"},
				{GroupCode: "EXETYPE", Code: "MGR", Description: "Manager"},
				{GroupCode: "EXECLAS", Code: "C1", Description: "Class 1"},
			},
		},
	}
	s := newLoaded(t, f, Options{})
	choose(t, s, 0, "T1")
	choose(t, s, 1, "MGR")
	choose(t, s, 2, "C1")
	require.Equal(t, "C1", s.Rows()[2].Code)

	choose(t, s, 1, "REP")
	rows := s.Rows()
	assert.Equal(t, "T1", rows[0].Code)
	assert.Equal(t, "REP", rows[1].Code)
	assert.Empty(t, rows[2].Code)
	assert.Equal(t, []string{"EXETYPE=MGR", "EXECLAS=C1", "EXETYPE=REP"}, f.hierarchyCalls)
}

func TestAutoFillFillsAndClears(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"EXECLAS": {{Code: "C1", Description: "Class 1"}}},
		hierarchy: map[string][]HierarchyEntry{
			"EXECLAS=C1": {
				{GroupCode: "EXETYPE ", Code: " MGR ", Description: " Manager "},
				{GroupCode: "EXECLAS", Code: "C1", Description: "Class 1"},
			},
		},
	}
	s := newLoaded(t, f, Options{})
	s.SetSelectedClassifications([]Selection{{GroupCode: "TETY", ValueCode: "T9"}})
	choose(t, s, 2, "C1")

	rows := s.Rows()
	assert.Empty(t, rows[0].Code, "groups missing from the response are cleared")
	assert.Equal(t, "MGR", rows[1].Code)
	assert.Equal(t, "Manager", rows[1].Description)
	assert.Equal(t, "C1", rows[2].Code)
}

func TestAutoFillFailureKeepsRows(t *testing.T) {
	var ops []string
	f := &fakeLookup{
		groups:       threeGroups(),
		values:       map[string][]Candidate{"EXECLAS": {{Code: "C1", Description: "Class 1"}}},
		hierarchyErr: errors.New("timeout"),
	}
	s := newLoaded(t, f, Options{OnError: func(op string, _ error) { ops = append(ops, op) }})
	s.SetSelectedClassifications([]Selection{{GroupCode: "TETY", ValueCode: "T9"}})
	choose(t, s, 2, "C1")

	rows := s.Rows()
	assert.Equal(t, "T9", rows[0].Code)
	assert.Equal(t, "C1", rows[2].Code)
	assert.Equal(t, []string{"hierarchy"}, ops)
}

func TestAllMandatoryValidity(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{Mode: ModeAllMandatory})
	assert.False(t, s.Validate())
	for _, r := range s.Rows() {
		assert.Equal(t, "*", r.Error)
	}

	s.SetSelectedClassifications([]Selection{
		{GroupCode: "TETY", ValueCode: "1"},
		{GroupCode: "EXETYPE", ValueCode: "2"},
		{GroupCode: "EXECLAS", ValueCode: "3"},
	})
	assert.True(t, s.Validate())

	s.SetSelectedClassifications([]Selection{
		{GroupCode: "TETY", ValueCode: "1"},
		{GroupCode: "EXECLAS", ValueCode: "3"},
	})
	assert.False(t, s.Validate())
	assert.Equal(t, "*", s.Rows()[1].Error)
}

func TestLastLevelOnlyValidity(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{Mode: ModeLastLevelOnly})

	s.SetSelectedClassifications([]Selection{
		{GroupCode: "TETY", ValueCode: "1"},
		{GroupCode: "EXETYPE", ValueCode: "2"},
	})
	assert.False(t, s.Validate())
	assert.Empty(t, s.Rows()[0].Error)
	assert.Equal(t, "*", s.Rows()[2].Error)

	s.SetSelectedClassifications([]Selection{{GroupCode: "EXECLAS", ValueCode: "3"}})
	assert.True(t, s.Validate(), "only the last row is required")
}

func TestModeNoneAlwaysValid(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{})
	assert.True(t, s.Validate())
}

func TestFilterByFocusedField(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "A", Description: "Alpha"}, {Code: "B", Description: "Beta"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	assert.Len(t, s.Filtered(), 2)
	assert.False(t, s.Valid(), "open popup blocks validity")

	require.NoError(t, s.Input(ctx, 0, FieldCode, "b"))
	assert.Equal(t, []Candidate{{Code: "B", Description: "Beta"}}, s.Filtered())

	require.NoError(t, s.Input(ctx, 0, FieldDescription, "PH"))
	assert.Equal(t, []Candidate{{Code: "A", Description: "Alpha"}}, s.Filtered())
	assert.Equal(t, 1, f.valueCalls, "re-filtering does not refetch")
}

func TestTabOutCommitsFirstMatch(t *testing.T) {
	changes := 0
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "A", Description: "Alpha"}, {Code: "B", Description: "Beta"}}},
	}
	s := newLoaded(t, f, Options{OnChange: func() { changes++ }})
	ctx := context.Background()

	require.NoError(t, s.Input(ctx, 0, FieldCode, "A"))
	require.NoError(t, s.TabOut(ctx, 0))

	r := s.Rows()[0]
	assert.Equal(t, "A", r.Code)
	assert.Equal(t, "Alpha", r.Description)
	_, open := s.Active()
	assert.False(t, open)
	assert.Equal(t, 1, changes)
	assert.True(t, s.Valid())
}

func TestTabOutWithoutMatchClears(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "A", Description: "Alpha"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	require.NoError(t, s.Input(ctx, 0, FieldCode, "zzz"))
	require.NoError(t, s.TabOut(ctx, 0))
	assert.Empty(t, s.Rows()[0].Code)
	assert.Empty(t, s.Rows()[0].Description)
}

func TestTabOutEmptyTextCommitsNull(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "A", Description: "Alpha"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	choose(t, s, 0, "A")

	require.NoError(t, s.FocusEnter(ctx, 0, FieldDescription))
	require.NoError(t, s.Input(ctx, 0, FieldDescription, ""))
	require.NoError(t, s.TabOut(ctx, 0))
	assert.Empty(t, s.Rows()[0].Code)
}

func TestTabOutOtherRowIgnored(t *testing.T) {
	f := &fakeLookup{groups: threeGroups(), values: map[string][]Candidate{"TETY": {{Code: "A"}}}}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	require.NoError(t, s.TabOut(ctx, 1))
	active, open := s.Active()
	assert.True(t, open)
	assert.Equal(t, 0, active)
}

func TestFocusLeaveRegionCommits(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"EXETYPE": {{Code: "MGR", Description: "Manager"}}},
		hierarchy: map[string][]HierarchyEntry{
			"EXETYPE=MGR": {{GroupCode: "EXETYPE", Code: "MGR", Description: "Manager"}},
		},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	require.NoError(t, s.Input(ctx, 1, FieldDescription, "man"))
	s.FocusLeaveRegion(ctx)
	assert.Equal(t, "MGR", s.Rows()[1].Code)
	_, open := s.Active()
	assert.False(t, open)

	s.FocusLeaveRegion(ctx)
	assert.Equal(t, "MGR", s.Rows()[1].Code, "leaving with no popup changes nothing")
}

func TestSwitchingRowsResetsPopup(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{
			"TETY":    {{Code: "T1"}},
			"EXETYPE": {{Code: "MGR"}, {Code: "REP"}},
		},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	require.NoError(t, s.FocusEnter(ctx, 1, FieldCode))

	active, _ := s.Active()
	assert.Equal(t, 1, active)
	assert.Len(t, s.Filtered(), 2)
	assert.Equal(t, 2, f.valueCalls)
	assert.Empty(t, s.Rows()[0].Code, "switching rows does not commit")
}

func TestSwitchingRowsRestoresCommittedValue(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{
			"TETY":    {{Code: "T01", Description: "Town"}, {Code: "T02", Description: "Village"}},
			"EXETYPE": {{Code: "MGR"}},
		},
	}
	ctx := context.Background()
	want := []Selection{{Index: 0, GroupCode: "TETY", GroupDescription: "Territory Type", ValueCode: "T01", ValueDescription: "Town"}}

	t.Run("focus another row", func(t *testing.T) {
		s := newLoaded(t, f, Options{})
		choose(t, s, 0, "T01")
		require.NoError(t, s.Input(ctx, 0, FieldCode, "ZZZ"))
		require.NoError(t, s.FocusEnter(ctx, 1, FieldCode))
		s.FocusLeaveRegion(ctx)

		row := s.Rows()[0]
		assert.Equal(t, "T01", row.Code)
		assert.Equal(t, "Town", row.Description)
		assert.True(t, s.Valid())
		assert.Equal(t, want, s.SelectedClassifications())
	})

	t.Run("type into another row", func(t *testing.T) {
		s := newLoaded(t, f, Options{})
		choose(t, s, 0, "T01")
		require.NoError(t, s.Input(ctx, 0, FieldDescription, "Vill"))
		require.NoError(t, s.Input(ctx, 1, FieldCode, "M"))
		assert.Equal(t, "Town", s.Rows()[0].Description)
		assert.Equal(t, want, s.SelectedClassifications(), "open popup text is not a selection")
	})

	t.Run("clear another row", func(t *testing.T) {
		s := newLoaded(t, f, Options{})
		choose(t, s, 0, "T01")
		require.NoError(t, s.Input(ctx, 0, FieldCode, "T0"))
		require.NoError(t, s.ClearRow(ctx, 1))
		assert.Equal(t, "T01", s.Rows()[0].Code)
	})

	t.Run("never committed", func(t *testing.T) {
		s := newLoaded(t, f, Options{})
		require.NoError(t, s.Input(ctx, 0, FieldCode, "ZZZ"))
		require.NoError(t, s.FocusEnter(ctx, 1, FieldCode))
		assert.Empty(t, s.Rows()[0].Code)
		assert.Empty(t, s.SelectedClassifications())
	})
}

func TestPick(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "T1", Description: "Urban"}, {Code: "T2", Description: "Rural"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, s.Pick(ctx, 0), ErrNoPopup)
	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	assert.ErrorIs(t, s.Pick(ctx, 5), ErrCandidateOutOfRange)
	require.NoError(t, s.Pick(ctx, 1))
	assert.Equal(t, "T2", s.Rows()[0].Code)
	_, open := s.Active()
	assert.False(t, open)
}

func TestClearRowKeepsPopupOpen(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "T1"}, {Code: "T2"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	choose(t, s, 0, "T1")

	require.NoError(t, s.ClearRow(ctx, 0))
	assert.Empty(t, s.Rows()[0].Code)
	active, open := s.Active()
	assert.True(t, open)
	assert.Equal(t, 0, active)
	assert.Equal(t, FieldCode, s.Focus())
	assert.Len(t, s.Filtered(), 2)
}

func TestValuesFailureLeavesPopupEmpty(t *testing.T) {
	var ops []string
	f := &fakeLookup{groups: threeGroups(), valuesErr: errors.New("503")}
	s := newLoaded(t, f, Options{OnError: func(op string, _ error) { ops = append(ops, op) }})
	ctx := context.Background()
	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	_, open := s.Active()
	assert.True(t, open)
	assert.Empty(t, s.Candidates())
	assert.Equal(t, []string{"values"}, ops)
}

func TestRowBoundsAndDisabled(t *testing.T) {
	s := newLoaded(t, &fakeLookup{groups: threeGroups()}, Options{})
	ctx := context.Background()
	assert.ErrorIs(t, s.FocusEnter(ctx, 3, FieldCode), ErrRowOutOfRange)
	assert.ErrorIs(t, s.Input(ctx, -1, FieldCode, "x"), ErrRowOutOfRange)

	s.SetDisabled(true)
	assert.ErrorIs(t, s.FocusEnter(ctx, 0, FieldCode), ErrDisabled)
}

func TestPagingAndSorting(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {
			{Code: "c", Description: "three"},
			{Code: "A", Description: "one"},
			{Code: "b", Description: "two"},
			{Code: "D", Description: "four"},
			{Code: "e", Description: "five"},
		}},
	}
	s := newLoaded(t, f, Options{PageSizes: fixedPageSize(2), ActiveStatus: "All"})
	ctx := context.Background()
	require.NoError(t, s.FocusEnter(ctx, 0, FieldCode))
	assert.Equal(t, "All", f.lastStatus)

	assert.Equal(t, 3, s.TotalPages())
	assert.Equal(t, []Candidate{{"c", "three"}, {"A", "one"}}, s.Candidates())

	s.SortBy(FieldCode)
	assert.Equal(t, []Candidate{{"A", "one"}, {"b", "two"}}, s.Candidates())

	s.NextPage()
	s.NextPage()
	s.NextPage()
	assert.Equal(t, 3, s.Page())
	assert.Equal(t, []Candidate{{"e", "five"}}, s.Candidates())

	s.SortBy(FieldCode)
	assert.Equal(t, 1, s.Page(), "sorting resets the page")
	assert.Equal(t, []Candidate{{"e", "five"}, {"D", "four"}}, s.Candidates())

	s.PreviousPage()
	assert.Equal(t, 1, s.Page())

	s.SortBy(FieldDescription)
	assert.Equal(t, "five", s.Candidates()[0].Description)

	require.NoError(t, s.Input(ctx, 0, FieldCode, "x"))
	assert.Equal(t, 0, s.TotalPages())
	assert.Empty(t, s.Candidates())
}

func TestTabOutUsesDisplayOrder(t *testing.T) {
	f := &fakeLookup{
		groups: threeGroups(),
		values: map[string][]Candidate{"TETY": {{Code: "AB2"}, {Code: "AB1"}}},
	}
	s := newLoaded(t, f, Options{})
	ctx := context.Background()
	require.NoError(t, s.Input(ctx, 0, FieldCode, "ab"))
	s.SortBy(FieldCode)
	require.NoError(t, s.TabOut(ctx, 0))
	assert.Equal(t, "AB1", s.Rows()[0].Code)
}

func TestView(t *testing.T) {
	f := &fakeLookup{groups: threeGroups(), values: map[string][]Candidate{"TETY": {{Code: "T1"}}}}
	s := newLoaded(t, f, Options{ClassificationType: "03"})
	require.NoError(t, s.FocusEnter(context.Background(), 0, FieldDescription))
	v := s.View()
	assert.Equal(t, "03", v.ClassificationType)
	assert.Equal(t, 0, v.ActiveRow)
	assert.Equal(t, "description", v.Focus)
	assert.False(t, v.Valid)
	assert.Len(t, v.Rows, 3)
	assert.Len(t, v.Candidates, 1)
}

func TestParseHelpers(t *testing.T) {
	m, err := ParseValidationMode("ALL")
	require.NoError(t, err)
	assert.Equal(t, ModeAllMandatory, m)
	m, err = ParseValidationMode("last")
	require.NoError(t, err)
	assert.Equal(t, ModeLastLevelOnly, m)
	_, err = ParseValidationMode("most")
	assert.Error(t, err)

	fd, err := ParseField("desc")
	require.NoError(t, err)
	assert.Equal(t, FieldDescription, fd)
	_, err = ParseField("x")
	assert.Error(t, err)
}
