// Package classification implements the classification selector: one
// code/description row per master group of a classification type, a
// filterable candidate popup for the focused row, hierarchy auto-fill and
// the mandatory-row validation modes.
//
// The selector is a plain state object. Hosts drive it through the focus
// region calls (FocusEnter, Input, TabOut, FocusLeaveRegion, Pick, ClearRow)
// and read it back through Rows, View and SelectedClassifications.
package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ValidationMode selects which rows must carry a value.
type ValidationMode int

const (
	// ModeNone never marks a row as missing.
	ModeNone ValidationMode = iota
	// ModeAllMandatory requires every row.
	ModeAllMandatory
	// ModeLastLevelOnly requires only the final row.
	ModeLastLevelOnly
)

func (m ValidationMode) String() string {
	switch m {
	case ModeAllMandatory:
		return "all"
	case ModeLastLevelOnly:
		return "last"
	default:
		return "none"
	}
}

// ParseValidationMode accepts "none", "all" and "last" (case-insensitive).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "all", "allmandatory":
		return ModeAllMandatory, nil
	case "last", "lastlevel", "lastlevelonly":
		return ModeLastLevelOnly, nil
	}
	return ModeNone, fmt.Errorf("unknown validation mode %q", s)
}

// Field identifies which input of a row has focus.
type Field int

const (
	// FieldCode is the value code input.
	FieldCode Field = iota
	// FieldDescription is the value description input.
	FieldDescription
)

func (f Field) String() string {
	if f == FieldDescription {
		return "description"
	}
	return "code"
}

// ParseField accepts "code"/"c" and "description"/"desc"/"d".
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code", "c":
		return FieldCode, nil
	case "description", "desc", "d":
		return FieldDescription, nil
	}
	return FieldCode, fmt.Errorf("unknown field %q", s)
}

// Group is one master group of a classification type.
type Group struct {
	Code              string `json:"groupCode"`
	Description       string `json:"groupDescription"`
	Type              string `json:"groupType"`
	HierarchyRequired bool   `json:"hierarchyRequired"`
}

// Candidate is one admissible value for a group.
type Candidate struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// HierarchyEntry is one value of a hierarchy auto-fill response.
type HierarchyEntry struct {
	GroupCode   string `json:"groupCode"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Row is the state of one group's inputs.
type Row struct {
	Index       int    `json:"index"`
	Group       Group  `json:"group"`
	Code        string `json:"code"`
	Description string `json:"description"`
	// Committed is the code last committed through the popup or auto-fill.
	Committed string `json:"committed"`
	// CommittedDescription is the description that came with Committed.
	CommittedDescription string `json:"committedDescription"`
	// Error is "*" when the row fails validation.
	Error string `json:"error,omitempty"`
}

func (r *Row) clear() {
	r.set("", "")
}

// set commits code and description.
func (r *Row) set(code, description string) {
	r.Code = code
	r.Description = description
	r.Committed = code
	r.CommittedDescription = description
}

// revert drops typed text that was never committed.
func (r *Row) revert() {
	r.Code = r.Committed
	r.Description = r.CommittedDescription
}

// Selection is one committed group to value mapping.
type Selection struct {
	Index            int    `json:"Index"`
	GroupCode        string `json:"GroupCode"`
	GroupDescription string `json:"GroupDescription"`
	GroupType        string `json:"GroupType"`
	HasHierarchy     bool   `json:"HasHirarchy"`
	ValueCode        string `json:"ValueCode"`
	ValueDescription string `json:"ValueDescription"`
}

// Lookup is the backend the selector reads groups and values from.
type Lookup interface {
	GroupsForType(ctx context.Context, classificationType string) ([]Group, error)
	ValuesForGroup(ctx context.Context, rowIndex int, rows []Row, activeStatus string) ([]Candidate, error)
	HierarchyValues(ctx context.Context, groupCode, code, activeStatus string) ([]HierarchyEntry, error)
}

// PageSizer supplies the popup page size.
type PageSizer interface {
	SelectorPageSize() int
}

// Errors returned for calls that do not fit the selector's current state.
var (
	ErrNotLoaded           = errors.New("classification: groups not loaded")
	ErrDisabled            = errors.New("classification: selector disabled")
	ErrRowOutOfRange       = errors.New("classification: row out of range")
	ErrNoPopup             = errors.New("classification: no popup open")
	ErrCandidateOutOfRange = errors.New("classification: candidate out of range")
)
