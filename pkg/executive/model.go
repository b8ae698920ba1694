// Package executive defines the Executive master-data record, the list search
// criteria, and the client-side validation rules applied before a save.
//
// Field names and JSON keys follow the backend's wire convention: trimmed
// strings, '1'/'0' flags decoded into bool at the edges, and PascalCase keys.
package executive

import (
	"strings"
)

// TaskCode identifies the executive maintenance screens in client storage keys.
const TaskCode = "SOMNT01"

// Mode is the edit-screen intent stored by the list screen before navigation.
type Mode string

const (
	// ModeNew creates a record from an empty form.
	ModeNew Mode = "new"
	// ModeEdit edits an existing record; the executive code is locked.
	ModeEdit Mode = "edit"
	// ModeNewBasedOn copies an existing record into a new one.
	ModeNewBasedOn Mode = "newBasedOn"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeNew, ModeEdit, ModeNewBasedOn:
		return true
	}
	return false
}

// SearchType selects prefix or substring matching for code/name searches.
type SearchType string

const (
	// SearchStartWith matches values beginning with the search text.
	SearchStartWith SearchType = "startWith"
	// SearchAnyWhere matches the search text anywhere in the value.
	SearchAnyWhere SearchType = "anyWhere"
)

// SelectionCriteria is the list screen search form.
type SelectionCriteria struct {
	ExecutiveCode     string     `json:"ExecutiveCode" yaml:"executiveCode" form:"ExecutiveCode"`
	ExecutiveName     string     `json:"ExecutiveName" yaml:"executiveName" form:"ExecutiveName"`
	TerritoryCode     string     `json:"TerritoryCode" yaml:"territoryCode" form:"TerritoryCode"`
	TerritoryDesc     string     `json:"TerritoryDesc" yaml:"territoryDesc" form:"TerritoryDesc"`
	OperationType     string     `json:"OperationType" yaml:"operationType" form:"OperationType"`
	OperationTypeDesc string     `json:"OperationTypeDesc" yaml:"operationTypeDesc" form:"OperationTypeDesc"`
	Executive1        string     `json:"Executive1" yaml:"executive1" form:"Executive1"`
	Executive1Name    string     `json:"Executive1Name" yaml:"executive1Name" form:"Executive1Name"`
	Executive2        string     `json:"Executive2" yaml:"executive2" form:"Executive2"`
	Executive2Name    string     `json:"Executive2Name" yaml:"executive2Name" form:"Executive2Name"`
	Executive3        string     `json:"Executive3" yaml:"executive3" form:"Executive3"`
	Executive3Name    string     `json:"Executive3Name" yaml:"executive3Name" form:"Executive3Name"`
	Executive4        string     `json:"Executive4" yaml:"executive4" form:"Executive4"`
	Executive4Name    string     `json:"Executive4Name" yaml:"executive4Name" form:"Executive4Name"`
	Executive5        string     `json:"Executive5" yaml:"executive5" form:"Executive5"`
	Executive5Name    string     `json:"Executive5Name" yaml:"executive5Name" form:"Executive5Name"`
	SearchType        SearchType `json:"SearchType" yaml:"searchType" form:"SearchType"`
	ActiveOnly        bool       `json:"ActiveOnly" yaml:"activeOnly" form:"ActiveOnly"`
	FirstRow          int        `json:"FirstRow" yaml:"firstRow" form:"FirstRow"`
	LastRow           int        `json:"LastRow" yaml:"lastRow" form:"LastRow"`
	Collapsed         bool       `json:"Collapsed" yaml:"collapsed" form:"Collapsed"`
}

// DefaultSelectionCriteria returns the initial search form.
func DefaultSelectionCriteria() SelectionCriteria {
	return SelectionCriteria{
		SearchType: SearchStartWith,
		ActiveOnly: true,
	}
}

// Normalize trims text fields and repairs an unknown search type.
func (c *SelectionCriteria) Normalize() {
	for _, p := range []*string{
		&c.ExecutiveCode, &c.ExecutiveName,
		&c.TerritoryCode, &c.TerritoryDesc,
		&c.OperationType, &c.OperationTypeDesc,
	} {
		*p = strings.TrimSpace(*p)
	}
	if c.SearchType != SearchStartWith && c.SearchType != SearchAnyWhere {
		c.SearchType = SearchStartWith
	}
}

// ExecutiveLevel is one of the five executive hierarchy slots in the criteria.
type ExecutiveLevel struct {
	Code string `json:"Code" yaml:"code"`
	Name string `json:"Name" yaml:"name"`
}

// SetLevel assigns hierarchy slot idx (0..4); other indexes are ignored.
func (c *SelectionCriteria) SetLevel(idx int, lvl ExecutiveLevel) {
	switch idx {
	case 0:
		c.Executive1, c.Executive1Name = lvl.Code, lvl.Name
	case 1:
		c.Executive2, c.Executive2Name = lvl.Code, lvl.Name
	case 2:
		c.Executive3, c.Executive3Name = lvl.Code, lvl.Name
	case 3:
		c.Executive4, c.Executive4Name = lvl.Code, lvl.Name
	case 4:
		c.Executive5, c.Executive5Name = lvl.Code, lvl.Name
	}
}

// Levels returns the five hierarchy slots in order.
func (c *SelectionCriteria) Levels() []ExecutiveLevel {
	return []ExecutiveLevel{
		{c.Executive1, c.Executive1Name},
		{c.Executive2, c.Executive2Name},
		{c.Executive3, c.Executive3Name},
		{c.Executive4, c.Executive4Name},
		{c.Executive5, c.Executive5Name},
	}
}

// ClearLevels empties all five hierarchy slots.
func (c *SelectionCriteria) ClearLevels() {
	for i := 0; i < 5; i++ {
		c.SetLevel(i, ExecutiveLevel{})
	}
}

// ClassificationParameter is one selected classification sent with a search.
type ClassificationParameter struct {
	ParameterCode  string `json:"ParameterCode"`
	ParameterValue string `json:"ParameterValue"`
}

// Summary is one row of the list screen results.
type Summary struct {
	ExecutiveCode     string `json:"ExecutiveCode"`
	ExecutiveName     string `json:"ExecutiveName"`
	UserProfileName   string `json:"UserProfileName"`
	TerritoryName     string `json:"TerritoryName"`
	OperationTypeDesc string `json:"OperationTypeDesc"`
	Status            int    `json:"Status"`
}

// Active reports whether the backend flags this executive as active.
func (s Summary) Active() bool { return s.Status == 1 }

// PageInit is the navigation intent handed from the list screen to the form.
type PageInit struct {
	Mode          Mode   `json:"Mode" yaml:"mode"`
	ExecutiveCode string `json:"ExecutiveCode" yaml:"executiveCode"`
	ExecutiveName string `json:"ExecutiveName" yaml:"executiveName"`
}

// Flag decodes the backend's '1'/'0' encoding.
func Flag(s string) bool { return strings.TrimSpace(s) == "1" }

// FlagString encodes a bool the way the backend expects.
func FlagString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
