package backend

import (
	"context"
	"net/url"
	"strings"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

const promptBase = "/api/Prompt/"

// PromptService reads classification groups and values. It satisfies
// classification.Lookup.
type PromptService struct {
	c *Client
}

var _ classification.Lookup = (*PromptService)(nil)

// NewPromptService returns the facade over c.
func NewPromptService(c *Client) *PromptService { return &PromptService{c: c} }

type masterCode struct {
	MasterGroup       string `json:"MasterGroup"`
	GroupDescription  string `json:"GroupDescription"`
	GroupType         string `json:"GroupType"`
	HierarchyRequired string `json:"HierarchyRequired"`
}

// selectorRow is the row shape GetMasterValues expects.
type selectorRow struct {
	Index             int    `json:"index"`
	Code              string `json:"txtCode"`
	Description       string `json:"txtDesc"`
	GroupDescription  string `json:"GroupDescription"`
	HierarchyRequired string `json:"HierarchyRequired"`
	MasterGroup       string `json:"MasterGroup"`
	ErrorMessage      string `json:"ErrorMessage,omitempty"`
	LatestText        string `json:"LatestText"`
}

type masterValuesRequest struct {
	SelectedIndex int           `json:"selectedIndex"`
	Selector      []selectorRow `json:"selector"`
	ActiveStatus  string        `json:"activeStatus"`
}

type masterValue struct {
	MasterGroup                 string `json:"MasterGroup"`
	MasterGroupValue            string `json:"masterGroupValue"`
	MasterGroupValueDescription string `json:"masterGroupValueDescription"`
}

// GroupsForType implements classification.Lookup.
func (s *PromptService) GroupsForType(ctx context.Context, classificationType string) ([]classification.Group, error) {
	var codes []masterCode
	q := url.Values{"ClassificationType": {classificationType}}
	if err := s.c.get(ctx, "GetMasterCodes", promptBase+"GetMasterCodes", q, &codes); err != nil {
		return nil, err
	}
	groups := make([]classification.Group, 0, len(codes))
	for _, mc := range codes {
		groups = append(groups, classification.Group{
			Code:              strings.TrimSpace(mc.MasterGroup),
			Description:       strings.TrimSpace(mc.GroupDescription),
			Type:              strings.TrimSpace(mc.GroupType),
			HierarchyRequired: executive.Flag(mc.HierarchyRequired),
		})
	}
	return groups, nil
}

// ValuesForGroup implements classification.Lookup. The backend narrows the
// values of hierarchical groups using the other rows' committed codes, so
// the full row array is sent.
func (s *PromptService) ValuesForGroup(ctx context.Context, rowIndex int, rows []classification.Row, activeStatus string) ([]classification.Candidate, error) {
	req := masterValuesRequest{
		SelectedIndex: rowIndex,
		Selector:      make([]selectorRow, 0, len(rows)),
		ActiveStatus:  activeStatus,
	}
	for _, r := range rows {
		req.Selector = append(req.Selector, selectorRow{
			Index:             r.Index,
			Code:              r.Code,
			Description:       r.Description,
			GroupDescription:  r.Group.Description,
			HierarchyRequired: executive.FlagString(r.Group.HierarchyRequired),
			MasterGroup:       r.Group.Code,
			ErrorMessage:      r.Error,
			LatestText:        r.Committed,
		})
	}
	var values []masterValue
	if err := s.c.post(ctx, "GetMasterValues", promptBase+"GetMasterValues", req, &values); err != nil {
		return nil, err
	}
	out := make([]classification.Candidate, 0, len(values))
	for _, v := range values {
		out = append(out, classification.Candidate{
			Code:        strings.TrimSpace(v.MasterGroupValue),
			Description: strings.TrimSpace(v.MasterGroupValueDescription),
		})
	}
	return out, nil
}

// HierarchyValues implements classification.Lookup. An empty activeStatus
// omits the filter.
func (s *PromptService) HierarchyValues(ctx context.Context, groupCode, code, activeStatus string) ([]classification.HierarchyEntry, error) {
	q := url.Values{
		"MasterGroup": {strings.TrimSpace(groupCode)},
		"Code":        {strings.TrimSpace(code)},
	}
	if activeStatus != "" {
		q.Set("ActiveStatus", activeStatus)
	}
	var values []masterValue
	if err := s.c.get(ctx, "GetMasterGroupValuesHirarchy", promptBase+"GetMasterGroupValuesHirarchy", q, &values); err != nil {
		return nil, err
	}
	out := make([]classification.HierarchyEntry, 0, len(values))
	for _, v := range values {
		out = append(out, classification.HierarchyEntry{
			GroupCode:   strings.TrimSpace(v.MasterGroup),
			Code:        strings.TrimSpace(v.MasterGroupValue),
			Description: strings.TrimSpace(v.MasterGroupValueDescription),
		})
	}
	return out, nil
}
