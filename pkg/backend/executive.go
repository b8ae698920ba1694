package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

const executiveBase = "/api/SOMNT01/"

// Classification types loaded by the edit form.
const (
	ExecutiveClassificationType = "03"
	MarketingClassificationType = "29"
	GeoClassificationType       = "00"
)

// SearchRequest is the GetAllExecutive payload.
type SearchRequest struct {
	SelectionCriteria       executive.SelectionCriteria         `json:"SelectionCriteria"`
	SelectedClassifications []executive.ClassificationParameter `json:"SelectedClassifications"`
}

// SearchResponse is one page of list results plus the overall match count.
type SearchResponse struct {
	Executives []executive.Summary `json:"executives"`
	TotalCount int                 `json:"totalCount"`
}

// UnmarshalJSON accepts both the object form and the legacy two element
// array form [rows, totalCount].
func (r *SearchResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*r = SearchResponse{}
		if len(parts) > 0 && string(parts[0]) != "null" {
			if err := json.Unmarshal(parts[0], &r.Executives); err != nil {
				return fmt.Errorf("decode executives: %w", err)
			}
		}
		if len(parts) > 1 && string(parts[1]) != "null" {
			if err := json.Unmarshal(parts[1], &r.TotalCount); err != nil {
				return fmt.Errorf("decode total count: %w", err)
			}
		}
		return nil
	}
	type plain SearchResponse
	return json.Unmarshal(trimmed, (*plain)(r))
}

// PromptItem is one code/description row of a lookup prompt. Prompt
// endpoints name their columns differently (OperationType, GroupCode,
// ProfileCode...), so decoding takes the first field whose name ends in
// "Code" and the first ending in "Desc"/"Description"/"Name".
type PromptItem struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PromptItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	find := func(suffixes ...string) string {
		for _, suffix := range suffixes {
			for _, k := range keys {
				if strings.HasSuffix(strings.ToLower(k), suffix) {
					return k
				}
			}
		}
		return ""
	}
	descKey := find("description", "desc", "name")
	codeKey := find("code")
	if codeKey == "" {
		// e.g. {OperationType, OperationTypeDesc}: the shortest other key.
		for _, k := range keys {
			if k != descKey && (codeKey == "" || len(k) < len(codeKey)) {
				codeKey = k
			}
		}
	}
	p.Code = stringValue(raw[codeKey])
	p.Description = stringValue(raw[descKey])
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// SaveRequest is the SaveExecutiveData payload.
type SaveRequest struct {
	Mode executive.Mode `json:"Mode"`
	executive.Record
	ExecutiveClassificationList          []executive.ClassificationRecord `json:"executiveClassificationList"`
	MarketingHierarchyClassificationList []executive.ClassificationRecord `json:"marketingHierarchyClassificationList"`
	GeoClassificationList                []executive.ClassificationRecord `json:"geoClassificationList"`
}

// SaveResponse is the backend's verdict on a save.
type SaveResponse struct {
	Success   bool   `json:"success"`
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

// Save error codes.
const (
	SaveErrorUserName = 1
	SaveErrorGeneral  = 2
)

// ExecutiveService wraps the /api/SOMNT01 endpoints.
type ExecutiveService struct {
	c *Client
}

// NewExecutiveService returns the facade over c.
func NewExecutiveService(c *Client) *ExecutiveService { return &ExecutiveService{c: c} }

func (s *ExecutiveService) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	return s.c.get(ctx, endpoint, executiveBase+endpoint, q, out)
}

func (s *ExecutiveService) prompt(ctx context.Context, endpoint string, q url.Values) ([]PromptItem, error) {
	var items []PromptItem
	if err := s.getJSON(ctx, endpoint, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetAllExecutive runs the list search.
func (s *ExecutiveService) GetAllExecutive(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.SelectedClassifications == nil {
		req.SelectedClassifications = []executive.ClassificationParameter{}
	}
	var resp SearchResponse
	if err := s.c.post(ctx, "GetAllExecutive", executiveBase+"GetAllExecutive", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOperationTypePrompt lists operation types for the search form.
func (s *ExecutiveService) GetOperationTypePrompt(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetOperationTypePrompt", nil)
}

// GetNewOptTypePrompt lists operation types for the edit form.
func (s *ExecutiveService) GetNewOptTypePrompt(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetNewOptTypePrompt", nil)
}

// GetIncentiveGroupPrompt lists incentive groups.
func (s *ExecutiveService) GetIncentiveGroupPrompt(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetIncentiveGroupPrompt", nil)
}

// GetUserProfilePrompt lists user profiles.
func (s *ExecutiveService) GetUserProfilePrompt(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetUserProfilePrompt", nil)
}

// GetParameterGroup lists hierarchy parameter groups.
func (s *ExecutiveService) GetParameterGroup(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetParameterGroup", nil)
}

// GetAppLoginUser lists application login users.
func (s *ExecutiveService) GetAppLoginUser(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetAppLoginUser", nil)
}

// GetExecutiveGroups lists executive groups.
func (s *ExecutiveService) GetExecutiveGroups(ctx context.Context) ([]PromptItem, error) {
	return s.prompt(ctx, "GetExecutiveGroups", nil)
}

// GetUnloadingLocation lists unloading locations of a territory.
func (s *ExecutiveService) GetUnloadingLocation(ctx context.Context, territory string) ([]PromptItem, error) {
	return s.prompt(ctx, "GetUnloadingLocation", url.Values{"TerritoryCode": {strings.TrimSpace(territory)}})
}

// GetExecutiveData loads one executive.
func (s *ExecutiveService) GetExecutiveData(ctx context.Context, code string) (*executive.Data, error) {
	var d executive.Data
	if err := s.getJSON(ctx, "GetExecutiveData", url.Values{"ExecutiveCode": {strings.TrimSpace(code)}}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetExecutiveClassificationData loads the committed classifications of
// one type for an executive, mapped into selector selections.
func (s *ExecutiveService) GetExecutiveClassificationData(ctx context.Context, code, classificationType string) ([]classification.Selection, error) {
	var recs []executive.ClassificationRecord
	q := url.Values{
		"ExecutiveCode":      {strings.TrimSpace(code)},
		"ClassificationType": {classificationType},
	}
	if err := s.getJSON(ctx, "GetExecutiveClassificationData", q, &recs); err != nil {
		return nil, err
	}
	out := make([]classification.Selection, 0, len(recs))
	for i, r := range recs {
		out = append(out, classification.Selection{
			Index:            i,
			GroupCode:        strings.TrimSpace(r.MasterGroup),
			GroupDescription: strings.TrimSpace(r.MasterGroupDescription),
			ValueCode:        strings.TrimSpace(r.MasterGroupValue),
			ValueDescription: strings.TrimSpace(r.MasterGroupValueDescription),
		})
	}
	return out, nil
}

// GetReturnLocations loads the return types of a territory. The executive
// code selects the currently assigned locations when editing.
func (s *ExecutiveService) GetReturnLocations(ctx context.Context, territory, code string) ([]executive.ReturnLocation, error) {
	var locs []executive.ReturnLocation
	q := url.Values{
		"TerritoryCode": {strings.TrimSpace(territory)},
		"ExecutiveCode": {strings.TrimSpace(code)},
	}
	if err := s.getJSON(ctx, "GetReturnLocations", q, &locs); err != nil {
		return nil, err
	}
	if locs == nil {
		locs = []executive.ReturnLocation{}
	}
	return locs, nil
}

// GetHierarchyType returns the hierarchy type flag; "1" enables the
// parameter group prompt.
func (s *ExecutiveService) GetHierarchyType(ctx context.Context) (string, error) {
	var v string
	if err := s.getJSON(ctx, "GetHierarchyType", nil, &v); err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// GetNextTMRouteNo returns the next TM route number of an executive.
func (s *ExecutiveService) GetNextTMRouteNo(ctx context.Context, code string) (string, error) {
	var v json.RawMessage
	if err := s.getJSON(ctx, "GetNextTMRouteNo", url.Values{"ExecutiveCode": {strings.TrimSpace(code)}}, &v); err != nil {
		return "", err
	}
	var str string
	if json.Unmarshal(v, &str) == nil {
		return strings.TrimSpace(str), nil
	}
	return strings.TrimSpace(string(v)), nil
}

// SaveExecutiveData submits the form. A decoded response is returned even
// when the backend rejects the save; only transport failures are errors.
func (s *ExecutiveService) SaveExecutiveData(ctx context.Context, req SaveRequest) (*SaveResponse, error) {
	var resp SaveResponse
	if err := s.c.post(ctx, "SaveExecutiveData", executiveBase+"SaveExecutiveData", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClassificationRecords converts selector output into the save shape.
func ClassificationRecords(sel []classification.Selection) []executive.ClassificationRecord {
	out := make([]executive.ClassificationRecord, 0, len(sel))
	for _, s := range sel {
		out = append(out, executive.ClassificationRecord{
			MasterGroup:                 s.GroupCode,
			MasterGroupDescription:      s.GroupDescription,
			MasterGroupValue:            s.ValueCode,
			MasterGroupValueDescription: s.ValueDescription,
		})
	}
	return out
}
