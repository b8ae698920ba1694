package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

func TestGetAllExecutive(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/SOMNT01/GetAllExecutive": {body: `{"executives":[{"ExecutiveCode":"EX1","ExecutiveName":"Jane","Status":1}],"totalCount":42}`},
	})
	svc := NewExecutiveService(newTestClient(t, srv.URL, nil))

	criteria := executive.DefaultSelectionCriteria()
	criteria.ExecutiveCode = "EX"
	resp, err := svc.GetAllExecutive(context.Background(), SearchRequest{SelectionCriteria: criteria})
	if err != nil {
		t.Fatalf("GetAllExecutive: %v", err)
	}
	if resp.TotalCount != 42 || len(resp.Executives) != 1 || !resp.Executives[0].Active() {
		t.Errorf("unexpected response %+v", resp)
	}

	req := fb.last()
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	body := decodeBody(t, req.Body)
	sc, ok := body["SelectionCriteria"].(map[string]any)
	if !ok || sc["ExecutiveCode"] != "EX" || sc["SearchType"] != "startWith" {
		t.Errorf("unexpected criteria %v", body["SelectionCriteria"])
	}
	if cls, ok := body["SelectedClassifications"].([]any); !ok || len(cls) != 0 {
		t.Errorf("expected empty classification list, got %v", body["SelectedClassifications"])
	}
}

func TestPromptItemDecoding(t *testing.T) {
	tests := []struct {
		description string
		payload     string
		expected    PromptItem
	}{
		{description: "canonical", payload: `{"Code":"A","Description":"Alpha"}`, expected: PromptItem{"A", "Alpha"}},
		{description: "suffixed names", payload: `{"GroupCode":" G1 ","GroupDescription":"Group one"}`, expected: PromptItem{"G1", "Group one"}},
		{description: "desc without code", payload: `{"OperationType":"SL","OperationTypeDesc":"Sales"}`, expected: PromptItem{"SL", "Sales"}},
		{description: "name column", payload: `{"ProfileCode":"P","ProfileName":"Admin"}`, expected: PromptItem{"P", "Admin"}},
		{description: "numeric code", payload: `{"Code":7,"Description":"Seven"}`, expected: PromptItem{"7", "Seven"}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var got PromptItem
			if err := json.Unmarshal([]byte(tt.payload), &got); err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestEditFormEndpoints(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/SOMNT01/GetExecutiveData":               {body: `{"ExecutiveCode":"EX1 ","StockTerritory":"T1"}`},
		"/api/SOMNT01/GetExecutiveClassificationData": {body: `[{"MasterGroup":"TETY ","MasterGroupDescription":"Territory","MasterGroupValue":"T1","MasterGroupValueDescription":"North "}]`},
		"/api/SOMNT01/GetReturnLocations":             {body: `null`},
		"/api/SOMNT01/GetNextTMRouteNo":               {body: `15`},
		"/api/SOMNT01/GetUnloadingLocation":           {body: `[{"LocationCode":"L1","LocationDesc":"Bay"}]`},
	})
	svc := NewExecutiveService(newTestClient(t, srv.URL, nil))
	ctx := context.Background()

	d, err := svc.GetExecutiveData(ctx, " EX1 ")
	if err != nil || d.StockTerritory != "T1" {
		t.Fatalf("GetExecutiveData: %+v %v", d, err)
	}
	if q, _ := url.ParseQuery(fb.last().Query); q.Get("ExecutiveCode") != "EX1" {
		t.Errorf("expected trimmed code, got %q", fb.last().Query)
	}

	sel, err := svc.GetExecutiveClassificationData(ctx, "EX1", GeoClassificationType)
	if err != nil {
		t.Fatal(err)
	}
	expected := classification.Selection{Index: 0, GroupCode: "TETY", GroupDescription: "Territory", ValueCode: "T1", ValueDescription: "North"}
	if len(sel) != 1 || sel[0] != expected {
		t.Errorf("unexpected selections %+v", sel)
	}
	if q, _ := url.ParseQuery(fb.last().Query); q.Get("ClassificationType") != "00" {
		t.Errorf("unexpected query %q", fb.last().Query)
	}

	locs, err := svc.GetReturnLocations(ctx, "T1", "EX1")
	if err != nil || locs == nil || len(locs) != 0 {
		t.Errorf("expected empty non-nil list, got %v %v", locs, err)
	}

	next, err := svc.GetNextTMRouteNo(ctx, "EX1")
	if err != nil || next != "15" {
		t.Errorf("GetNextTMRouteNo = %q %v", next, err)
	}

	items, err := svc.GetUnloadingLocation(ctx, " T1 ")
	if err != nil || len(items) != 1 || items[0] != (PromptItem{"L1", "Bay"}) {
		t.Errorf("GetUnloadingLocation = %+v %v", items, err)
	}
}

func TestSaveExecutiveDataPayload(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/SOMNT01/SaveExecutiveData": {body: `{"success":false,"errorCode":1,"message":"User name taken"}`},
	})
	svc := NewExecutiveService(newTestClient(t, srv.URL, nil))

	rec := executive.NewRecord()
	rec.Profile.ExecutiveCode = "EX9"
	req := SaveRequest{
		Mode:   executive.ModeNew,
		Record: rec,
		GeoClassificationList: ClassificationRecords([]classification.Selection{
			{GroupCode: "TETY", GroupDescription: "Territory", ValueCode: "T1", ValueDescription: "North"},
		}),
	}
	resp, err := svc.SaveExecutiveData(context.Background(), req)
	if err != nil {
		t.Fatalf("SaveExecutiveData: %v", err)
	}
	if resp.Success || resp.ErrorCode != SaveErrorUserName || resp.Message != "User name taken" {
		t.Errorf("unexpected response %+v", resp)
	}

	body := decodeBody(t, fb.last().Body)
	if body["Mode"] != "new" {
		t.Errorf("Mode = %v", body["Mode"])
	}
	profile, ok := body["ExecutiveProfile"].(map[string]any)
	if !ok || profile["ExecutiveCode"] != "EX9" {
		t.Errorf("ExecutiveProfile not flattened into payload: %v", body)
	}
	geo, ok := body["geoClassificationList"].([]any)
	if !ok || len(geo) != 1 {
		t.Fatalf("geoClassificationList = %v", body["geoClassificationList"])
	}
	if g := geo[0].(map[string]any); g["MasterGroup"] != "TETY" || g["MasterGroupValue"] != "T1" {
		t.Errorf("unexpected classification record %v", g)
	}
}

func TestSearchResponseArrayForm(t *testing.T) {
	var resp SearchResponse
	if err := json.Unmarshal([]byte(`[[{"ExecutiveCode":"EX1"}],7]`), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Executives) != 1 || resp.Executives[0].ExecutiveCode != "EX1" || resp.TotalCount != 7 {
		t.Errorf("unexpected response %+v", resp)
	}

	resp = SearchResponse{}
	if err := json.Unmarshal([]byte(`[null, null]`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Executives != nil || resp.TotalCount != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
}
