package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/greg-hellings/execadmin/pkg/classification"
)

func TestGroupsForTypeDecodesFlags(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/Prompt/GetMasterCodes": {body: `[
			{"MasterGroup":"TETY ","GroupDescription":" Territory Type","GroupType":"00","HierarchyRequired":"0"},
			{"MasterGroup":"EXETYPE","GroupDescription":"Executive Type","GroupType":"00","HierarchyRequired":"1 "}
		]`},
	})
	svc := NewPromptService(newTestClient(t, srv.URL, nil))

	groups, err := svc.GroupsForType(context.Background(), "00")
	if err != nil {
		t.Fatalf("GroupsForType: %v", err)
	}
	expected := []classification.Group{
		{Code: "TETY", Description: "Territory Type", Type: "00", HierarchyRequired: false},
		{Code: "EXETYPE", Description: "Executive Type", Type: "00", HierarchyRequired: true},
	}
	if len(groups) != len(expected) {
		t.Fatalf("expected %d groups, got %d", len(expected), len(groups))
	}
	for i := range expected {
		if groups[i] != expected[i] {
			t.Errorf("group %d: expected %+v, got %+v", i, expected[i], groups[i])
		}
	}
	if q, _ := url.ParseQuery(fb.last().Query); q.Get("ClassificationType") != "00" {
		t.Errorf("unexpected query %q", fb.last().Query)
	}
}

func TestValuesForGroupSendsSelector(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/Prompt/GetMasterValues": {body: `[{"masterGroupValue":"A ","masterGroupValueDescription":"Alpha"},{"masterGroupValue":"B","masterGroupValueDescription":" Beta"}]`},
	})
	svc := NewPromptService(newTestClient(t, srv.URL, nil))

	rows := []classification.Row{
		{Index: 0, Group: classification.Group{Code: "TETY"}, Code: "T1", Committed: "T1"},
		{Index: 1, Group: classification.Group{Code: "EXETYPE", HierarchyRequired: true}},
	}
	got, err := svc.ValuesForGroup(context.Background(), 1, rows, "Active")
	if err != nil {
		t.Fatalf("ValuesForGroup: %v", err)
	}
	if len(got) != 2 || got[0] != (classification.Candidate{Code: "A", Description: "Alpha"}) || got[1].Description != "Beta" {
		t.Errorf("unexpected candidates %+v", got)
	}

	req := fb.last()
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	body := decodeBody(t, req.Body)
	if body["selectedIndex"] != float64(1) || body["activeStatus"] != "Active" {
		t.Errorf("unexpected body %v", body)
	}
	selector := body["selector"].([]any)
	second := selector[1].(map[string]any)
	if second["MasterGroup"] != "EXETYPE" || second["HierarchyRequired"] != "1" {
		t.Errorf("unexpected selector row %v", second)
	}
	if first := selector[0].(map[string]any); first["txtCode"] != "T1" || first["LatestText"] != "T1" {
		t.Errorf("unexpected selector row %v", first)
	}
}

func TestHierarchyValuesActiveStatus(t *testing.T) {
	tests := []struct {
		description  string
		activeStatus string
		expectParam  bool
	}{
		{description: "with status", activeStatus: "Active", expectParam: true},
		{description: "without status", activeStatus: "", expectParam: false},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			fb, srv := newFakeBackend(t, map[string]fakeResponse{
				"/api/Prompt/GetMasterGroupValuesHirarchy": {body: `[{"MasterGroup":"EXECLAS ","masterGroupValue":"C1","masterGroupValueDescription":"Class one "}]`},
			})
			svc := NewPromptService(newTestClient(t, srv.URL, nil))

			got, err := svc.HierarchyValues(context.Background(), "EXETYPE", "MGR ", tt.activeStatus)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0] != (classification.HierarchyEntry{GroupCode: "EXECLAS", Code: "C1", Description: "Class one"}) {
				t.Errorf("unexpected entries %+v", got)
			}
			q, _ := url.ParseQuery(fb.last().Query)
			if q.Get("MasterGroup") != "EXETYPE" || q.Get("Code") != "MGR" {
				t.Errorf("unexpected query %q", fb.last().Query)
			}
			if q.Has("ActiveStatus") != tt.expectParam {
				t.Errorf("ActiveStatus present=%v, expected %v", q.Has("ActiveStatus"), tt.expectParam)
			}
		})
	}
}

func TestGetMessage(t *testing.T) {
	tests := []struct {
		description string
		body        string
		status      int
		expected    string
		found       bool
		expectErr   bool
	}{
		{description: "found", body: `[{"MessageText":" Delete &1? "}]`, expected: "Delete &1?", found: true},
		{description: "missing", body: `[]`, found: false},
		{description: "failure", status: http.StatusBadGateway, expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, srv := newFakeBackend(t, map[string]fakeResponse{
				"/api/Message/GetMessage": {status: tt.status, body: tt.body},
			})
			svc := NewMessageService(newTestClient(t, srv.URL, func(string, error) {}))

			text, ok, err := svc.GetMessage(context.Background(), 1001)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if err.Error() != "Something bad happened; please try again later." {
					t.Errorf("unexpected text %q", err.Error())
				}
				if !errors.Is(err, ErrMessageUnavailable) {
					t.Error("expected ErrMessageUnavailable")
				}
				var herr *HTTPError
				if !errors.As(err, &herr) || herr.StatusCode != http.StatusBadGateway {
					t.Errorf("cause not preserved: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.found || text != tt.expected {
				t.Errorf("expected (%q,%v), got (%q,%v)", tt.expected, tt.found, text, ok)
			}
		})
	}
}

func TestGetUserName(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]fakeResponse{
		"/api/Message/GetUserName": {body: `"jane "`},
	})
	svc := NewMessageService(newTestClient(t, srv.URL, nil))
	name, err := svc.GetUserName(context.Background())
	if err != nil || name != "jane" {
		t.Errorf("GetUserName = %q %v", name, err)
	}
}
