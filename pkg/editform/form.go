// Package editform drives the executive create/edit form: loading a record
// for the navigation intent left by the list screen, the three
// classification selectors, the cascades between territory and return
// locations, lookup prompts, validation and the save workflow.
package editform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

// TerritoryGroup is the geo classification group that sets the stock territory.
const TerritoryGroup = "TETY"

// Save failure messages used when the backend sends none.
const (
	defaultUserNameError = "Username error"
	defaultSaveError     = "An error occurred."
	defaultUnknownError  = "An unknown error occurred."
)

var (
	// ErrNoPageInit means no navigation intent was stored; the caller should
	// return to the list screen.
	ErrNoPageInit = errors.New("editform: no page initialization data")
	// ErrSaveRejected is returned when the backend refuses a save.
	ErrSaveRejected = errors.New("editform: save rejected")
	// ErrCodeLocked is returned when changing the code of an edited record.
	ErrCodeLocked = errors.New("editform: executive code is locked in edit mode")
	// ErrPromptDisabled is returned for a prompt the form has not enabled.
	ErrPromptDisabled = errors.New("editform: prompt not available")
)

// ValidationError lists the fields that block a save.
type ValidationError struct {
	Fields executive.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// Backend is the subset of the executive service the form uses.
type Backend interface {
	GetExecutiveGroups(ctx context.Context) ([]backend.PromptItem, error)
	GetExecutiveData(ctx context.Context, code string) (*executive.Data, error)
	GetExecutiveClassificationData(ctx context.Context, code, classificationType string) ([]classification.Selection, error)
	GetReturnLocations(ctx context.Context, territory, code string) ([]executive.ReturnLocation, error)
	GetHierarchyType(ctx context.Context) (string, error)
	GetNextTMRouteNo(ctx context.Context, code string) (string, error)
	GetNewOptTypePrompt(ctx context.Context) ([]backend.PromptItem, error)
	GetIncentiveGroupPrompt(ctx context.Context) ([]backend.PromptItem, error)
	GetUserProfilePrompt(ctx context.Context) ([]backend.PromptItem, error)
	GetParameterGroup(ctx context.Context) ([]backend.PromptItem, error)
	GetAppLoginUser(ctx context.Context) ([]backend.PromptItem, error)
	GetUnloadingLocation(ctx context.Context, territory string) ([]backend.PromptItem, error)
	SaveExecutiveData(ctx context.Context, req backend.SaveRequest) (*backend.SaveResponse, error)
}

// Store supplies the navigation intent and the popup page size.
type Store interface {
	classification.PageSizer
	PageInit(taskCode string) (executive.PageInit, bool)
	ClearPageInit(taskCode string) error
}

// Presenter shows errors to the user (see message.Prompt).
type Presenter interface {
	Show(ctx context.Context, err error, taskCode string) error
}

// Options configures a Form.
type Options struct {
	Presenter Presenter
	Logger    *slog.Logger
}

// Form is the state of one create/edit screen visit.
type Form struct {
	Record executive.Record

	Executive *classification.Selector
	Marketing *classification.Selector
	Geo       *classification.Selector

	be        Backend
	store     Store
	presenter Presenter
	logger    *slog.Logger

	pageInit         executive.PageInit
	opened           bool
	groups           []backend.PromptItem
	hierarchyType    string
	geoDirty         bool
	rejectedUserName *string
	userNameMessage  string
	saved            bool
}

// New builds a form. lookup feeds the three classification selectors.
func New(be Backend, lookup classification.Lookup, store Store, opts Options) *Form {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &Form{
		Record:    executive.NewRecord(),
		be:        be,
		store:     store,
		presenter: opts.Presenter,
		logger:    logger,
	}
	selector := func(typ string, mode classification.ValidationMode, onChange func()) *classification.Selector {
		return classification.New(lookup, classification.Options{
			ClassificationType: typ,
			TaskCode:           executive.TaskCode,
			ActiveStatus:       classification.DefaultActiveStatus,
			Mode:               mode,
			PageSizes:          store,
			OnChange:           onChange,
			Logger:             logger,
		})
	}
	f.Executive = selector(backend.ExecutiveClassificationType, classification.ModeAllMandatory, nil)
	f.Marketing = selector(backend.MarketingClassificationType, classification.ModeNone, nil)
	f.Geo = selector(backend.GeoClassificationType, classification.ModeAllMandatory, func() { f.geoDirty = true })
	return f
}

// Open reads the navigation intent and loads the form for it.
func (f *Form) Open(ctx context.Context) error {
	pi, ok := f.store.PageInit(executive.TaskCode)
	if !ok {
		return ErrNoPageInit
	}
	if !pi.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrNoPageInit, pi.Mode)
	}
	pi.ExecutiveCode = strings.TrimSpace(pi.ExecutiveCode)
	pi.ExecutiveName = strings.TrimSpace(pi.ExecutiveName)
	f.pageInit = pi
	f.opened = true
	f.logger.Debug("opening executive form", "mode", pi.Mode, "code", pi.ExecutiveCode)

	for _, sel := range f.selectors() {
		if err := sel.Load(ctx); err != nil {
			f.logger.Warn("classification groups unavailable", "type", sel.ClassificationType(), "error", err)
		}
	}
	f.loadExecutiveGroups(ctx)

	if pi.Mode == executive.ModeNew {
		f.Record.Profile.Active = true
		f.LoadReturnLocations(ctx)
		f.LoadHierarchyType(ctx)
		return nil
	}
	return f.loadExecutive(ctx)
}

func (f *Form) selectors() []*classification.Selector {
	return []*classification.Selector{f.Executive, f.Marketing, f.Geo}
}

// Mode returns the mode the form was opened in.
func (f *Form) Mode() executive.Mode { return f.pageInit.Mode }

// PageInit returns the navigation intent the form was opened with.
func (f *Form) PageInit() executive.PageInit { return f.pageInit }

// CodeLocked reports whether the executive code is read-only.
func (f *Form) CodeLocked() bool { return f.pageInit.Mode == executive.ModeEdit }

// SetExecutiveCode edits the code unless the form is editing a record.
func (f *Form) SetExecutiveCode(code string) error {
	if f.CodeLocked() {
		return ErrCodeLocked
	}
	f.Record.Profile.ExecutiveCode = strings.TrimSpace(code)
	return nil
}

// ExecutiveGroups returns the executive group options loaded by Open.
func (f *Form) ExecutiveGroups() []backend.PromptItem {
	return append([]backend.PromptItem(nil), f.groups...)
}

func (f *Form) loadExecutiveGroups(ctx context.Context) {
	groups, err := f.be.GetExecutiveGroups(ctx)
	if err != nil {
		f.show(ctx, err)
		return
	}
	f.groups = groups
}

func (f *Form) loadExecutive(ctx context.Context) error {
	data, err := f.be.GetExecutiveData(ctx, f.pageInit.ExecutiveCode)
	if err != nil {
		f.show(ctx, err)
		return fmt.Errorf("load executive %s: %w", f.pageInit.ExecutiveCode, err)
	}
	data.ApplyTo(&f.Record, f.pageInit.Mode)
	if name := strings.TrimSpace(data.ExecutiveName); name != "" {
		f.Record.Profile.ExecutiveName = name
	} else if f.Record.Profile.ExecutiveName == "" {
		f.Record.Profile.ExecutiveName = f.pageInit.ExecutiveName
	}

	if f.pageInit.ExecutiveCode != "" {
		for _, sel := range f.selectors() {
			recs, err := f.be.GetExecutiveClassificationData(ctx, f.pageInit.ExecutiveCode, sel.ClassificationType())
			if err != nil {
				f.show(ctx, err)
				continue
			}
			sel.SetSelectedClassifications(recs)
		}
	}
	f.LoadReturnLocations(ctx)
	return nil
}

// Sync applies cascades for selector changes made since the last call. Hosts
// call it after driving a selector.
func (f *Form) Sync(ctx context.Context) {
	if f.geoDirty {
		f.GeoSelectionChanged(ctx)
	}
}

// GeoSelectionChanged resets the territory dependent stock fields, takes the
// stock territory from the TETY group and reloads the return locations.
func (f *Form) GeoSelectionChanged(ctx context.Context) {
	f.geoDirty = false
	f.Record.Stock.ResetTerritoryDependents()
	f.Record.Stock.StockTerritory = ""
	f.Record.Stock.StockTerritoryDesc = ""
	for _, item := range f.Geo.SelectedClassifications() {
		if strings.TrimSpace(item.GroupCode) == TerritoryGroup && strings.TrimSpace(item.ValueCode) != "" {
			f.Record.Stock.StockTerritory = strings.TrimSpace(item.ValueCode)
			f.Record.Stock.StockTerritoryDesc = strings.TrimSpace(item.ValueDescription)
			break
		}
	}
	f.LoadReturnLocations(ctx)
}

// LoadReturnLocations reloads the return types for the stock territory. No
// territory means no return types; a failure is shown and empties the list.
func (f *Form) LoadReturnLocations(ctx context.Context) {
	territory := strings.TrimSpace(f.Record.Stock.StockTerritory)
	if territory == "" {
		f.Record.ReturnLocations = []executive.ReturnLocation{}
		return
	}
	locs, err := f.be.GetReturnLocations(ctx, territory, f.pageInit.ExecutiveCode)
	if err != nil {
		f.show(ctx, err)
		f.Record.ReturnLocations = []executive.ReturnLocation{}
		return
	}
	for i := range locs {
		if locs[i].DropDownData == nil {
			locs[i].DropDownData = []executive.LocationOption{}
		}
	}
	f.Record.ReturnLocations = locs
}

// SelectReturnLocation picks a location for return type i.
func (f *Form) SelectReturnLocation(i int, locationCode string) error {
	if i < 0 || i >= len(f.Record.ReturnLocations) {
		return fmt.Errorf("return location %d out of range", i)
	}
	if strings.TrimSpace(locationCode) == "" {
		return nil
	}
	if !f.Record.ReturnLocations[i].Select(locationCode) {
		return fmt.Errorf("location %q is not offered for return type %s", locationCode, f.Record.ReturnLocations[i].ReturnTypeCode)
	}
	return nil
}

// LoadHierarchyType fetches the hierarchy type. "1" enables the parameter
// group prompt. Failures are only logged.
func (f *Form) LoadHierarchyType(ctx context.Context) {
	ht, err := f.be.GetHierarchyType(ctx)
	if err != nil {
		f.logger.Error("failed to get hierarchy type", "error", err)
		return
	}
	f.hierarchyType = ht
}

// HierarchyType returns the value loaded by LoadHierarchyType.
func (f *Form) HierarchyType() string { return f.hierarchyType }

// SetAutoTMRouteCode toggles automatic TM route codes. Turning it on in edit
// mode loads the next route number; turning it off clears prefix and number.
func (f *Form) SetAutoTMRouteCode(ctx context.Context, on bool) error {
	m := &f.Record.Merchandizing
	m.AutoTMRouteCode = on
	if !on {
		m.TMRouteCodePrefix = ""
		m.NextTMRouteNo = ""
		return nil
	}
	if f.pageInit.Mode != executive.ModeEdit {
		m.NextTMRouteNo = ""
		return nil
	}
	if f.pageInit.ExecutiveCode == "" {
		return nil
	}
	next, err := f.be.GetNextTMRouteNo(ctx, f.pageInit.ExecutiveCode)
	if err != nil {
		f.show(ctx, err)
		return fmt.Errorf("next TM route number: %w", err)
	}
	m.NextTMRouteNo = next
	return nil
}

// PrefixEnabled reports whether the TM route prefix is editable.
func (f *Form) PrefixEnabled() bool { return f.Record.Merchandizing.AutoTMRouteCode }

// SetOperationType assigns the operation type.
func (f *Form) SetOperationType(code, desc string) {
	f.Record.Profile.SetOperationType(code, desc)
}

// ToggleValidateIMEI flips IMEI validation.
func (f *Form) ToggleValidateIMEI() {
	f.Record.Profile.ValidateIMEI = !f.Record.Profile.ValidateIMEI
}

// Validate checks the record, the selectors and any user name rejected by
// the last save.
func (f *Form) Validate() error {
	fields := executive.FieldErrors{}
	if err := f.Record.Validate(); err != nil {
		var fe executive.FieldErrors
		if !errors.As(err, &fe) {
			return err
		}
		for k, v := range fe {
			fields[k] = v
		}
	}
	for name, sel := range map[string]*classification.Selector{
		"Classification.Executive": f.Executive,
		"Classification.Marketing": f.Marketing,
		"Classification.Geo":       f.Geo,
	} {
		if !sel.Validate() {
			fields[name] = "has missing values"
		}
	}
	if f.rejectedUserName != nil && *f.rejectedUserName == f.Record.Profile.UserName {
		fields["Profile.UserName"] = f.userNameMessage
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// SaveRequest builds the payload for the current state.
func (f *Form) SaveRequest() backend.SaveRequest {
	mode := f.pageInit.Mode
	if mode == "" {
		mode = executive.ModeNew
	}
	return backend.SaveRequest{
		Mode:                                 mode,
		Record:                               f.Record,
		ExecutiveClassificationList:          backend.ClassificationRecords(f.Executive.SelectedClassifications()),
		MarketingHierarchyClassificationList: backend.ClassificationRecords(f.Marketing.SelectedClassifications()),
		GeoClassificationList:                backend.ClassificationRecords(f.Geo.SelectedClassifications()),
	}
}

// Submit validates and saves the form. A *ValidationError means nothing was
// sent or the backend rejected the user name; ErrSaveRejected means the
// backend refused the record. On success the navigation intent is cleared.
func (f *Form) Submit(ctx context.Context) error {
	if err := f.Validate(); err != nil {
		f.logger.Info("form is invalid", "error", err)
		return err
	}

	resp, err := f.be.SaveExecutiveData(ctx, f.SaveRequest())
	if err != nil {
		f.show(ctx, err)
		return fmt.Errorf("save executive: %w", err)
	}
	if resp.Success {
		f.saved = true
		f.rejectedUserName = nil
		if err := f.store.ClearPageInit(executive.TaskCode); err != nil {
			f.logger.Warn("failed to clear page init", "error", err)
		}
		return nil
	}

	switch resp.ErrorCode {
	case backend.SaveErrorUserName:
		msg := orDefault(resp.Message, defaultUserNameError)
		name := f.Record.Profile.UserName
		f.rejectedUserName = &name
		f.userNameMessage = msg
		return &ValidationError{Fields: executive.FieldErrors{"Profile.UserName": msg}}
	case backend.SaveErrorGeneral:
		msg := orDefault(resp.Message, defaultSaveError)
		f.show(ctx, errors.New(msg))
		return fmt.Errorf("%w: %s", ErrSaveRejected, msg)
	default:
		msg := orDefault(resp.Message, defaultUnknownError)
		f.show(ctx, errors.New(msg))
		return fmt.Errorf("%w: %s", ErrSaveRejected, msg)
	}
}

// Saved reports whether the last Submit succeeded.
func (f *Form) Saved() bool { return f.saved }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func (f *Form) show(ctx context.Context, err error) {
	if f.presenter == nil {
		f.logger.Error("executive form error", "error", err)
		return
	}
	if showErr := f.presenter.Show(ctx, err, executive.TaskCode); showErr != nil {
		f.logger.Error("failed to show error", "error", showErr, "cause", err)
	}
}

// PromptNames lists the lookup prompts accepted by Prompt and ApplyPrompt.
func PromptNames() []string {
	names := make([]string, 0, len(prompts))
	for k := range prompts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
