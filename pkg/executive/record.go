package executive

import (
	"strings"
)

// Record is the full create/edit form, grouped the way the save payload is.
type Record struct {
	Profile         Profile          `json:"ExecutiveProfile" yaml:"profile"`
	Stock           Stock            `json:"Stock" yaml:"stock"`
	Other           Other            `json:"Other" yaml:"other"`
	Merchandizing   Merchandizing    `json:"Merchandizing" yaml:"merchandizing"`
	ReturnLocations []ReturnLocation `json:"ReturnLocationList" yaml:"returnLocations"`
}

// NewRecord returns a form initialised with the defaults of an empty screen.
func NewRecord() Record {
	return Record{
		Profile: Profile{
			ExecutiveGroup: "1",
			AuthorityLevel: "1",
			RetailerType:   "0",
			Active:         true,
		},
		Other: Other{
			CreditLimit:    "0.00",
			CashLimit:      "0.00",
			LastGRNNo:      "0",
			LastRetailerNo: "0",
			LastOrderNo:    "0",
		},
		ReturnLocations: []ReturnLocation{},
	}
}

// Profile is the identity/login tab.
type Profile struct {
	ExecutiveCode           string `json:"ExecutiveCode" yaml:"executiveCode" validate:"required,execcode"`
	ExecutiveName           string `json:"ExecutiveName" yaml:"executiveName" validate:"required,execname"`
	ExecutiveGroup          string `json:"ExecutiveGroup" yaml:"executiveGroup"`
	OperationType           string `json:"OperationType" yaml:"operationType" validate:"required"`
	OperationTypeDesc       string `json:"OperationTypeDesc" yaml:"operationTypeDesc"`
	IncentiveGroup          string `json:"IncentiveGroup" yaml:"incentiveGroup"`
	IncentiveGroupDesc      string `json:"IncentiveGroupDesc" yaml:"incentiveGroupDesc"`
	UserName                string `json:"UserName" yaml:"userName" validate:"omitempty,alphanum"`
	Password                string `json:"Password" yaml:"password"`
	ConfirmPassword         string `json:"ConfirmPassword" yaml:"confirmPassword" validate:"eqfield=Password"`
	PasswordExpiry          string `json:"PasswordExpiry,omitempty" yaml:"passwordExpiry"`
	PasswordReset           bool   `json:"chkPasswordReset" yaml:"passwordReset"`
	UserLocked              bool   `json:"chkUserLocked" yaml:"userLocked"`
	AuthorityLevel          string `json:"AuthorityLevel" yaml:"authorityLevel"`
	RetailerType            string `json:"RetailerType" yaml:"retailerType"`
	IMEINo                  string `json:"IMEINo" yaml:"imeiNo" validate:"required_if=ValidateIMEI true"`
	ValidateIMEI            bool   `json:"chkValIMEI" yaml:"validateIMEI"`
	MobileNumbers           string `json:"MobileNumbers" yaml:"mobileNumbers" validate:"omitempty,mobilelist"`
	EmailAddress            string `json:"EmailAddress" yaml:"emailAddress" validate:"omitempty,emaillist"`
	Active                  bool   `json:"chkActive" yaml:"active"`
	UserProfile             string `json:"UserProfile" yaml:"userProfile"`
	UserProfileName         string `json:"UserProfileName" yaml:"userProfileName"`
	JoiningDate             string `json:"JoiningDate,omitempty" yaml:"joiningDate"`
	TerminationDate         string `json:"TerminationDate,omitempty" yaml:"terminationDate"`
	TimeStamp               string `json:"TimeStamp" yaml:"timeStamp"`
	IsValidateOperationType bool   `json:"IsValidateOperationType" yaml:"isValidateOperationType"`
}

// Stock holds the default warehouse/location assignments.
type Stock struct {
	StockTerritory                  string `json:"StockTerritory" yaml:"stockTerritory"`
	StockTerritoryDesc              string `json:"StockTerritoryDesc" yaml:"stockTerritoryDesc"`
	DefSalesWarehouse               string `json:"DefSalesWarehouse" yaml:"defSalesWarehouse"`
	DefSalesLocation                string `json:"DefSalesLocation" yaml:"defSalesLocation"`
	DefSalesLocationDes             string `json:"DefSalesLocationDes" yaml:"defSalesLocationDes"`
	DefStockWarehouse               string `json:"DefStockWarehouse" yaml:"defStockWarehouse"`
	DefStockLocation                string `json:"DefStockLocation" yaml:"defStockLocation"`
	DefStockLocationDes             string `json:"DefStockLocationDes" yaml:"defStockLocationDes"`
	DefReturnWarehouse              string `json:"DefReturnWarehouse" yaml:"defReturnWarehouse"`
	DefReturnLocation               string `json:"DefReturnLocation" yaml:"defReturnLocation"`
	DefReturnLocationDes            string `json:"DefReturnLocationDes" yaml:"defReturnLocationDes"`
	DefInspectionWarehouse          string `json:"DefInspectionWarehouse" yaml:"defInspectionWarehouse"`
	DefInspectionLocation           string `json:"DefInspectionLocation" yaml:"defInspectionLocation"`
	DefInspectionLocationDes        string `json:"DefInspectionLocationDes" yaml:"defInspectionLocationDes"`
	DefSpecialWarehouse             string `json:"DefSpecialWarehouse" yaml:"defSpecialWarehouse"`
	DefSpecialLocation              string `json:"DefSpecialLocation" yaml:"defSpecialLocation"`
	DefSpecialLocationDes           string `json:"DefSpecialLocationDes" yaml:"defSpecialLocationDes"`
	DefUnloadingWarehouse           string `json:"DefUnloadingWarehouse" yaml:"defUnloadingWarehouse"`
	DefUnloadingLocation            string `json:"DefUnloadingLocation" yaml:"defUnloadingLocation"`
	DefUnloadingLocationDes         string `json:"DefUnloadingLocationDes" yaml:"defUnloadingLocationDes"`
	SalesCategoryCode               string `json:"SalesCategoryCode" yaml:"salesCategoryCode"`
	SalesCategoryCodeDes            string `json:"SalesCategoryCodeDes" yaml:"salesCategoryCodeDes"`
	DefEmptyTransactionCategory     string `json:"DefEmptyTransactionCategory" yaml:"defEmptyTransactionCategory"`
	DefEmptyTransactionCategoryDesc string `json:"DefEmptyTransactionCategoryDesc" yaml:"defEmptyTransactionCategoryDesc"`
}

// ResetTerritoryDependents clears the sales/stock defaults that depend on the
// stock territory.
func (s *Stock) ResetTerritoryDependents() {
	s.SalesCategoryCode, s.SalesCategoryCodeDes = "", ""
	s.DefSalesWarehouse, s.DefSalesLocation, s.DefSalesLocationDes = "", "", ""
	s.DefStockWarehouse, s.DefStockLocation, s.DefStockLocationDes = "", "", ""
}

// Other holds limits, counters and miscellaneous flags.
type Other struct {
	CreditLimitValidation       bool   `json:"chkCreditLimitValidation" yaml:"creditLimitValidation"`
	CreditLimit                 string `json:"CreditLimit" yaml:"creditLimit" validate:"omitempty,amount"`
	CommissionPercentage        string `json:"CommissionPercentage,omitempty" yaml:"commissionPercentage" validate:"omitempty,percentage"`
	LastGRNNo                   string `json:"LastGRNNo" yaml:"lastGRNNo" validate:"omitempty,digits"`
	CashLimit                   string `json:"CashLimit" yaml:"cashLimit" validate:"omitempty,amount"`
	LastRetailerNo              string `json:"LastRetailerNo" yaml:"lastRetailerNo" validate:"omitempty,digits"`
	LastOrderNo                 string `json:"LastOrderNo" yaml:"lastOrderNo" validate:"omitempty,digits"`
	SurveyRecurrence            string `json:"SurveyRecurrence" yaml:"surveyRecurrence"`
	LastSurveyDate              string `json:"LastSurveyDate,omitempty" yaml:"lastSurveyDate"`
	SurveyActiveDate            string `json:"SurveyActiveDate,omitempty" yaml:"surveyActiveDate"`
	AllowPriceChange            bool   `json:"chkAllowPriceChange" yaml:"allowPriceChange"`
	CashCustomerOnly            bool   `json:"chkCashCustomerOnly" yaml:"cashCustomerOnly"`
	GISExecutive                bool   `json:"chkGISExecutive" yaml:"gisExecutive"`
	ParentExecutiveCode         string `json:"ParentExecutiveCode" yaml:"parentExecutiveCode"`
	ParentExecutiveName         string `json:"ParentExecutiveName" yaml:"parentExecutiveName"`
	ParentExecutiveType         string `json:"ParentExecutiveType" yaml:"parentExecutiveType"`
	ExecutiveType               string `json:"ExecutiveType" yaml:"executiveType"`
	ExecutiveTypeHierarchyLevel int    `json:"ExecutiveTypeHierarchyLevel" yaml:"executiveTypeHierarchyLevel"`
	MappingExecutiveCode        string `json:"MappingExecutiveCode" yaml:"mappingExecutiveCode"`
	ApplicationType             string `json:"ApplicationType" yaml:"applicationType"`
	OnlineExecutive             bool   `json:"chkOnlineExecutive" yaml:"onlineExecutive"`
	AppUserName                 string `json:"AppUserName" yaml:"appUserName"`
	UserFullName                string `json:"UserFullName" yaml:"userFullName"`
	Parameter                   string `json:"Parameter" yaml:"parameter"`
	ParameterDescription        string `json:"ParameterDescription" yaml:"parameterDescription"`
	CostCenterCode              string `json:"CostCenterCode" yaml:"costCenterCode"`
	CostCenterDesc              string `json:"CostCenterDesc" yaml:"costCenterDesc"`
}

// Merchandizing holds the TM route code settings.
type Merchandizing struct {
	AutoTMRouteCode   bool   `json:"chkAutoTMRouteCode" yaml:"autoTMRouteCode"`
	TMRouteCodePrefix string `json:"TMRouteCodePrefix" yaml:"tmRouteCodePrefix" validate:"omitempty,execcode"`
	NextTMRouteNo     string `json:"NextTMRouteNo" yaml:"nextTMRouteNo"`
}

// ReturnLocation is one return type row with its selectable locations.
type ReturnLocation struct {
	ReturnTypeCode        string           `json:"ReturnTypeCode" yaml:"returnTypeCode"`
	ReturnTypeDescription string           `json:"ReturnTypeDescription" yaml:"returnTypeDescription"`
	LocationCode          string           `json:"LocationCode" yaml:"locationCode"`
	WarehouseName         string           `json:"WarehouseName" yaml:"warehouseName"`
	LocationName          string           `json:"LocationName" yaml:"locationName"`
	WarehouseCode         string           `json:"WarehouseCode" yaml:"warehouseCode"`
	Status                int              `json:"Status" yaml:"status"`
	DropDownData          []LocationOption `json:"DropDownData" yaml:"dropDownData"`
}

// LocationOption is one choice in a return location drop-down.
type LocationOption struct {
	LocationCode  string `json:"LocationCode" yaml:"locationCode"`
	LocationDesc  string `json:"LocationDesc" yaml:"locationDesc"`
	WarehouseCode string `json:"WarehouseCode" yaml:"warehouseCode"`
	WarehouseDesc string `json:"WarehouseDesc" yaml:"warehouseDesc"`
}

// Select applies the option with the given location code. It reports false
// when the code is not among the drop-down options.
func (r *ReturnLocation) Select(locationCode string) bool {
	for _, opt := range r.DropDownData {
		if opt.LocationCode == locationCode {
			r.LocationCode = opt.LocationCode
			r.WarehouseName = opt.WarehouseDesc
			r.LocationName = opt.LocationDesc
			r.WarehouseCode = opt.WarehouseCode
			return true
		}
	}
	return false
}

// ClassificationRecord is the save/load shape of one committed classification.
type ClassificationRecord struct {
	MasterGroup                 string `json:"MasterGroup"`
	MasterGroupDescription      string `json:"MasterGroupDescription"`
	MasterGroupValue            string `json:"MasterGroupValue"`
	MasterGroupValueDescription string `json:"MasterGroupValueDescription"`
}

// Data is the backend's stored view of an executive as returned by
// GetExecutiveData. Flags arrive as '1'/'0'.
type Data struct {
	ExecutiveCode              string  `json:"ExecutiveCode"`
	ExecutiveName              string  `json:"ExecutiveName"`
	TimeStamp                  string  `json:"TimeStamp"`
	UserLocked                 string  `json:"UserLocked"`
	UserName                   string  `json:"UserName"`
	MobileNumbers              string  `json:"mobileNumbers"`
	EmailAddress               string  `json:"EmailAddress"`
	ValidateIMEI               string  `json:"ValidateIMEI"`
	IMEINumber                 string  `json:"IMEINumber"`
	ApplicationType            string  `json:"ApplicationType"`
	CostCenterCode             string  `json:"CostCenterCode"`
	CostCenterDesc             string  `json:"CostCenterDesc"`
	CommissionPercentage       *string `json:"CommissionPercentage"`
	MappingExecutiveCode       string  `json:"MappingExecutiveCode"`
	AutoTMRouteCode            string  `json:"AutoTMRouteCode"`
	TMPSACodePrefix            string  `json:"TMPSACodePrefix"`
	StockTerritory             string  `json:"StockTerritory"`
	StockTerritoryDesc         string  `json:"StockTerritoryDesc"`
	DefaultSalesWarehouseCode  string  `json:"DefaultSalesWarehouseCode"`
	DefaultSalesLocationCode   string  `json:"DefaultSalesLocationCode"`
	DefaultStockWarehouse      string  `json:"DefaultStockWarehouse"`
	DefaultStockLocation       string  `json:"DefaultStockLocation"`
	DefaultReturnWarehouse     string  `json:"DefaultReturnWarehouse"`
	DefaultReturnLocation      string  `json:"DefaultReturnLocation"`
	DefaultInspectionWarehouse string  `json:"DefaultInspectionWarehouse"`
	DefaultInspectionLocation  string  `json:"DefaultInspectionLocation"`
	DefaultSpecialWarehouse    string  `json:"DefaultSpecialWarehouse"`
	DefaultSpecialLocation     string  `json:"DefaultSpecialLocation"`
	DefaultUnloadingWarehouse  string  `json:"DefaultUnloadingWarehouse"`
	DefaultUnloadingLocation   string  `json:"DefaultUnloadingLocation"`
	DefaultSalesCategoryCode   string  `json:"DefaultSalesCategoryCode"`
	DefaultSalesCategoryDesc   string  `json:"DefaultSalesCategoryDesc"`
	DefEmpCatCode              string  `json:"DefEmpCatCode"`
	DefEmpCatDesc              string  `json:"DefEmpCatDesc"`
	CreditLimitValidation      string  `json:"CreditLimitValidation"`
	CreditLimit                string  `json:"CreditLimit"`
	AllowPriceChange           string  `json:"AllowPriceChange"`
	CashCustomerOnly           string  `json:"CashCustomerOnly"`
	GISExecutive               string  `json:"GISExecutive"`
	OnlineExecutive            string  `json:"OnlineExecutive"`
	ParentExecutiveCode        string  `json:"ParentExecutiveCode"`
	ParentExecutiveName        string  `json:"ParentExecutiveName"`
	ParentExecutiveType        string  `json:"ParentExecutiveType"`
	ExecutiveType              string  `json:"ExecutiveType"`
	HierarchyGroup             string  `json:"HierarchyGroup"`
	HierarchyGroupDesc         string  `json:"HierarchyGroupDesc"`
	AppUserName                string  `json:"AppUserName"`
	UserFullName               string  `json:"UserFullName"`
}

// ApplyTo copies loaded data into the form according to mode. Edit mode
// fills the identity fields; newBasedOn leaves the code and IMEI blank so a
// fresh record is created. Stock and other details are copied in both modes.
func (d *Data) ApplyTo(r *Record, mode Mode) {
	t := strings.TrimSpace
	switch mode {
	case ModeEdit:
		r.Profile.ExecutiveCode = t(d.ExecutiveCode)
		r.Profile.TimeStamp = t(d.TimeStamp)
		r.Profile.UserLocked = Flag(d.UserLocked)
		r.Profile.UserName = t(d.UserName)
		r.Profile.MobileNumbers = t(d.MobileNumbers)
		r.Profile.EmailAddress = t(d.EmailAddress)
		r.Profile.ValidateIMEI = Flag(d.ValidateIMEI)
		r.Profile.IMEINo = t(d.IMEINumber)

		r.Other.ApplicationType = t(d.ApplicationType)
		r.Other.CostCenterCode = t(d.CostCenterCode)
		r.Other.CostCenterDesc = t(d.CostCenterDesc)
		r.Other.CommissionPercentage = ""
		if d.CommissionPercentage != nil {
			r.Other.CommissionPercentage = t(*d.CommissionPercentage)
		}
		r.Other.MappingExecutiveCode = t(d.MappingExecutiveCode)

		r.Merchandizing.AutoTMRouteCode = Flag(d.AutoTMRouteCode)
		r.Merchandizing.TMRouteCodePrefix = t(d.TMPSACodePrefix)
	case ModeNewBasedOn:
		r.Profile.ExecutiveCode = ""
		r.Profile.Active = true
		r.Profile.UserLocked = Flag(d.UserLocked)
		r.Profile.IMEINo = ""
		r.Profile.ValidateIMEI = false
	}

	r.Stock.StockTerritory = t(d.StockTerritory)
	r.Stock.StockTerritoryDesc = t(d.StockTerritoryDesc)
	r.Stock.DefSalesWarehouse = t(d.DefaultSalesWarehouseCode)
	r.Stock.DefSalesLocation = t(d.DefaultSalesLocationCode)
	r.Stock.DefStockWarehouse = t(d.DefaultStockWarehouse)
	r.Stock.DefStockLocation = t(d.DefaultStockLocation)
	r.Stock.DefReturnWarehouse = t(d.DefaultReturnWarehouse)
	r.Stock.DefReturnLocation = t(d.DefaultReturnLocation)
	r.Stock.DefInspectionWarehouse = t(d.DefaultInspectionWarehouse)
	r.Stock.DefInspectionLocation = t(d.DefaultInspectionLocation)
	r.Stock.DefSpecialWarehouse = t(d.DefaultSpecialWarehouse)
	r.Stock.DefSpecialLocation = t(d.DefaultSpecialLocation)
	r.Stock.DefUnloadingWarehouse = t(d.DefaultUnloadingWarehouse)
	r.Stock.DefUnloadingLocation = t(d.DefaultUnloadingLocation)
	r.Stock.SalesCategoryCode = t(d.DefaultSalesCategoryCode)
	r.Stock.SalesCategoryCodeDes = t(d.DefaultSalesCategoryDesc)
	r.Stock.DefEmptyTransactionCategory = t(d.DefEmpCatCode)
	r.Stock.DefEmptyTransactionCategoryDesc = t(d.DefEmpCatDesc)

	r.Other.CreditLimitValidation = Flag(d.CreditLimitValidation)
	r.Other.CreditLimit = d.CreditLimit
	if r.Other.CreditLimit == "" {
		r.Other.CreditLimit = "0.00"
	}
	r.Other.AllowPriceChange = Flag(d.AllowPriceChange)
	r.Other.CashCustomerOnly = Flag(d.CashCustomerOnly)
	r.Other.GISExecutive = Flag(d.GISExecutive)
	r.Other.OnlineExecutive = Flag(d.OnlineExecutive)
	r.Other.ParentExecutiveCode = d.ParentExecutiveCode
	r.Other.ParentExecutiveName = d.ParentExecutiveName
	r.Other.ParentExecutiveType = d.ParentExecutiveType
	r.Other.ExecutiveType = d.ExecutiveType
	r.Other.Parameter = d.HierarchyGroup
	r.Other.ParameterDescription = d.HierarchyGroupDesc
	r.Other.AppUserName = d.AppUserName
	r.Other.UserFullName = d.UserFullName
}

// validatingOperationTypes are the operation types that require
// operation-type validation on the backend.
var validatingOperationTypes = map[string]struct{}{
	"OR": {},
	"SL": {},
	"BT": {},
}

// SetOperationType assigns the operation type and derives IsValidateOperationType.
func (p *Profile) SetOperationType(code, desc string) {
	p.OperationType = strings.TrimSpace(code)
	p.OperationTypeDesc = strings.TrimSpace(desc)
	_, p.IsValidateOperationType = validatingOperationTypes[p.OperationType]
}
