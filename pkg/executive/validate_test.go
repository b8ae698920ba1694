package executive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	r := NewRecord()
	r.Profile.ExecutiveCode = "EX-001"
	r.Profile.ExecutiveName = "Jane Perera"
	r.Profile.OperationType = "SL"
	return r
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *Record)
		wantField string
	}{
		{name: "valid record", mutate: func(r *Record) {}},
		{name: "missing code", mutate: func(r *Record) { r.Profile.ExecutiveCode = "" }, wantField: "Profile.ExecutiveCode"},
		{name: "code with space", mutate: func(r *Record) { r.Profile.ExecutiveCode = "EX 1" }, wantField: "Profile.ExecutiveCode"},
		{name: "name with quote", mutate: func(r *Record) { r.Profile.ExecutiveName = "O'Brien" }, wantField: "Profile.ExecutiveName"},
		{name: "missing operation type", mutate: func(r *Record) { r.Profile.OperationType = "" }, wantField: "Profile.OperationType"},
		{name: "user name punctuation", mutate: func(r *Record) { r.Profile.UserName = "jane.p" }, wantField: "Profile.UserName"},
		{name: "password mismatch", mutate: func(r *Record) {
			r.Profile.Password = "a1"
			r.Profile.ConfirmPassword = "a2"
		}, wantField: "Profile.ConfirmPassword"},
		{name: "imei required when validated", mutate: func(r *Record) { r.Profile.ValidateIMEI = true }, wantField: "Profile.IMEINo"},
		{name: "imei present when validated", mutate: func(r *Record) {
			r.Profile.ValidateIMEI = true
			r.Profile.IMEINo = "356938035643809"
		}},
		{name: "mobile with letters", mutate: func(r *Record) { r.Profile.MobileNumbers = "0771x" }, wantField: "Profile.MobileNumbers"},
		{name: "mobile list", mutate: func(r *Record) { r.Profile.MobileNumbers = "0771234567;0712345678" }},
		{name: "bad email", mutate: func(r *Record) { r.Profile.EmailAddress = "jane@" }, wantField: "Profile.EmailAddress"},
		{name: "credit limit letters", mutate: func(r *Record) { r.Other.CreditLimit = "12a" }, wantField: "Other.CreditLimit"},
		{name: "last order not digits", mutate: func(r *Record) { r.Other.LastOrderNo = "1.5" }, wantField: "Other.LastOrderNo"},
		{name: "commission over 100", mutate: func(r *Record) { r.Other.CommissionPercentage = "100.5" }, wantField: "Other.CommissionPercentage"},
		{name: "commission in range", mutate: func(r *Record) { r.Other.CommissionPercentage = "12.5" }},
		{name: "route prefix", mutate: func(r *Record) { r.Merchandizing.TMRouteCodePrefix = "TM#" }, wantField: "Merchandizing.TMRouteCodePrefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fe, ok := err.(FieldErrors)
			require.True(t, ok, "expected FieldErrors, got %T", err)
			assert.True(t, fe.Has(tt.wantField), "expected error on %s, got %v", tt.wantField, fe)
		})
	}
}

func TestValidEmailList(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":               true,
		"a@b.com; c.d@e.co.uk":  true,
		"a@b.com;":              true,
		"a@b.com;;c@d.com":      false,
		"not-an-address":        false,
		"user@[10.0.0.1]":       true,
		"first_last@example.io": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidEmailList(in), in)
	}
}

func TestValidPercentage(t *testing.T) {
	assert.True(t, ValidPercentage(""))
	assert.True(t, ValidPercentage("0"))
	assert.True(t, ValidPercentage("100"))
	assert.False(t, ValidPercentage("-1"))
	assert.False(t, ValidPercentage("abc"))
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "1500.00", FormatDecimal("1,500"))
	assert.Equal(t, "0.50", FormatDecimal("0.5"))
	assert.Equal(t, "n/a", FormatDecimal("n/a"))
}

func TestSetOperationType(t *testing.T) {
	var p Profile
	p.SetOperationType(" OR ", "Order")
	assert.Equal(t, "OR", p.OperationType)
	assert.True(t, p.IsValidateOperationType)

	p.SetOperationType("VN", "Van")
	assert.False(t, p.IsValidateOperationType)
}

func TestDataApplyTo(t *testing.T) {
	pct := " 7.5 "
	d := Data{
		ExecutiveCode:         " EX1 ",
		UserLocked:            "1",
		ValidateIMEI:          "1",
		IMEINumber:            "123",
		CommissionPercentage:  &pct,
		StockTerritory:        "T01 ",
		CreditLimitValidation: "1",
	}

	t.Run("edit copies identity", func(t *testing.T) {
		r := NewRecord()
		d.ApplyTo(&r, ModeEdit)
		assert.Equal(t, "EX1", r.Profile.ExecutiveCode)
		assert.True(t, r.Profile.UserLocked)
		assert.True(t, r.Profile.ValidateIMEI)
		assert.Equal(t, "7.5", r.Other.CommissionPercentage)
		assert.Equal(t, "T01", r.Stock.StockTerritory)
		assert.True(t, r.Other.CreditLimitValidation)
		assert.Equal(t, "0.00", r.Other.CreditLimit)
	})

	t.Run("new based on clears code and imei", func(t *testing.T) {
		r := NewRecord()
		r.Profile.ExecutiveCode = "OLD"
		d.ApplyTo(&r, ModeNewBasedOn)
		assert.Empty(t, r.Profile.ExecutiveCode)
		assert.Empty(t, r.Profile.IMEINo)
		assert.False(t, r.Profile.ValidateIMEI)
		assert.True(t, r.Profile.Active)
		assert.Equal(t, "T01", r.Stock.StockTerritory)
	})
}

func TestReturnLocationSelect(t *testing.T) {
	rl := ReturnLocation{
		ReturnTypeCode: "DMG",
		DropDownData: []LocationOption{
			{LocationCode: "L1", LocationDesc: "Bay 1", WarehouseCode: "W1", WarehouseDesc: "Main"},
		},
	}
	assert.False(t, rl.Select("L9"))
	require.True(t, rl.Select("L1"))
	assert.Equal(t, "Main", rl.WarehouseName)
	assert.Equal(t, "Bay 1", rl.LocationName)
	assert.Equal(t, "W1", rl.WarehouseCode)
}

func TestSelectionCriteriaLevels(t *testing.T) {
	c := DefaultSelectionCriteria()
	assert.Equal(t, SearchStartWith, c.SearchType)
	assert.True(t, c.ActiveOnly)

	c.SetLevel(2, ExecutiveLevel{Code: "RM", Name: "Regional"})
	assert.Equal(t, "RM", c.Executive3)
	assert.Equal(t, "Regional", c.Levels()[2].Name)

	c.ClearLevels()
	assert.Empty(t, c.Executive3)

	c.SearchType = "bogus"
	c.ExecutiveCode = "  E1 "
	c.Normalize()
	assert.Equal(t, SearchStartWith, c.SearchType)
	assert.Equal(t, "E1", c.ExecutiveCode)
}
