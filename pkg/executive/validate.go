package executive

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	codePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	namePattern   = regexp.MustCompile(`^[^&#"';]*$`)
	mobilePattern = regexp.MustCompile(`^[0-9;]+$`)
	amountPattern = regexp.MustCompile(`^[0-9.,]+$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.)|(([a-zA-Z0-9\-]+\.)+))([a-zA-Z]{2,4}|[0-9]{1,3})(\]?)$`)
)

var (
	hundred = decimal.NewFromInt(100)

	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the record's custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "execcode", regexRule(codePattern))
		mustRegister(v, "execname", regexRule(namePattern))
		mustRegister(v, "mobilelist", regexRule(mobilePattern))
		mustRegister(v, "amount", regexRule(amountPattern))
		mustRegister(v, "digits", regexRule(digitsPattern))
		mustRegister(v, "emaillist", func(fl validator.FieldLevel) bool {
			return ValidEmailList(fl.Field().String())
		})
		mustRegister(v, "percentage", func(fl validator.FieldLevel) bool {
			return ValidPercentage(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("executive: register %s: %v", tag, err))
	}
}

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidEmailList reports whether s is a semicolon separated list of
// addresses. A trailing separator is allowed.
func ValidEmailList(s string) bool {
	parts := strings.Split(s, ";")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			if i == len(parts)-1 {
				continue
			}
			return false
		}
		if !emailPattern.MatchString(p) {
			return false
		}
	}
	return true
}

// ValidPercentage reports whether s is empty or a number within 0..100.
func ValidPercentage(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// FieldErrors maps a field path (e.g. "Profile.ExecutiveCode") to the failed rule.
type FieldErrors map[string]string

// Error implements error with a stable field ordering.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

// Has reports whether path has an error.
func (fe FieldErrors) Has(path string) bool {
	_, ok := fe[path]
	return ok
}

// Validate checks the record against the form rules. It returns nil or a
// FieldErrors value.
func (r *Record) Validate() error {
	fe := FieldErrors{}
	err := Validator().Struct(r)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate record: %w", err)
		}
		for _, e := range verrs {
			fe[fieldPath(e.Namespace())] = ruleMessage(e)
		}
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// fieldPath strips the leading "Record." from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "eqfield":
		return "does not match " + e.Param()
	case "alphanum":
		return "may contain letters and digits only"
	case "execcode":
		return "may contain letters, digits, '_' and '-' only"
	case "execname":
		return `may not contain & # " ' or ;`
	case "mobilelist":
		return "must be digits separated by ';'"
	case "emaillist":
		return "must be e-mail addresses separated by ';'"
	case "amount":
		return "must be a number"
	case "digits":
		return "must contain digits only"
	case "percentage":
		return "must be between 0 and 100"
	default:
		return "failed " + e.Tag()
	}
}

// FormatDecimal renders a numeric string with two fixed decimals, the way the
// form displays limits. Thousands separators are ignored. Invalid input is
// returned unchanged.
func FormatDecimal(s string) string {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return s
	}
	return d.StringFixed(2)
}
