// Package datetime formats, parses and validates dates in the client's
// configured date pattern.
//
// A pattern is one of 18 orderings of yyyy, mm and dd joined by '/', '.' or
// '-'. The active pattern is read from the settings store on construction.
package datetime

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is used by the date picker when nothing is configured.
const DefaultFormat = "yyyy/mm/dd"

// MinYear is the earliest year accepted by IsValidDateString.
const MinYear = 1753

var (
	// ErrUnknownFormat is returned by SetFormat for an unsupported pattern.
	ErrUnknownFormat = errors.New("unknown date format")
	// ErrInvalidDate is returned when a string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

type part int

const (
	year part = iota
	month
	day
)

// Format describes one supported date pattern.
type Format struct {
	Pattern   string
	Separator string
	order     [3]part
}

var (
	separators = []string{"/", ".", "-"}
	orders     = [][3]part{
		{year, month, day},
		{year, day, month},
		{month, year, day},
		{month, day, year},
		{day, year, month},
		{day, month, year},
	}
	formats     = map[string]Format{}
	formatNames []string
)

func init() {
	names := map[part]string{year: "yyyy", month: "mm", day: "dd"}
	for _, sep := range separators {
		for _, o := range orders {
			pattern := names[o[0]] + sep + names[o[1]] + sep + names[o[2]]
			formats[pattern] = Format{Pattern: pattern, Separator: sep, order: o}
			formatNames = append(formatNames, pattern)
		}
	}
}

// Lookup returns the definition of a pattern.
func Lookup(pattern string) (Format, bool) {
	f, ok := formats[pattern]
	return f, ok
}

// AvailableFormats lists every supported pattern in a stable order.
func AvailableFormats() []string {
	return append([]string(nil), formatNames...)
}

// IsLeapYear reports whether y is a Gregorian leap year.
func IsLeapYear(y int) bool {
	return (y%4 == 0 && y%100 != 0) || y%400 == 0
}

// DaysInMonth returns the number of days in month m (1..12) of year y.
func DaysInMonth(y, m int) int {
	return time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Render writes t's calendar date in the given format.
func (f Format) Render(t time.Time) string {
	vals := map[part]string{
		year:  fmt.Sprintf("%04d", t.Year()),
		month: fmt.Sprintf("%02d", int(t.Month())),
		day:   fmt.Sprintf("%02d", t.Day()),
	}
	return vals[f.order[0]] + f.Separator + vals[f.order[1]] + f.Separator + vals[f.order[2]]
}

// split maps the three separator-delimited fields of s onto year/month/day.
func (f Format) split(s string) (map[part]string, bool) {
	fields := strings.Split(s, f.Separator)
	if len(fields) != 3 {
		return nil, false
	}
	out := make(map[part]string, 3)
	for i, p := range f.order {
		out[p] = fields[i]
	}
	return out, true
}

// Settings is the part of the client settings store the service needs.
type Settings interface {
	ClientDateFormat() string
	SetClientDateFormat(format string) error
}

// Service holds the configured pattern. A nil Settings keeps the pattern
// in memory only.
type Service struct {
	settings Settings
	format   string
	logger   *slog.Logger
}

// NewService reads the configured pattern from settings.
func NewService(settings Settings) *Service {
	s := &Service{settings: settings, logger: slog.Default()}
	if settings != nil {
		s.format = settings.ClientDateFormat()
	}
	return s
}

// Format returns the configured pattern ("" if none).
func (s *Service) Format() string { return s.format }

// SetFormat changes the configured pattern and persists it.
func (s *Service) SetFormat(pattern string) error {
	if _, ok := formats[pattern]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, pattern)
	}
	s.format = pattern
	if s.settings != nil {
		if err := s.settings.SetClientDateFormat(pattern); err != nil {
			return fmt.Errorf("persist date format: %w", err)
		}
	}
	return nil
}

func (s *Service) current() (Format, bool) {
	f, ok := formats[s.format]
	if !ok {
		s.logger.Error("invalid date format in configuration", "format", s.format)
	}
	return f, ok
}

// DisplayDate renders t in the configured pattern, or ISO yyyy-mm-dd when
// the pattern is invalid.
func (s *Service) DisplayDate(t time.Time) string {
	f, ok := s.current()
	if !ok {
		return t.Format(time.DateOnly)
	}
	return f.Render(t)
}

// IsValidDateString reports whether text is a real calendar date in the
// configured pattern.
func (s *Service) IsValidDateString(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	f, ok := s.current()
	if !ok {
		return false
	}
	p, ok := f.split(text)
	if !ok {
		return false
	}
	return validYearMonthDay(p[year], p[month], p[day])
}

func validYearMonthDay(y, m, d string) bool {
	if !allDigits(y, 4, 4) || !allDigits(m, 1, 2) || !allDigits(d, 1, 2) {
		return false
	}
	yn, _ := strconv.Atoi(y)
	mn, _ := strconv.Atoi(m)
	dn, _ := strconv.Atoi(d)
	if yn < MinYear || mn < 1 || mn > 12 {
		return false
	}
	return dn >= 1 && dn <= DaysInMonth(yn, mn)
}

func allDigits(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Parse converts text to a date. Values containing 'T' are read as ISO-8601;
// everything else uses the configured pattern. Out of range fields roll over
// the way time.Date normalizes them. The result is the wall clock value in UTC.
func (s *Service) Parse(text string) (time.Time, error) {
	if strings.Contains(text, "T") {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	f, ok := s.current()
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFormat, s.format)
	}
	p, ok := f.split(text)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	var n [3]int
	for i, key := range []part{year, month, day} {
		v, err := strconv.Atoi(strings.TrimSpace(p[key]))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
		}
		n[i] = v
	}
	return time.Date(n[0], time.Month(n[1]), n[2], 0, 0, 0, 0, time.UTC), nil
}

// ValidateFromTo reports whether both dates parse and from is not after to.
func (s *Service) ValidateFromTo(from, to string) bool {
	f, err := s.Parse(from)
	if err != nil {
		return false
	}
	t, err := s.Parse(to)
	if err != nil {
		return false
	}
	return !f.After(t)
}

// Time12 renders "hh:mm AM" / "hh:mm PM".
func Time12(t time.Time) string {
	return t.Format("03:04 PM")
}

// Time24 renders "HH:mm".
func Time24(t time.Time) string {
	return t.Format("15:04")
}

// FormatPicker renders a picked date for the date picker widget. Unknown
// patterns yield "".
func FormatPicker(pattern string, t time.Time) string {
	f, ok := formats[pattern]
	if !ok {
		return ""
	}
	return f.Render(t)
}

// PickerFormat returns the pattern the date picker uses: the configured one,
// or DefaultFormat when nothing is configured.
func PickerFormat(settings Settings) string {
	if settings != nil {
		if f := settings.ClientDateFormat(); f != "" {
			return f
		}
	}
	return DefaultFormat
}
