// Package message implements the alert/confirm/error dialog on a terminal.
// Message templates come from the backend catalogue and carry positional
// placeholders &1..&6.
package message

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Default button captions.
const (
	DefaultYes = "Yes"
	DefaultNo  = "No"
	DefaultOK  = "OK"
	// UnknownUser replaces the user name when it cannot be fetched.
	UnknownUser = "Unknown"
	// MaxParams is the number of positional placeholders a template may use.
	MaxParams = 6
)

// ErrorTimeLayout renders ErrorRecord.ErrorTime in the detail block.
const ErrorTimeLayout = "2006/01/02   03:04:05 PM"

// Error record types.
const (
	ErrorTypeDetailed = 1
	ErrorTypeSimple   = 2
)

// ErrorRecord is a structured server error.
type ErrorRecord struct {
	ErrorType     int       `json:"ErrorType"`
	ErrorLog      string    `json:"ErrorLog"`
	ErrorTime     time.Time `json:"ErrorTime"`
	WorkstationID string    `json:"WorkstationId"`
	UserName      string    `json:"UserName"`
	IPAddress     string    `json:"IpAddress"`
	MsgNumber     string    `json:"MsgNumber"`
	Desc          string    `json:"Desc"`
	ErrorSource   string    `json:"ErrorSource"`
	DllName       string    `json:"DllName"`
	Version       string    `json:"Version"`
	Routine       string    `json:"Routine"`
	LineNumber    string    `json:"LineNumber"`
}

func (e *ErrorRecord) Error() string {
	if e.MsgNumber == "" {
		return e.Desc
	}
	return e.MsgNumber + " : " + e.Desc
}

// Catalogue supplies message templates and the current user name.
type Catalogue interface {
	GetMessage(ctx context.Context, msgID int) (string, bool, error)
	GetUserName(ctx context.Context) (string, error)
}

// Options configures a Prompt.
type Options struct {
	// OnOK fires when an alert is acknowledged or a confirmation accepted.
	OnOK func()
	// OnCancel fires when a confirmation is declined.
	OnCancel func()
	Logger   *slog.Logger
}

// Prompt is a dialog bound to an output and an input stream.
type Prompt struct {
	mu      sync.Mutex
	out     io.Writer
	in      *bufio.Reader
	waitAck bool
	cat     Catalogue
	opts    Options
	logger  *slog.Logger
}

// New returns a prompt writing to out and reading answers from in. cat may
// be nil, in which case every template is reported missing. Alerts only wait
// for Enter when in is a terminal.
func New(cat Catalogue, out io.Writer, in io.Reader, opts Options) *Prompt {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Prompt{out: out, cat: cat, opts: opts, logger: logger}
	if in != nil {
		p.in = bufio.NewReader(in)
		if f, ok := in.(*os.File); ok {
			p.waitAck = term.IsTerminal(int(f.Fd()))
		}
	}
	return p
}

// MissingMessage is the text shown when msgID is not in the catalogue.
func MissingMessage(msgID int) string {
	return "Message " + strconv.Itoa(msgID) + " Does not contain in Message DataBase"
}

// ReplacePlaceholders substitutes the first occurrence of &N with the
// trimmed Nth parameter. Blank parameters leave their placeholder alone.
func ReplacePlaceholders(msg string, params ...string) string {
	for i, p := range params {
		if i >= MaxParams {
			break
		}
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		msg = strings.Replace(msg, "&"+strconv.Itoa(i+1), p, 1)
	}
	return msg
}

// Text resolves msgID to display text. A catalogue failure is logged and
// the missing-message text is used.
func (p *Prompt) Text(ctx context.Context, msgID int, params ...string) string {
	msg := MissingMessage(msgID)
	if p.cat == nil {
		return msg
	}
	tmpl, ok, err := p.cat.GetMessage(ctx, msgID)
	if err != nil {
		p.logger.Error("failed to fetch message", "msgID", msgID, "error", err)
		return msg
	}
	if !ok {
		return msg
	}
	return ReplacePlaceholders(strings.TrimSpace(tmpl), params...)
}

// Confirm shows catalogue message msgID with Yes/No buttons.
func (p *Prompt) Confirm(ctx context.Context, msgID int, params ...string) (bool, error) {
	return p.ShowConfirm(p.Text(ctx, msgID, params...), DefaultYes, DefaultNo)
}

// Alert shows catalogue message msgID with an OK button.
func (p *Prompt) Alert(ctx context.Context, msgID int, params ...string) error {
	return p.ShowAlert(p.Text(ctx, msgID, params...), DefaultOK)
}

// ShowConfirm asks a yes/no question. Empty captions default to Yes and No.
// The answer matches a caption case-insensitively or by its first letter;
// end of input declines.
func (p *Prompt) ShowConfirm(text, yes, no string) (bool, error) {
	if yes == "" {
		yes = DefaultYes
	}
	if no == "" {
		no = DefaultNo
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if _, err := fmt.Fprintf(p.out, "%s [%s/%s]: ", text, yes, no); err != nil {
			return false, fmt.Errorf("write prompt: %w", err)
		}
		answer, err := p.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", err)
		}
		switch {
		case matches(answer, yes):
			p.fire(p.opts.OnOK)
			return true, nil
		case matches(answer, no), errors.Is(err, io.EOF):
			p.fire(p.opts.OnCancel)
			return false, nil
		}
	}
}

// ShowAlert prints text with an OK caption and, on a terminal, waits for
// Enter before firing OnOK.
func (p *Prompt) ShowAlert(text, ok string) error {
	if ok == "" {
		ok = DefaultOK
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.waitAck {
		if _, err := fmt.Fprintf(p.out, "%s [%s]", text, ok); err != nil {
			return fmt.Errorf("write alert: %w", err)
		}
		if _, err := p.readLine(); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read acknowledgement: %w", err)
		}
	} else if _, err := fmt.Fprintln(p.out, text); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	p.fire(p.opts.OnOK)
	return nil
}

// Show displays an error. A detailed ErrorRecord gets the full block with
// the current user name; a simple one prints "MsgNumber : Desc"; any other
// error prints its text.
func (p *Prompt) Show(ctx context.Context, err error, taskCode string) error {
	if err == nil {
		return nil
	}
	p.logger.Debug("showing error", "task", taskCode, "error", err)

	var rec *ErrorRecord
	if !errors.As(err, &rec) {
		return p.write(err.Error() + "\n")
	}
	if rec.ErrorType != ErrorTypeDetailed {
		return p.write(rec.MsgNumber + " : " + rec.Desc + "\n")
	}

	detail := *rec
	detail.UserName = UnknownUser
	if p.cat != nil {
		name, nameErr := p.cat.GetUserName(ctx)
		if nameErr != nil {
			p.logger.Error("failed to fetch user name", "error", nameErr)
		} else {
			detail.UserName = name
		}
	}
	return p.write(RenderDetail(&detail))
}

// RenderDetail formats a detailed error block.
func RenderDetail(rec *ErrorRecord) string {
	t := table.NewWriter()
	t.SetTitle("Error Message")
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateColumns = false
	t.AppendRows([]table.Row{
		{"Error Log Number", ": " + rec.ErrorLog},
		{"Error Time", ": " + formatErrorTime(rec.ErrorTime)},
		{"WorkStation", ": " + rec.WorkstationID},
		{"User Name", ": " + rec.UserName},
		{"IP Address", ": " + rec.IPAddress},
		{"Message Number", ": " + rec.MsgNumber},
		{"Error Description", ": " + rec.Desc},
		{"Error Source", ": " + rec.ErrorSource},
		{"DLL Name", ": " + rec.DllName},
		{"Version", ": " + rec.Version},
		{"Routine", ": " + rec.Routine},
		{"Error Line Number", ": " + rec.LineNumber},
	})
	return t.Render() + "\n"
}

func formatErrorTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ErrorTimeLayout)
}

func (p *Prompt) write(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.out, s); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	p.fire(p.opts.OnOK)
	return nil
}

func (p *Prompt) readLine() (string, error) {
	if p.in == nil {
		return "", io.EOF
	}
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line != "" && errors.Is(err, io.EOF) {
		return line, nil
	}
	return line, err
}

func (p *Prompt) fire(fn func()) {
	if fn != nil {
		fn()
	}
}

func matches(answer, caption string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if strings.EqualFold(answer, caption) {
		return true
	}
	return len([]rune(answer)) == 1 && strings.EqualFold(answer, string([]rune(caption)[:1]))
}
