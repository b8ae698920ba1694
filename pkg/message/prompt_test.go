package message

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogue struct {
	messages map[int]string
	msgErr   error
	user     string
	userErr  error
	asked    []int
}

func (f *fakeCatalogue) GetMessage(_ context.Context, msgID int) (string, bool, error) {
	f.asked = append(f.asked, msgID)
	if f.msgErr != nil {
		return "", false, f.msgErr
	}
	m, ok := f.messages[msgID]
	return m, ok, nil
}

func (f *fakeCatalogue) GetUserName(context.Context) (string, error) {
	return f.user, f.userErr
}

func TestReplacePlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		params   []string
		expected string
	}{
		{name: "ordered", msg: "Delete &1 from &2?", params: []string{"EX1", "North"}, expected: "Delete EX1 from North?"},
		{name: "trimmed", msg: "&1 saved", params: []string{"  EX1 "}, expected: "EX1 saved"},
		{name: "blank keeps placeholder", msg: "&1 and &2", params: []string{"", "B"}, expected: "&1 and B"},
		{name: "first occurrence only", msg: "&1 &1", params: []string{"x"}, expected: "x &1"},
		{name: "six max", msg: "&6", params: []string{"1", "2", "3", "4", "5", "six", "seven"}, expected: "six"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplacePlaceholders(tt.msg, tt.params...))
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
		ok       int
		cancel   int
	}{
		{name: "yes", input: "yes\n", expected: true, ok: 1},
		{name: "y", input: "Y\n", expected: true, ok: 1},
		{name: "no", input: "n\n", expected: false, cancel: 1},
		{name: "retry then yes", input: "maybe\nyes\n", expected: true, ok: 1},
		{name: "eof", input: "", expected: false, cancel: 1},
		{name: "no newline", input: "yes", expected: true, ok: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var okCalls, cancelCalls int
			cat := &fakeCatalogue{messages: map[int]string{1001: " Save executive &1? "}}
			var out bytes.Buffer
			p := New(cat, &out, strings.NewReader(tt.input), Options{
				OnOK:     func() { okCalls++ },
				OnCancel: func() { cancelCalls++ },
			})

			got, err := p.Confirm(context.Background(), 1001, "EX1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, okCalls)
			assert.Equal(t, tt.cancel, cancelCalls)
			assert.Contains(t, out.String(), "Save executive EX1? [Yes/No]: ")
		})
	}
}

func TestAlertMissingMessage(t *testing.T) {
	tests := []struct {
		name string
		cat  *fakeCatalogue
	}{
		{name: "not in catalogue", cat: &fakeCatalogue{messages: map[int]string{}}},
		{name: "catalogue failure", cat: &fakeCatalogue{msgErr: errors.New("down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			acked := false
			p := New(tt.cat, &out, nil, Options{OnOK: func() { acked = true }})

			require.NoError(t, p.Alert(context.Background(), 42, "x"))
			assert.Equal(t, "Message 42 Does not contain in Message DataBase\n", out.String())
			assert.True(t, acked)
		})
	}
}

func TestShowConfirmCustomCaptions(t *testing.T) {
	var out bytes.Buffer
	p := New(nil, &out, strings.NewReader("discard\n"), Options{})
	got, err := p.ShowConfirm("Unsaved changes", "Keep", "Discard")
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, "Unsaved changes [Keep/Discard]: ", out.String())
}

func TestShowErrors(t *testing.T) {
	when := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	t.Run("plain error", func(t *testing.T) {
		var out bytes.Buffer
		p := New(nil, &out, nil, Options{})
		require.NoError(t, p.Show(context.Background(), errors.New("Error Code: 500\nMessage: boom"), "SOMNT01"))
		assert.Equal(t, "Error Code: 500\nMessage: boom\n", out.String())
	})

	t.Run("simple record", func(t *testing.T) {
		var out bytes.Buffer
		p := New(nil, &out, nil, Options{})
		rec := &ErrorRecord{ErrorType: ErrorTypeSimple, MsgNumber: "5001", Desc: "Duplicate code"}
		require.NoError(t, p.Show(context.Background(), fmt.Errorf("save: %w", rec), "SOMNT01"))
		assert.Equal(t, "5001 : Duplicate code\n", out.String())
	})

	t.Run("detailed record with user", func(t *testing.T) {
		var out bytes.Buffer
		p := New(&fakeCatalogue{user: "jane"}, &out, nil, Options{})
		rec := &ErrorRecord{ErrorType: ErrorTypeDetailed, ErrorLog: "77", ErrorTime: when, MsgNumber: "9", Desc: "Null reference", Routine: "Save"}
		require.NoError(t, p.Show(context.Background(), rec, "SOMNT01"))
		s := out.String()
		assert.Contains(t, s, "Error Message")
		assert.Contains(t, s, ": 2024/03/09   02:05:07 PM")
		assert.Contains(t, s, ": jane")
		assert.Contains(t, s, ": Null reference")
		assert.Contains(t, s, "Error Line Number")
		assert.Empty(t, rec.UserName, "caller's record must not be modified")
	})

	t.Run("detailed record user lookup fails", func(t *testing.T) {
		var out bytes.Buffer
		p := New(&fakeCatalogue{userErr: errors.New("down")}, &out, nil, Options{})
		rec := &ErrorRecord{ErrorType: ErrorTypeDetailed, ErrorTime: when}
		require.NoError(t, p.Show(context.Background(), rec, "SOMNT01"))
		assert.Contains(t, out.String(), ": Unknown")
	})
}
