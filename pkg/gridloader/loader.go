// Package gridloader tracks server-side paging for a result grid: the load
// size configured for a task, the current page and the row window to request.
package gridloader

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DefaultLoadSize applies before Init or when no sizer is configured.
const DefaultLoadSize = 50

// LoadSizer supplies the per-task load size (see state.Store.LoadSize).
type LoadSizer interface {
	LoadSize(taskCode string) int
}

// PageChange is emitted whenever the current page changes.
type PageChange struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Loader is the paging state of one grid.
type Loader struct {
	sizer      LoadSizer
	taskCode   string
	loadSize   int
	total      int
	current    int
	totalPages int
	listeners  []func(PageChange)
}

// New creates a loader. sizer may be nil.
func New(sizer LoadSizer) *Loader {
	return &Loader{
		sizer:      sizer,
		loadSize:   DefaultLoadSize,
		current:    1,
		totalPages: 1,
	}
}

// OnChange registers a page change listener.
func (l *Loader) OnChange(fn func(PageChange)) {
	l.listeners = append(l.listeners, fn)
}

// Init reads the load size for taskCode and recomputes the page count.
func (l *Loader) Init(taskCode string) {
	l.taskCode = taskCode
	size := DefaultLoadSize
	if l.sizer != nil && taskCode != "" {
		size = l.sizer.LoadSize(taskCode)
	}
	if size <= 0 {
		size = DefaultLoadSize
	}
	l.loadSize = size
	l.recompute()
}

// TaskCode returns the task passed to Init.
func (l *Loader) TaskCode() string { return l.taskCode }

// LoadSize returns the rows fetched per page.
func (l *Loader) LoadSize() int { return l.loadSize }

// SetRowCount records the backend's total row count.
func (l *Loader) SetRowCount(total int) {
	if total < 0 {
		total = 0
	}
	l.total = total
	l.recompute()
}

// RowCount returns the last total passed to SetRowCount.
func (l *Loader) RowCount() int { return l.total }

func (l *Loader) recompute() {
	l.totalPages = (l.total + l.loadSize - 1) / l.loadSize
	if l.totalPages < 1 {
		l.totalPages = 1
	}
	if l.current > l.totalPages {
		l.current = l.totalPages
	}
}

// TotalPages returns the page count (at least 1).
func (l *Loader) TotalPages() int { return l.totalPages }

// CurrentPage returns the 1-based current page.
func (l *Loader) CurrentPage() int { return l.current }

// SetCurrentPage moves to page without notifying listeners. It is used when
// restoring a saved position.
func (l *Loader) SetCurrentPage(page int) {
	l.current = l.clamp(page)
}

// Summary renders "shown / total".
func (l *Loader) Summary() string {
	shown := l.current * l.loadSize
	if shown > l.total {
		shown = l.total
	}
	return fmt.Sprintf("%d / %d", shown, l.total)
}

// RowStart is the first 1-based row of the current page.
func (l *Loader) RowStart() int { return (l.current-1)*l.loadSize + 1 }

// RowEnd is the last 1-based row of the current page.
func (l *Loader) RowEnd() int { return l.RowStart() + l.loadSize - 1 }

func (l *Loader) clamp(page int) int {
	if page > l.totalPages {
		page = l.totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// GoToPage clamps page to 1..TotalPages and notifies listeners when the page
// changes. It reports whether it did.
func (l *Loader) GoToPage(page int) bool {
	page = l.clamp(page)
	if page == l.current {
		return false
	}
	l.current = page
	l.emit()
	return true
}

// First goes to page 1.
func (l *Loader) First() bool { return l.GoToPage(1) }

// Previous goes back one page.
func (l *Loader) Previous() bool { return l.GoToPage(l.current - 1) }

// Next goes forward one page.
func (l *Loader) Next() bool { return l.GoToPage(l.current + 1) }

// Last goes to the final page.
func (l *Loader) Last() bool { return l.GoToPage(l.totalPages) }

// PageInput handles a page number typed by the user. Anything that is not a
// page in range sends the grid to page 1.
func (l *Loader) PageInput(text string) bool {
	page, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || page < 1 || page > l.totalPages {
		slog.Debug("page input out of range, resetting", "input", text, "totalPages", l.totalPages)
		page = 1
	}
	return l.GoToPage(page)
}

func (l *Loader) emit() {
	pc := PageChange{Page: l.current, Start: l.RowStart(), End: l.RowEnd()}
	for _, fn := range l.listeners {
		fn(pc)
	}
}
