// Package services runs long executive list exports in the background and
// streams their progress.
//
// Usage:
//
//	svc := NewExportService(client, store, nil)
//	ch, handle, err := svc.Run(ctx, req, ExportOptions{GridName: "Executives"})
//	for p := range ch {
//		fmt.Println(p.Phase, p.Page, p.TotalPages)
//	}
//	grid, err := handle.Result()
package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/executive"
	"github.com/greg-hellings/execadmin/pkg/gridloader"
	"github.com/greg-hellings/execadmin/pkg/report"
)

// ProgressPhase is the lifecycle phase of an export.
type ProgressPhase string

const (
	// PhaseQueued is sent once before the first page is requested.
	PhaseQueued ProgressPhase = "queued"
	// PhasePage is sent after each page is received.
	PhasePage ProgressPhase = "page"
	// PhaseComplete is sent when every row has been collected.
	PhaseComplete ProgressPhase = "complete"
	// PhaseError is sent when the export stops on an error.
	PhaseError ProgressPhase = "error"
)

// progressBuffer is the progress channel capacity.
const progressBuffer = 16

// ExportProgress is one status update of a running export.
type ExportProgress struct {
	Phase      ProgressPhase
	Page       int
	TotalPages int
	Rows       int // rows collected so far
	Total      int // backend row count, 0 until the first page arrives
	Error      error
	Timestamp  time.Time
}

// ExportOptions tunes one export run.
type ExportOptions struct {
	// GridName names the resulting grid (and its file).
	GridName string
	// PageSize overrides the task's configured load size.
	PageSize int
	// MaxRows stops the export after this many rows; 0 means all.
	MaxRows int
}

// ResultHandle gives access to the collected grid.
type ResultHandle struct {
	mu   sync.RWMutex
	grid *report.Grid
	rows []executive.Summary
	err  error
	done chan struct{}
}

// Result blocks until the export finishes.
func (h *ResultHandle) Result() (*report.Grid, error) {
	<-h.done
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.grid, h.err
}

// Rows blocks until the export finishes and returns the raw rows.
func (h *ResultHandle) Rows() []executive.Summary {
	<-h.done
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]executive.Summary(nil), h.rows...)
}

// Done returns a channel closed when the export finishes.
func (h *ResultHandle) Done() <-chan struct{} {
	return h.done
}

func (h *ResultHandle) finish(grid *report.Grid, rows []executive.Summary, err error) {
	h.mu.Lock()
	h.grid, h.rows, h.err = grid, rows, err
	h.mu.Unlock()
}

// Searcher is the list query the export pages through.
type Searcher interface {
	GetAllExecutive(ctx context.Context, req backend.SearchRequest) (*backend.SearchResponse, error)
}

// ExportService collects every row of an executive search.
type ExportService interface {
	// Run starts the export. The progress channel is closed when the export
	// ends; callers must drain it or cancel ctx.
	Run(ctx context.Context, req backend.SearchRequest, opts ExportOptions) (<-chan ExportProgress, *ResultHandle, error)
}

type exportService struct {
	searcher Searcher
	sizer    gridloader.LoadSizer
	logger   *slog.Logger
}

// NewExportService builds an ExportService. sizer may be nil.
func NewExportService(searcher Searcher, sizer gridloader.LoadSizer, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportService{searcher: searcher, sizer: sizer, logger: logger}
}

type fixedSize int

func (n fixedSize) LoadSize(string) int { return int(n) }

// Run pages through GetAllExecutive with the grid loader's window until the
// backend's total is reached, an empty page arrives or MaxRows is hit.
func (s *exportService) Run(ctx context.Context, req backend.SearchRequest, opts ExportOptions) (<-chan ExportProgress, *ResultHandle, error) {
	if s.searcher == nil {
		return nil, nil, errors.New("no searcher configured")
	}

	var sizer gridloader.LoadSizer = s.sizer
	if opts.PageSize > 0 {
		sizer = fixedSize(opts.PageSize)
	}
	loader := gridloader.New(sizer)
	loader.Init(executive.TaskCode)

	progressCh := make(chan ExportProgress, progressBuffer)
	handle := &ResultHandle{done: make(chan struct{})}

	send := func(p ExportProgress) bool {
		p.Timestamp = time.Now()
		select {
		case <-ctx.Done():
			return false
		case progressCh <- p:
			return true
		}
	}

	go func() {
		defer close(handle.done)
		defer close(progressCh)

		var rows []executive.Summary
		fail := func(err error) {
			handle.finish(nil, rows, err)
			s.logger.Warn("export failed", "page", loader.CurrentPage(), "rows", len(rows), "error", err)
			send(ExportProgress{Phase: PhaseError, Page: loader.CurrentPage(), TotalPages: loader.TotalPages(),
				Rows: len(rows), Total: loader.RowCount(), Error: err})
		}

		if !send(ExportProgress{Phase: PhaseQueued, Page: 1, TotalPages: loader.TotalPages()}) {
			fail(ctx.Err())
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			pageReq := req
			pageReq.SelectionCriteria.FirstRow = loader.RowStart()
			pageReq.SelectionCriteria.LastRow = loader.RowEnd()
			s.logger.Debug("exporting page", "page", loader.CurrentPage(),
				"firstRow", pageReq.SelectionCriteria.FirstRow, "lastRow", pageReq.SelectionCriteria.LastRow)

			resp, err := s.searcher.GetAllExecutive(ctx, pageReq)
			if err != nil {
				fail(err)
				return
			}
			loader.SetRowCount(resp.TotalCount)
			rows = append(rows, resp.Executives...)
			if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
				rows = rows[:opts.MaxRows]
			}
			if !send(ExportProgress{Phase: PhasePage, Page: loader.CurrentPage(), TotalPages: loader.TotalPages(),
				Rows: len(rows), Total: resp.TotalCount}) {
				fail(ctx.Err())
				return
			}

			done := len(resp.Executives) == 0 ||
				len(rows) >= resp.TotalCount ||
				loader.CurrentPage() >= loader.TotalPages() ||
				(opts.MaxRows > 0 && len(rows) >= opts.MaxRows)
			if done {
				break
			}
			loader.Next()
		}

		grid := report.FromExecutives(opts.GridName, rows)
		handle.finish(grid, rows, nil)
		s.logger.Info("export complete", "rows", len(rows), "pages", loader.CurrentPage())
		send(ExportProgress{Phase: PhaseComplete, Page: loader.CurrentPage(), TotalPages: loader.TotalPages(),
			Rows: len(rows), Total: loader.RowCount()})
	}()

	return progressCh, handle, nil
}
