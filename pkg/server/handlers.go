package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/executive"
	"github.com/greg-hellings/execadmin/pkg/gridloader"
	"github.com/greg-hellings/execadmin/pkg/report"
	"github.com/greg-hellings/execadmin/pkg/report/format"
	"github.com/greg-hellings/execadmin/pkg/services"
)

// searchResult is the body of GET /api/executives.
type searchResult struct {
	Executives []executive.Summary `json:"executives"`
	TotalCount int                 `json:"totalCount"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	Summary    string              `json:"summary"`
}

// searchRequest decodes the list query. Classifications are passed as
// repeated classification=GROUP:VALUE parameters.
func (s *Server) searchRequest(c *gin.Context) (backend.SearchRequest, error) {
	query := c.Request.URL.Query()
	criteria := executive.DefaultSelectionCriteria()
	if err := s.decoder.Decode(&criteria, query); err != nil {
		return backend.SearchRequest{}, fmt.Errorf("invalid query: %w", err)
	}
	criteria.Normalize()

	req := backend.SearchRequest{SelectionCriteria: criteria}
	for _, raw := range query["classification"] {
		group, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(group) == "" {
			return backend.SearchRequest{}, fmt.Errorf("invalid classification %q, want GROUP:VALUE", raw)
		}
		req.SelectedClassifications = append(req.SelectedClassifications, executive.ClassificationParameter{
			ParameterCode:  strings.TrimSpace(group),
			ParameterValue: strings.TrimSpace(value),
		})
	}
	return req, nil
}

func (s *Server) searchExecutives(c *gin.Context) {
	if s.opts.Searcher == nil {
		s.abort(c, http.StatusServiceUnavailable, errors.New("search backend not configured"))
		return
	}
	req, err := s.searchRequest(c)
	if err != nil {
		s.abort(c, http.StatusBadRequest, err)
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			s.abort(c, http.StatusBadRequest, fmt.Errorf("invalid page %q", raw))
			return
		}
	}

	var sizer gridloader.LoadSizer
	if s.opts.Sizes != nil {
		sizer = s.opts.Sizes
	}
	loader := gridloader.New(sizer)
	loader.Init(executive.TaskCode)
	fetch := func(page int) (*backend.SearchResponse, error) {
		req.SelectionCriteria.FirstRow = (page-1)*loader.LoadSize() + 1
		req.SelectionCriteria.LastRow = page * loader.LoadSize()
		return s.opts.Searcher.GetAllExecutive(c.Request.Context(), req)
	}

	resp, err := fetch(page)
	if err != nil {
		s.abort(c, 0, err)
		return
	}
	loader.SetRowCount(resp.TotalCount)
	// A page past the end is clamped to the last page, which is fetched again.
	if last := loader.TotalPages(); resp.TotalCount > 0 && page > last {
		s.logger.Debug("page past the end", "page", page, "last", last)
		page = last
		if resp, err = fetch(page); err != nil {
			s.abort(c, 0, err)
			return
		}
		loader.SetRowCount(resp.TotalCount)
	}
	loader.SetCurrentPage(page)

	rows := resp.Executives
	if rows == nil {
		rows = []executive.Summary{}
	}
	c.JSON(http.StatusOK, searchResult{
		Executives: rows,
		TotalCount: resp.TotalCount,
		Page:       loader.CurrentPage(),
		TotalPages: loader.TotalPages(),
		Summary:    loader.Summary(),
	})
}

func (s *Server) exportExecutives(c *gin.Context) {
	if s.opts.Export == nil {
		s.abort(c, http.StatusServiceUnavailable, errors.New("export not configured"))
		return
	}
	f, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatExcel)))
	if err != nil || f == report.FormatConsole {
		if err == nil {
			err = fmt.Errorf("%w: %q", report.ErrUnknownFormat, f)
		}
		s.abort(c, http.StatusBadRequest, err)
		return
	}
	req, err := s.searchRequest(c)
	if err != nil {
		s.abort(c, http.StatusBadRequest, err)
		return
	}

	ch, handle, err := s.opts.Export.Run(c.Request.Context(), req, services.ExportOptions{
		GridName: c.DefaultQuery("name", "Executives"),
	})
	if err != nil {
		s.abort(c, 0, err)
		return
	}
	for p := range ch {
		s.logger.Debug("export progress", "phase", p.Phase, "page", p.Page, "rows", p.Rows)
	}
	grid, err := handle.Result()
	if err != nil {
		s.abort(c, 0, err)
		return
	}

	var buf bytes.Buffer
	if err := format.Write(&buf, grid, f); err != nil {
		s.abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(grid, f)))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func (s *Server) validateRecord(c *gin.Context) {
	rec := executive.NewRecord()
	if err := c.ShouldBindJSON(&rec); err != nil {
		s.abort(c, http.StatusBadRequest, fmt.Errorf("invalid record: %w", err))
		return
	}
	err := rec.Validate()
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}
	var fe executive.FieldErrors
	if errors.As(err, &fe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "errors": fe})
		return
	}
	s.abort(c, http.StatusInternalServerError, err)
}

func (s *Server) classificationGroups(c *gin.Context) {
	if s.opts.Lookup == nil {
		s.abort(c, http.StatusServiceUnavailable, errors.New("classification lookup not configured"))
		return
	}
	groups, err := s.opts.Lookup.GroupsForType(c.Request.Context(), c.Param("type"))
	if err != nil {
		s.abort(c, 0, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classificationType": c.Param("type"), "groups": groups})
}
