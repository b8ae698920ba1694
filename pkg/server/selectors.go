package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

type createSelectorRequest struct {
	ClassificationType string                     `json:"classificationType" binding:"required"`
	Mode               string                     `json:"mode"`
	ActiveStatus       string                     `json:"activeStatus"`
	Selected           []classification.Selection `json:"selected"`
}

type rowRequest struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Text  string `json:"text"`
}

type pickRequest struct {
	Index int `json:"index"`
}

type sortRequest struct {
	Field string `json:"field" binding:"required"`
}

type pageRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next previous"`
}

type selectorResponse struct {
	ID string `json:"id"`
	classification.View
}

func (s *Server) createSelector(c *gin.Context) {
	if s.opts.Lookup == nil {
		s.abort(c, http.StatusServiceUnavailable, errors.New("classification lookup not configured"))
		return
	}
	var req createSelectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, http.StatusBadRequest, err)
		return
	}
	mode := classification.ModeNone
	if req.Mode != "" {
		var err error
		if mode, err = classification.ParseValidationMode(req.Mode); err != nil {
			s.abort(c, http.StatusBadRequest, err)
			return
		}
	}

	id := uuid.NewString()
	opts := classification.Options{
		ClassificationType: req.ClassificationType,
		TaskCode:           executive.TaskCode,
		ActiveStatus:       req.ActiveStatus,
		Mode:               mode,
		Logger:             s.logger.With("selector", id),
	}
	if s.opts.Sizes != nil {
		opts.PageSizes = s.opts.Sizes
	}
	sel := classification.New(s.opts.Lookup, opts)
	sel.SetSelectedClassifications(req.Selected)
	if err := sel.Load(c.Request.Context()); err != nil {
		s.abort(c, 0, err)
		return
	}
	s.sessions.add(id, sel)
	c.JSON(http.StatusCreated, selectorResponse{ID: id, View: sel.View()})
}

func (s *Server) deleteSelector(c *gin.Context) {
	if !s.sessions.remove(c.Param("id")) {
		s.abort(c, http.StatusNotFound, fmt.Errorf("selector %q not found", c.Param("id")))
		return
	}
	c.Status(http.StatusNoContent)
}

// withSession locks the selector session named by :id around fn and replies
// with the selector's state when fn succeeds.
func (s *Server) withSession(fn func(c *gin.Context, sel *classification.Selector) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		sess, ok := s.sessions.get(id)
		if !ok {
			s.abort(c, http.StatusNotFound, fmt.Errorf("selector %q not found", id))
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.lastUsed = time.Now()

		if err := fn(c, sess.selector); err != nil {
			var bad badRequest
			if errors.As(err, &bad) {
				s.abort(c, http.StatusBadRequest, bad.err)
				return
			}
			s.abort(c, 0, err)
			return
		}
		c.JSON(http.StatusOK, selectorResponse{ID: id, View: sess.selector.View()})
	}
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }

func bindRow(c *gin.Context) (rowRequest, classification.Field, error) {
	var req rowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, 0, badRequest{err}
	}
	field := classification.FieldCode
	if req.Field != "" {
		f, err := classification.ParseField(req.Field)
		if err != nil {
			return req, 0, badRequest{err}
		}
		field = f
	}
	return req, field, nil
}

func (s *Server) selectorState(*gin.Context, *classification.Selector) error { return nil }

func (s *Server) selectorFocus(c *gin.Context, sel *classification.Selector) error {
	req, field, err := bindRow(c)
	if err != nil {
		return err
	}
	return sel.FocusEnter(c.Request.Context(), req.Row, field)
}

func (s *Server) selectorInput(c *gin.Context, sel *classification.Selector) error {
	req, field, err := bindRow(c)
	if err != nil {
		return err
	}
	return sel.Input(c.Request.Context(), req.Row, field, req.Text)
}

func (s *Server) selectorTab(c *gin.Context, sel *classification.Selector) error {
	req, _, err := bindRow(c)
	if err != nil {
		return err
	}
	return sel.TabOut(c.Request.Context(), req.Row)
}

func (s *Server) selectorLeave(c *gin.Context, sel *classification.Selector) error {
	sel.FocusLeaveRegion(c.Request.Context())
	return nil
}

func (s *Server) selectorPick(c *gin.Context, sel *classification.Selector) error {
	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return badRequest{err}
	}
	return sel.Pick(c.Request.Context(), req.Index)
}

func (s *Server) selectorClear(c *gin.Context, sel *classification.Selector) error {
	req, _, err := bindRow(c)
	if err != nil {
		return err
	}
	return sel.ClearRow(c.Request.Context(), req.Row)
}

func (s *Server) selectorPage(c *gin.Context, sel *classification.Selector) error {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return badRequest{err}
	}
	if req.Direction == "next" {
		sel.NextPage()
	} else {
		sel.PreviousPage()
	}
	return nil
}

func (s *Server) selectorSort(c *gin.Context, sel *classification.Selector) error {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return badRequest{err}
	}
	field, err := classification.ParseField(req.Field)
	if err != nil {
		return badRequest{err}
	}
	sel.SortBy(field)
	return nil
}
