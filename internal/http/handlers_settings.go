package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetdash/internal/core"
)

// @Summary Get settings
// @Description Returns the settings, creating them with defaults on first access
// @Tags settings
// @Produce json
// @Success 200 {object} Envelope{data=core.Settings}
// @Router /settings [get]
func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.svc.Settings.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, settings)
}

// @Summary Update settings
// @Description Changing the bank balance stamps balanceAsOf with the current time
// @Tags settings
// @Accept json
// @Produce json
// @Param patch body core.SettingsPatch true "Fields to change"
// @Success 200 {object} Envelope{data=core.Settings}
// @Failure 400 {object} Envelope
// @Router /settings [put]
func (s *Server) handleUpdateSettings(c *gin.Context) {
	var patch core.SettingsPatch
	if err := bindJSON(c, &patch); err != nil {
		writeError(c, err)
		return
	}
	settings, err := s.svc.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, settings)
}

// @Summary Budget summary
// @Description Weekly and monthly spend per category, prorated allowance and the reconciled balance projection
// @Tags projections
// @Produce json
// @Param date query string false "As-of date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} Envelope{data=core.Summary}
// @Failure 400 {object} Envelope
// @Router /projections/summary [get]
func (s *Server) handleSummary(c *gin.Context) {
	var q summaryQuery
	if err := bindQuery(c, &q); err != nil {
		writeError(c, err)
		return
	}
	asOf, err := q.asOf(s.now())
	if err != nil {
		writeError(c, err)
		return
	}
	sum, err := s.svc.Projections.Summary(c.Request.Context(), asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, sum)
}

// @Summary Export all data
// @Tags migrate
// @Produce json
// @Success 200 {object} Envelope{data=core.Snapshot}
// @Router /migrate/export [get]
func (s *Server) handleExport(c *gin.Context) {
	snap, err := s.svc.Migration.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=budget-export-"+snap.ExportedAt.Format(time.DateOnly)+".json")
	OK(c, snap)
}

// @Summary Import data
// @Description Records whose id already exists are skipped. Settings are replaced when present.
// @Tags migrate
// @Accept json
// @Produce json
// @Param snapshot body core.Snapshot true "Exported document"
// @Success 200 {object} Envelope{data=core.ImportResult}
// @Failure 400 {object} Envelope
// @Router /migrate/import [post]
func (s *Server) handleImport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var snap core.Snapshot
	if err := bindJSON(c, &snap); err != nil {
		writeError(c, err)
		return
	}
	res, err := s.svc.Migration.Import(c.Request.Context(), snap)
	if err != nil {
		writeError(c, err)
		return
	}
	OK(c, res)
}
