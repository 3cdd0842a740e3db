package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	licencedomain "github.com/openwater/returns/internal/licence/domain"
	reconciliationdomain "github.com/openwater/returns/internal/reconciliation/domain"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	"github.com/openwater/returns/pkg/db/pagination"
)

func (s *Server) ListReturnCycles(c *gin.Context) {
	cycles, err := s.returnCycleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"returnCycles": cycles})
}

func (s *Server) ListReturnLogs(c *gin.Context) {
	licenceRef := c.Query("licenceRef")
	if licenceRef == "" {
		AbortWithError(c, newValidationError("licenceRef", "required", "licenceRef is required"))
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, newValidationError("pagination", "invalid_pagination", "invalid pagination parameters"))
		return
	}

	result, err := s.returnLogSvc.ListByLicence(c.Request.Context(), returnlogdomain.ListRequest{
		LicenceRef:  licenceRef,
		IncludeVoid: c.Query("includeVoid") == "true",
		Pagination:  page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type generateReturnLogsRequest struct {
	Date       string `json:"date" binding:"required"`
	Summer     bool   `json:"summer"`
	LicenceRef string `json:"licenceRef"`
}

func (s *Server) GenerateReturnLogs(c *gin.Context) {
	var req generateReturnLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD"))
		return
	}

	result, err := s.returnLogSvc.GenerateForCycle(c.Request.Context(), returnlogdomain.GenerateRequest{
		Date:       date,
		Summer:     req.Summer,
		LicenceRef: req.LicenceRef,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Licence refs contain '/' (e.g. "01/117"), so they travel in bodies
// rather than path segments.
type endLicenceRequest struct {
	LicenceRef string `json:"licenceRef" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
	EndDate    string `json:"endDate" binding:"required"`
}

func (s *Server) EndLicence(c *gin.Context) {
	var req endLicenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	endDate, err := parseDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("endDate", "invalid_date", "endDate must be YYYY-MM-DD"))
		return
	}

	result, err := s.reconciliationSvc.HandleLicenceEnd(c.Request.Context(), reconciliationdomain.LicenceEndRequest{
		LicenceRef: req.LicenceRef,
		Reason:     licencedomain.EndReason(req.Reason),
		EndDate:    endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reconcileLicenceRequest struct {
	LicenceRef string `json:"licenceRef" binding:"required"`
}

func (s *Server) ReconcileLicence(c *gin.Context) {
	var req reconcileLicenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("licenceRef", "required", "licenceRef is required"))
		return
	}

	result, err := s.reconciliationSvc.ReconcileLicence(c.Request.Context(), req.LicenceRef)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(returncycledomain.DateOnly, value, time.UTC)
}
