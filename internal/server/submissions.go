package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	submissiondomain "github.com/openwater/returns/internal/submission/domain"
	"github.com/shopspring/decimal"
)

// Return log IDs contain ':' and '/', so they travel in bodies and query
// strings rather than path segments.
type createSubmissionRequest struct {
	ReturnLogID string                      `json:"returnLogId" binding:"required"`
	UserID      string                      `json:"userId" binding:"required"`
	UserType    string                      `json:"userType" binding:"required"`
	NilReturn   bool                        `json:"nilReturn"`
	Notes       string                      `json:"notes"`
	Metadata    submissiondomain.Metadata   `json:"metadata"`
	Lines       []createSubmissionLineInput `json:"lines"`
}

type createSubmissionLineInput struct {
	StartDate  string   `json:"startDate" binding:"required"`
	EndDate    string   `json:"endDate" binding:"required"`
	Quantity   *float64 `json:"quantity"`
	UserUnit   string   `json:"userUnit"`
	TimePeriod string   `json:"timePeriod" binding:"required"`
}

func (s *Server) CreateSubmission(c *gin.Context) {
	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	lines := make([]submissiondomain.LineInput, 0, len(req.Lines))
	for _, input := range req.Lines {
		startDate, err := parseDate(input.StartDate)
		if err != nil {
			AbortWithError(c, newValidationError("lines.startDate", "invalid_date", "startDate must be YYYY-MM-DD"))
			return
		}
		endDate, err := parseDate(input.EndDate)
		if err != nil {
			AbortWithError(c, newValidationError("lines.endDate", "invalid_date", "endDate must be YYYY-MM-DD"))
			return
		}

		var quantity decimal.NullDecimal
		if input.Quantity != nil {
			quantity = decimal.NewNullDecimal(decimal.NewFromFloat(*input.Quantity))
		}

		lines = append(lines, submissiondomain.LineInput{
			StartDate:  startDate,
			EndDate:    endDate,
			Quantity:   quantity,
			UserUnit:   input.UserUnit,
			TimePeriod: input.TimePeriod,
		})
	}

	submission, err := s.submissionSvc.Create(c.Request.Context(), submissiondomain.CreateRequest{
		ReturnLogID: req.ReturnLogID,
		UserID:      req.UserID,
		UserType:    req.UserType,
		NilReturn:   req.NilReturn,
		Notes:       req.Notes,
		Metadata:    req.Metadata,
		Lines:       lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (s *Server) GetCurrentSubmission(c *gin.Context) {
	returnLogID := c.Query("returnLogId")
	if returnLogID == "" {
		AbortWithError(c, newValidationError("returnLogId", "required", "returnLogId is required"))
		return
	}

	if rawVersion := c.Query("version"); rawVersion != "" {
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version < 1 {
			AbortWithError(c, newValidationError("version", "invalid_version", "version must be a positive integer"))
			return
		}
		submission, err := s.submissionSvc.GetByVersion(c.Request.Context(), returnLogID, version)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, submission)
		return
	}

	submission, err := s.submissionSvc.GetCurrent(c.Request.Context(), returnLogID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}
