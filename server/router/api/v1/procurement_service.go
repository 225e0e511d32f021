package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/procura-labs/procura/agent"
	"github.com/procura-labs/procura/agent/pipeline"
	"github.com/procura-labs/procura/store"
)

// runResponse is the audit view of a run returned by the read endpoints.
type runResponse struct {
	TraceID      string             `json:"trace_id"`
	Status       store.RunStatus    `json:"status"`
	RequestText  string             `json:"request_text"`
	Request      *agent.Request     `json:"request,omitempty"`
	Candidates   int                `json:"candidates"`
	Decision     *agent.Decision    `json:"decision,omitempty"`
	Order        *agent.OrderResult `json:"order,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	StageTimings map[string]int64   `json:"stage_timings,omitempty"`
	CreatedTs    int64              `json:"created_ts"`
	UpdatedTs    int64              `json:"updated_ts"`
}

func convertRun(run *store.Run) *runResponse {
	return &runResponse{
		TraceID:      run.TraceID,
		Status:       run.Status,
		RequestText:  run.RequestText,
		Request:      run.Request,
		Candidates:   run.Candidates,
		Decision:     run.Decision,
		Order:        run.Order,
		ErrorMessage: run.ErrorMessage,
		StageTimings: run.StageTimings,
		CreatedTs:    run.CreatedTs,
		UpdatedTs:    run.UpdatedTs,
	}
}

// createProcurement runs the full pipeline for one request. Clarification is
// stateless: when the run needs answers the caller gets the open questions
// back and resubmits the same text with answers filled in.
func (s *APIV1Service) createProcurement(c echo.Context) error {
	if s.Runner == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "procurement pipeline is not configured")
	}

	var input pipeline.Input
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if strings.TrimSpace(input.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	result, err := s.Runner.Run(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *APIV1Service) getProcurement(c echo.Context) error {
	traceID := c.Param("traceId")
	run, err := s.Store.GetRun(c.Request().Context(), traceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get run").SetInternal(err)
	}
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, convertRun(run))
}

func (s *APIV1Service) listProcurements(c echo.Context) error {
	find := &store.FindRun{}
	if status := c.QueryParam("status"); status != "" {
		runStatus := store.RunStatus(status)
		find.Status = &runStatus
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		find.Limit = &limit
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		find.Offset = &offset
	}

	runs, err := s.Store.ListRuns(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list runs").SetInternal(err)
	}

	responses := make([]*runResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, convertRun(run))
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": responses})
}
