package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// calculate handles POST /api/v1/calculate
func (s *Server) calculate(c *gin.Context) {
	var req models.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, bindError(err))
		return
	}

	resp, err := s.calculations.Calculate(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		s.handleError(c, "Calculation failed", err)
		return
	}

	status := http.StatusOK
	if resp.Saved {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": resp})
}

// calculateProfile handles POST /api/v1/profiles/:id/calculate
func (s *Server) calculateProfile(c *gin.Context) {
	var req models.ProfileCalculateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.errorResponse(c, http.StatusBadRequest, bindError(err))
			return
		}
	}

	resp, err := s.calculations.CalculateProfile(c.Request.Context(), c.Param("id"), &req, currentUserID(c))
	if err != nil {
		s.handleError(c, "Calculation failed", err)
		return
	}

	status := http.StatusOK
	if resp.Saved {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": resp})
}

// listCalculations handles GET /api/v1/calculations
func (s *Server) listCalculations(c *gin.Context) {
	p, ok := s.parsePage(c)
	if !ok {
		return
	}

	filter := shared.CalculationFilter{
		ProfileID: c.Query("profile_id"),
		StartTime: shared.ParseTimeFilter(c, "start_time"),
		EndTime:   shared.ParseTimeFilter(c, "end_time"),
		Limit:     p.size,
		Offset:    p.offset(),
	}
	if mine := shared.ParseBoolFilter(c, "mine"); mine != nil && *mine {
		userID := currentUserID(c)
		if userID == "" {
			s.errorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		filter.UserID = userID
	}

	calcs, total, err := s.calculations.List(c.Request.Context(), filter)
	if err != nil {
		s.handleError(c, "Failed to list calculations", err)
		return
	}

	s.paginated(c, p, total, calcs)
}

// getCalculation handles GET /api/v1/calculations/:id
func (s *Server) getCalculation(c *gin.Context) {
	calc, err := s.calculations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, "Calculation not found", err)
		return
	}
	s.successResponse(c, calc)
}

// deleteCalculation handles DELETE /api/v1/calculations/:id
func (s *Server) deleteCalculation(c *gin.Context) {
	if err := s.calculations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.handleError(c, "Failed to delete calculation", err)
		return
	}
	c.Status(http.StatusNoContent)
}
