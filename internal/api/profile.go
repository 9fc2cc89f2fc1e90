package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// listProfiles handles GET /api/v1/profiles
func (s *Server) listProfiles(c *gin.Context) {
	p, ok := s.parsePage(c)
	if !ok {
		return
	}

	filter := shared.ProfileFilter{
		Caliber: c.Query("caliber"),
		Search:  c.Query("search"),
		Limit:   p.size,
		Offset:  p.offset(),
	}
	if mine := shared.ParseBoolFilter(c, "mine"); mine != nil && *mine {
		userID := currentUserID(c)
		if userID == "" {
			s.errorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		filter.UserID = userID
	}

	profiles, total, err := s.profiles.List(c.Request.Context(), filter)
	if err != nil {
		s.handleError(c, "Failed to list profiles", err)
		return
	}

	s.paginated(c, p, total, profiles)
}

// getProfile handles GET /api/v1/profiles/:id
func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, "Profile not found", err)
		return
	}
	s.successResponse(c, profile)
}

// createProfile handles POST /api/v1/profiles
func (s *Server) createProfile(c *gin.Context) {
	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, bindError(err))
		return
	}

	profile, err := s.profiles.Create(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		s.handleError(c, "Failed to create profile", err)
		return
	}
	s.createdResponse(c, profile)
}

// updateProfile handles PUT /api/v1/profiles/:id
func (s *Server) updateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, bindError(err))
		return
	}

	profile, err := s.profiles.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		s.handleError(c, "Failed to update profile", err)
		return
	}
	s.successResponse(c, profile)
}

// deleteProfile handles DELETE /api/v1/profiles/:id
func (s *Server) deleteProfile(c *gin.Context) {
	if err := s.profiles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.handleError(c, "Failed to delete profile", err)
		return
	}
	c.Status(http.StatusNoContent)
}
