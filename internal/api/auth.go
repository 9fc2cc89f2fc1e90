package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/bulletcalc/internal/models"
)

// register handles POST /api/v1/auth/register
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, bindError(err))
		return
	}

	user, err := s.auth.Register(c.Request.Context(), &req)
	if err != nil {
		s.handleError(c, "Registration failed", err)
		return
	}
	s.createdResponse(c, user)
}

// login handles POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, bindError(err))
		return
	}

	user, session, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.handleError(c, "Login failed", err)
		return
	}

	// Replace any previous session.
	if old := c.GetString(ctxSessionKey); old != "" {
		_ = s.auth.Logout(c.Request.Context(), old)
	}
	if err := s.startSession(c, session.Key); err != nil {
		s.handleError(c, "Login failed", err)
		return
	}
	token := s.issueCSRFToken(c)

	s.successResponse(c, gin.H{"user": user, "csrf_token": token, "expires_at": session.ExpiresAt})
}

// logout handles POST /api/v1/auth/logout
func (s *Server) logout(c *gin.Context) {
	if key := c.GetString(ctxSessionKey); key != "" {
		if err := s.auth.Logout(c.Request.Context(), key); err != nil {
			s.handleError(c, "Logout failed", err)
			return
		}
	}
	s.clearSession(c)
	c.Status(http.StatusNoContent)
}

// me handles GET /api/v1/auth/me
func (s *Server) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		s.errorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	s.successResponse(c, user)
}

// csrf handles GET /api/v1/auth/csrf
func (s *Server) csrf(c *gin.Context) {
	s.successResponse(c, gin.H{"csrf_token": s.issueCSRFToken(c)})
}
