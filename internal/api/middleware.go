package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/AI2HU/bulletcalc/internal/config"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/services"
)

const (
	requestIDHeader = "X-Request-ID"
	csrfHeader      = "X-CSRFToken"
	csrfCookie      = "csrftoken"

	ctxRequestID  = "request_id"
	ctxSession    = "session"
	ctxSessionKey = "session_key"
	ctxUser       = "user"

	sessionKeyValue = "session_key"
)

// middlewareChain returns the configured middleware in order
func (s *Server) middlewareChain() ([]gin.HandlerFunc, error) {
	builders := map[string]func() gin.HandlerFunc{
		config.MiddlewareCORS:         s.corsMiddleware,
		config.MiddlewareSecurity:     securityMiddleware,
		config.MiddlewareSessions:     s.sessionMiddleware,
		config.MiddlewareCommon:       s.commonMiddleware,
		config.MiddlewareCSRF:         s.csrfMiddleware,
		config.MiddlewareAuth:         s.authMiddleware,
		config.MiddlewareClickjacking: clickjackingMiddleware,
	}

	if err := s.cfg.CORS.Validate(); err != nil {
		return nil, err
	}

	chain := make([]gin.HandlerFunc, 0, len(s.cfg.Middleware))
	for _, name := range s.cfg.Middleware {
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown middleware %q", name)
		}
		chain = append(chain, build())
	}
	return chain, nil
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	log := s.log
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	log := s.log
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			zap.Any("error", rec),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
		s.errorResponse(c, http.StatusInternalServerError, "Internal error", "unexpected server error")
	})
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", csrfHeader, requestIDHeader, "X-Requested-With"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: s.cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	// With credentials the origin must be echoed rather than "*".
	switch {
	case s.cfg.CORS.AllowAllOrigins:
		cfg.AllowOriginFunc = func(string) bool { return true }
	case len(s.cfg.CORS.AllowedOrigins) > 0:
		cfg.AllowOrigins = s.cfg.CORS.AllowedOrigins
	default:
		cfg.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(cfg)
}

func securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SecretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionMiddleware loads the signed session cookie. The cookie only carries
// the server-side session key; the auth middleware checks it against SQLite.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.Get(c.Request, s.cfg.Session.CookieName)
		if err != nil {
			// Tampered or stale cookie: carry on with the fresh session.
			s.log.Debug("invalid session cookie", zap.Error(err))
		}
		c.Set(ctxSession, sess)
		if key, ok := sess.Values[sessionKeyValue].(string); ok && key != "" {
			c.Set(ctxSessionKey, key)
		}
		c.Next()
	}
}

// hostAllowed matches host against the allowed-hosts patterns: "*" matches
// everything, ".example.com" matches the domain and its subdomains.
func hostAllowed(host string, allowed []string, debug bool) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if len(allowed) == 0 && debug {
		allowed = []string{"localhost", "127.0.0.1", "[::1]", "::1"}
	}
	for _, pattern := range allowed {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

func (s *Server) commonMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if !hostAllowed(host, s.cfg.AllowedHosts, s.cfg.Debug) {
			s.errorResponse(c, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Invalid HTTP_HOST header: %q", c.Request.Host))
			return
		}
		c.Next()
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// csrfMiddleware enforces the double-submit token on unsafe requests that
// carry a login session. Anonymous requests are exempt.
func (s *Server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if safeMethod(c.Request.Method) || c.GetString(ctxSessionKey) == "" {
			c.Next()
			return
		}

		cookie, err := c.Cookie(csrfCookie)
		header := c.GetHeader(csrfHeader)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			s.errorResponse(c, http.StatusForbidden, "CSRF Failed", "CSRF token missing or incorrect.")
			return
		}
		c.Next()
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ctxSessionKey)
		if key == "" {
			c.Next()
			return
		}

		user, err := s.auth.Authenticate(c.Request.Context(), key)
		switch {
		case err == nil:
			c.Set(ctxUser, user)
		case errors.Is(err, db.ErrNotFound), errors.Is(err, services.ErrSessionExpired), errors.Is(err, services.ErrInactiveUser):
			s.clearSession(c)
		default:
			s.log.Error("failed to resolve session", zap.Error(err))
		}
		c.Next()
	}
}

func clickjackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Next()
	}
}

// currentUser returns the logged-in user, if any
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func currentUserID(c *gin.Context) string {
	if user, ok := currentUser(c); ok {
		return user.ID
	}
	return ""
}

func (s *Server) session(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(ctxSession); ok {
		if sess, ok := v.(*sessions.Session); ok {
			return sess
		}
	}
	sess, _ := s.sessions.New(c.Request, s.cfg.Session.CookieName)
	return sess
}

// startSession stores key in the session cookie
func (s *Server) startSession(c *gin.Context, key string) error {
	sess := s.session(c)
	sess.Values[sessionKeyValue] = key
	sess.Options = s.sessions.Options
	return sess.Save(c.Request, c.Writer)
}

// clearSession expires the session cookie
func (s *Server) clearSession(c *gin.Context) {
	sess := s.session(c)
	delete(sess.Values, sessionKeyValue)
	opts := *s.sessions.Options
	opts.MaxAge = -1
	sess.Options = &opts
	if err := sess.Save(c.Request, c.Writer); err != nil {
		s.log.Warn("failed to clear session cookie", zap.Error(err))
	}
	c.Set(ctxSessionKey, "")
}

// issueCSRFToken sets a fresh csrftoken cookie readable by scripts
func (s *Server) issueCSRFToken(c *gin.Context) string {
	token := hex.EncodeToString(securecookie.GenerateRandomKey(32))
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour) / time.Second),
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
