package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/services"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// successResponse writes {"data": data} with status 200
func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// createdResponse writes {"data": data} with status 201
func (s *Server) createdResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// errorResponse writes the error body and aborts the chain
func (s *Server) errorResponse(c *gin.Context, status int, message string, detail ...string) {
	body := models.ErrorResponse{Error: message}
	if len(detail) > 0 {
		body.Detail = detail[0]
	}
	c.AbortWithStatusJSON(status, body)
}

// statusFor maps service and storage errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ballistics.ErrInvalidInput),
		errors.Is(err, ballistics.ErrZeroUnreachable),
		errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrPasswordInvalid),
		errors.Is(err, db.ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInactiveUser),
		errors.Is(err, services.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrNoSQLUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err with the status statusFor picks. Internal errors are
// logged and their detail withheld unless debug is on.
func (s *Server) handleError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	detail := err.Error()

	switch status {
	case http.StatusInternalServerError:
		logger.Error("%s: %v", message, err)
		if !s.cfg.Debug {
			detail = ""
		}
	case http.StatusServiceUnavailable:
		detail = "MongoDB is not connected; calculation history and profiles are disabled"
	case http.StatusNotFound:
		detail = "Not found."
	}

	s.errorResponse(c, status, message, detail)
}

// page is a resolved page-number pagination request
type page struct {
	number int
	size   int
}

func (p page) offset() int { return (p.number - 1) * p.size }

// parsePage reads ?page=N. An invalid page number aborts with 404.
func (s *Server) parsePage(c *gin.Context) (page, bool) {
	n, ok := shared.ParsePage(c)
	if !ok {
		s.errorResponse(c, http.StatusNotFound, "Invalid page.")
		return page{}, false
	}
	return page{number: n, size: s.cfg.REST.PageSize}, true
}

// paginated writes the page-number envelope. A page past the end aborts with
// 404 unless it is the first page.
func (s *Server) paginated(c *gin.Context, p page, total int64, results interface{}) {
	if p.number > 1 && int64(p.offset()) >= total {
		s.errorResponse(c, http.StatusNotFound, "Invalid page.")
		return
	}

	resp := models.PaginatedResponse{Count: total, Results: results}
	if int64(p.number*p.size) < total {
		next := pageURL(c, p.number+1)
		resp.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(c, p.number-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

// pageURL rebuilds the request URL with a different page number. Page 1 drops
// the parameter.
func pageURL(c *gin.Context, n int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	query := c.Request.URL.Query()
	if n <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(n))
	}

	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: query.Encode()}
	return u.String()
}

func bindError(err error) string {
	return fmt.Sprintf("Invalid request: %v", err)
}
