package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cors "github.com/rs/cors/wrapper/gin"

	"anybridge/internal/anytype"
	"anybridge/pkg/apierr"
	"anybridge/pkg/logging"
)

const requestIDHeader = "X-Request-Id"

// requestID assigns each request an id, honoring one supplied by the
// caller, and echoes it on the response.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) corsOptions() cors.Options {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
	}
}

// rateLimit limits requests per second per client address.
func (s *Server) rateLimit(max float64) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(max, nil)
	lmt.SetIPLookup(limiter.IPLookup{
		Name:           "RemoteAddr",
		IndexFromRight: 0,
	})

	return func(c *gin.Context) {
		httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request)
		if httpError != nil {
			c.AbortWithStatusJSON(httpError.StatusCode, apierr.ToAPIError(httpError.Message))
			return
		}
		c.Next()
	}
}

// paginate clamps limit/offset query parameters and stores them on the
// context for handlers.
func (s *Server) paginate() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := anytype.DefaultPageSize
		if v := c.Query("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1 {
				c.AbortWithStatusJSON(http.StatusBadRequest, apierr.ToAPIError("limit must be a positive integer"))
				return
			}
			limit = parsed
		}
		if limit > anytype.MaxPageSize {
			limit = anytype.MaxPageSize
		}

		offset := 0
		if v := c.Query("offset"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, apierr.ToAPIError("offset must be a non-negative integer"))
				return
			}
			offset = parsed
		}

		c.Set("limit", limit)
		c.Set("offset", offset)
		c.Next()
	}
}

// ensureAuthenticated requires a bearer token and validates it against
// the upstream API on first sight. Validated tokens are remembered for
// the lifetime of the process.
func (s *Server) ensureAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.ToAPIError("missing Authorization header"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.ToAPIError("invalid Authorization header format"))
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		s.mu.Lock()
		_, known := s.validTokens[token]
		s.mu.Unlock()

		if !known {
			ok, err := s.client.ValidateToken(c.Request.Context(), token)
			if err != nil {
				logging.Error("REST", err, "token validation failed")
				respondError(c, err)
				c.Abort()
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.ToAPIError("invalid token"))
				return
			}
			s.mu.Lock()
			s.validTokens[token] = struct{}{}
			s.mu.Unlock()
		}

		c.Set("token", token)
		c.Next()
	}
}
