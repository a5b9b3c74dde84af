// Package rest is the HTTP front door: a gin router exposing the
// domain client's operations, with bearer-token authentication checked
// against the upstream API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	cors "github.com/rs/cors/wrapper/gin"

	"anybridge/internal/anytype"
	"anybridge/internal/config"
	"anybridge/internal/validate"
	"anybridge/pkg/logging"
)

// Server wires the domain client and type validator into a gin engine.
type Server struct {
	cfg       config.RESTConfig
	client    *anytype.Client
	validator *validate.TypeValidator

	mu sync.Mutex
	// validTokens caches bearer tokens that already passed upstream
	// validation, so repeated requests don't re-validate on every call.
	// Entries live until process restart; a revoked token keeps working
	// here until then, matching the upstream's own session behavior.
	validTokens map[string]struct{}
}

// NewServer creates a REST server.
func NewServer(cfg config.RESTConfig, client *anytype.Client, validator *validate.TypeValidator) *Server {
	return &Server{
		cfg:         cfg,
		client:      client,
		validator:   validator,
		validTokens: make(map[string]struct{}),
	}
}

// NewRouter builds the gin engine with all routes configured.
func (s *Server) NewRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestID())
	router.Use(cors.New(s.corsOptions()))
	if s.cfg.RateLimit > 0 {
		router.Use(s.rateLimit(s.cfg.RateLimit))
	}

	// Auth routes carry no bearer token; they are how one is obtained.
	authGroup := router.Group("/v1/auth")
	{
		authGroup.POST("/challenges", s.createChallenge)
		authGroup.POST("/api_keys", s.createAPIKey)
	}

	v1 := router.Group("/v1")
	v1.Use(s.paginate())
	v1.Use(s.ensureAuthenticated())
	{
		// Space
		v1.GET("/spaces", s.listSpaces)
		v1.POST("/spaces", s.createSpace)
		v1.GET("/spaces/:space_id", s.getSpace)
		v1.GET("/spaces/:space_id/members", s.listMembers)
		v1.GET("/spaces/:space_id/members/:member_id", s.getMember)

		// Object
		v1.GET("/spaces/:space_id/objects", s.listObjects)
		v1.POST("/spaces/:space_id/objects", s.createObject)
		v1.GET("/spaces/:space_id/objects/:object_id", s.getObject)
		v1.DELETE("/spaces/:space_id/objects/:object_id", s.deleteObject)
		v1.POST("/spaces/:space_id/objects/:object_id/export/:format", s.exportObject)

		// Search
		v1.POST("/search", s.globalSearch)
		v1.POST("/spaces/:space_id/search", s.searchObjects)

		// Type and template
		v1.GET("/spaces/:space_id/types", s.listTypes)
		v1.GET("/spaces/:space_id/types/:type_id", s.getType)
		v1.GET("/spaces/:space_id/types/:type_id/templates", s.listTemplates)
		v1.GET("/spaces/:space_id/types/:type_id/templates/:template_id", s.getTemplate)

		// Tag
		v1.GET("/spaces/:space_id/properties/:property_id/tags", s.listTags)
		v1.POST("/spaces/:space_id/properties/:property_id/tags", s.createTag)
		v1.GET("/spaces/:space_id/properties/:property_id/tags/:tag_id", s.getTag)
		v1.PATCH("/spaces/:space_id/properties/:property_id/tags/:tag_id", s.updateTag)
		v1.DELETE("/spaces/:space_id/properties/:property_id/tags/:tag_id", s.deleteTag)

		// List
		v1.GET("/spaces/:space_id/lists/:list_id/views", s.listViews)
		v1.GET("/spaces/:space_id/lists/:list_id/views/:view_id/objects", s.listObjectsInList)
		v1.POST("/spaces/:space_id/lists/:list_id/objects", s.addObjectsToList)
		v1.DELETE("/spaces/:space_id/lists/:list_id/objects/:object_id", s.removeObjectFromList)
	}

	return router
}

// Run serves the router until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.NewRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("REST", "listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("REST", "server stopped")
	return <-errCh
}
