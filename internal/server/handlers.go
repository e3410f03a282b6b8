// Package server exposes the course fetch core over HTTP for UI frontends.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"coursegrab/internal/cache"
	"coursegrab/internal/core"
	"coursegrab/internal/fetch"
	"coursegrab/internal/orchestrator"
)

// CourseService is the orchestration surface the handlers consume.
type CourseService interface {
	Request(ctx context.Context, query core.Query, opts orchestrator.Options) (*core.FetchResult, error)
	CacheStats() cache.Stats
	ClearCache(category string) int
}

// StatusProber reports remote API reachability.
type StatusProber interface {
	Status(ctx context.Context) fetch.Status
}

// CacheExporter dumps raw cache entries keyed by fingerprint stem.
type CacheExporter interface {
	ExportAll() map[string]json.RawMessage
}

// Handler holds the HTTP handlers
type Handler struct {
	courses  CourseService
	prober   StatusProber
	exporter CacheExporter
}

// NewHandler creates a new handler over the given collaborators
func NewHandler(courses CourseService, prober StatusProber, exporter CacheExporter) *Handler {
	return &Handler{
		courses:  courses,
		prober:   prober,
		exporter: exporter,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Meta handles GET /api/meta, serving the fixed catalog vocabulary so
// frontends can build their controls without hardcoding it.
func (h *Handler) Meta(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"api_version":      core.APIVersion,
		"categories":       core.Categories,
		"sort_options":     core.SortOptions(),
		"default_sort":     core.DefaultSort,
		"default_category": core.CategoryAll,
	})
}

// Status handles GET /api/status
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.prober.Status(c.Request().Context()))
}

// Courses handles GET /api/courses
func (h *Handler) Courses(c echo.Context) error {
	query := core.Query{
		Page:     1,
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
		Search:   c.QueryParam("search"),
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "page must be an integer")
		}
		query.Page = page
	}

	opts := orchestrator.Options{}
	var err error
	if opts.ForceRefresh, err = boolParam(c, "refresh"); err != nil {
		return badRequest(c, "refresh must be a boolean")
	}
	if opts.CacheFirst, err = boolParam(c, "cacheFirst"); err != nil {
		return badRequest(c, "cacheFirst must be a boolean")
	}

	result, err := h.courses.Request(c.Request().Context(), query, opts)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CacheStats handles GET /api/cache/stats
func (h *Handler) CacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.courses.CacheStats())
}

// CacheExport handles GET /api/cache/export
func (h *Handler) CacheExport(c echo.Context) error {
	return c.JSON(http.StatusOK, h.exporter.ExportAll())
}

// CacheClear handles DELETE /api/cache. An optional category query param
// scopes the wipe to one category's entries.
func (h *Handler) CacheClear(c echo.Context) error {
	removed := h.courses.ClearCache(strings.TrimSpace(c.QueryParam("category")))
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"kind":    "invalid_request",
			"message": message,
		},
	})
}

func handleError(c echo.Context, err error) error {
	if errors.Is(err, orchestrator.ErrBusy) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error": map[string]interface{}{
				"kind":    "busy",
				"message": orchestrator.ErrBusy.Error(),
			},
		})
	}

	apiErr := core.AsAPIError(err)
	return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
}
