package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"fgdefs/internal/engine"
	"fgdefs/internal/models"
)

const defaultGroupPageSize = 100

// ArrowStreamMIME is the media type of /api/export responses.
const ArrowStreamMIME = "application/vnd.apache.arrow.stream"

// Handler serves the read-only query API over the lifecycle's definitions.
// Data routes answer 503 until the load has completed.
type Handler struct {
	lc *engine.Lifecycle
}

func NewHandler(lc *engine.Lifecycle) *Handler {
	return &Handler{lc: lc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.GetHealth)

	api := e.Group("/api")
	api.GET("/groups", h.GetGroups)
	api.GET("/groups/:ordinal", h.GetGroup)
	api.GET("/traits", h.GetTraitNames)
	api.GET("/traits/:trait", h.GetTraitValues)
	api.GET("/traits/:trait/values/:value", h.GetGroupsMatchingTrait)
	api.GET("/properties", h.GetPropertyNames)
	api.GET("/properties/:property/:ordinal", h.GetPropertyValue)
	api.GET("/summary", h.GetSummary)
	api.GET("/export", h.GetExport)
	api.POST("/cohorts/resolve", h.ResolveCohort)
}

// --- HELPERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) definitions() (*engine.Definitions, error) {
	defs, err := h.lc.Definitions()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "definitions "+h.lc.State().String()).SetInternal(err)
	}
	return defs, nil
}

// keyParam reads a trait, property or value path segment. Stored keys are
// lowercase, so the lookup is made case-insensitive here. echo routes on
// RawPath when the request has one, leaving its segments escaped.
func keyParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if c.Request().URL.RawPath != "" {
		if v, err := url.PathUnescape(raw); err == nil {
			raw = v
		}
	}
	return strings.ToLower(raw)
}

func ordinalParam(c echo.Context) (int, error) {
	ordinal, err := strconv.Atoi(c.Param("ordinal"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "ordinal must be an integer").SetInternal(err)
	}
	return ordinal, nil
}

func queryError(err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownKey), errors.Is(err, engine.ErrIndexOutOfRange):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	default:
		return err
	}
}

// --- HANDLERS ---
func (h *Handler) GetHealth(c echo.Context) error {
	health := models.Health{State: h.lc.State().String()}
	if err := h.lc.Err(); err != nil {
		health.Error = err.Error()
	}
	if h.lc.State() != engine.StateLoaded {
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

func (h *Handler) GetGroups(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	total := defs.EntityCount()
	limit, offset := getPaginationParams(c, defaultGroupPageSize)

	page := models.Page[models.GroupView]{Data: []models.GroupView{}, Total: total, Limit: limit, Offset: offset}
	end := offset + limit
	if end > total {
		end = total
	}
	for g := offset; g < end; g++ {
		view, err := defs.Group(g)
		if err != nil {
			return err
		}
		page.Data = append(page.Data, view)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetGroup(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}
	view, err := defs.Group(ordinal)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetTraitNames(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, defs.TraitNames())
}

func (h *Handler) GetTraitValues(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	values, err := defs.TraitValues(keyParam(c, "trait"))
	if err != nil {
		return queryError(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) GetGroupsMatchingTrait(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	trait, value := keyParam(c, "trait"), keyParam(c, "value")
	ordinals, err := defs.GroupsMatchingTrait(trait, value)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(http.StatusOK, models.TraitMatch{Trait: trait, Value: value, Ordinals: ordinals})
}

func (h *Handler) GetPropertyNames(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, defs.PropertyNames())
}

func (h *Handler) GetPropertyValue(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}
	property := keyParam(c, "property")
	v, err := defs.PropertyValue(ordinal, property)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(http.StatusOK, models.PropertyValue{Property: property, Ordinal: ordinal, Value: v})
}

func (h *Handler) GetSummary(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, defs.Aggregate())
}

// GetExport streams the whole table as an arrow IPC stream.
func (h *Handler) GetExport(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, ArrowStreamMIME)
	c.Response().WriteHeader(http.StatusOK)
	return defs.WriteIPC(c.Response(), nil)
}

// ResolveCohort returns the functional group a cohort belongs to.
func (h *Handler) ResolveCohort(c echo.Context) error {
	defs, err := h.definitions()
	if err != nil {
		return err
	}
	var cohort models.Cohort
	if err := c.Bind(&cohort); err != nil {
		return err
	}
	view, err := defs.Group(int(cohort.FunctionalGroupIndex))
	if err != nil {
		return queryError(err)
	}
	return c.JSON(http.StatusOK, models.ResolvedCohort{Cohort: cohort, Group: view})
}
