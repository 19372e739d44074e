package catalog

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
	"github.com/Rendang96/MixCore-sub002/pkg/pagination"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/catalog", auth.RequireRole(auth.RoleViewer, auth.RoleProviderOps, auth.RolePolicyOps))
	g.GET("/groups", h.ListGroups)
	g.GET("/providers", h.ListProviders)
	g.POST("/selection", h.Toggle)
}

func (h *Handler) ListGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Groups())
}

// ListProviders filters by ?group= and ?q=.
func (h *Handler) ListProviders(c echo.Context) error {
	groupID := c.QueryParam("group")
	if groupID != "" {
		if _, ok := h.catalog.Group(groupID); !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown provider group %q", groupID))
		}
	}
	pg := pagination.FromContext(c)
	page, total := pagination.Page(h.catalog.Filter(groupID, c.QueryParam("q")), pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

// ToggleRequest carries the client's current selection and one toggle.
type ToggleRequest struct {
	Selection      Selection `json:"selection"`
	ToggleGroup    string    `json:"toggleGroup"`
	ToggleProvider string    `json:"toggleProvider"`
}

// Toggle applies the requested toggle and returns the new selection.
func (h *Handler) Toggle(c echo.Context) error {
	var req ToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sel := req.Selection
	if req.ToggleGroup != "" {
		g, ok := h.catalog.Group(req.ToggleGroup)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown provider group %q", req.ToggleGroup))
		}
		sel = sel.ToggleGroup(g)
	}
	if req.ToggleProvider != "" {
		p, ok := h.catalog.Provider(req.ToggleProvider)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown provider %q", req.ToggleProvider))
		}
		sel = sel.ToggleProvider(p)
	}
	return c.JSON(http.StatusOK, sel.clone())
}
