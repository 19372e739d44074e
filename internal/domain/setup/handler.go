package setup

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleProviderOps, auth.RolePolicyOps))
	read.GET("/setup", h.ListNames)
	read.GET("/setup/:list", h.GetList)
	read.GET("/products", h.ListProducts)
}

func (h *Handler) ListNames(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListNames())
}

func (h *Handler) GetList(c echo.Context) error {
	opts, ok := h.svc.List(c.Param("list"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown setup list %q", c.Param("list")))
	}
	return c.JSON(http.StatusOK, opts)
}

// ListProducts returns every product, or the substring matches of ?q=.
func (h *Handler) ListProducts(c echo.Context) error {
	if q := c.QueryParam("q"); q != "" {
		return c.JSON(http.StatusOK, h.svc.SearchProducts(q))
	}
	return c.JSON(http.StatusOK, h.svc.Products())
}
