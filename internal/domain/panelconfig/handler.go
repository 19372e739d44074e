package panelconfig

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
	"github.com/Rendang96/MixCore-sub002/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleProviderOps, auth.RolePolicyOps))
	read.GET("/provider-configs", h.List)
	read.GET("/provider-configs/:id", h.Get)
	read.GET("/provider-configs/:id/display", h.Display)

	write := api.Group("", auth.RequireRole(auth.RolePolicyOps))
	write.POST("/provider-configs", h.Create)
	write.PUT("/provider-configs/:id", h.Update)
	write.POST("/provider-configs/:id/service-types", h.ToggleServiceType)
	write.DELETE("/provider-configs/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	all, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if company := c.QueryParam("companyCode"); company != "" {
		filtered := make([]ProviderConfig, 0, len(all))
		for _, cfg := range all {
			if cfg.CompanyCode == company {
				filtered = append(filtered, cfg)
			}
		}
		all = filtered
	}
	page, total := pagination.Page(all, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	cfg, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Create(c echo.Context) error {
	var cfg ProviderConfig
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), cfg)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update applies the body as a partial update; omitted fields are kept.
func (h *Handler) Update(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, err := h.svc.Update(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// ServiceTypeToggle is the body of a service-type checkbox click.
type ServiceTypeToggle struct {
	ServiceType string `json:"serviceType"`
}

func (h *Handler) ToggleServiceType(c echo.Context) error {
	var req ServiceTypeToggle
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, err := h.svc.ToggleServiceType(c.Request().Context(), c.Param("id"), req.ServiceType)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Display(c echo.Context) error {
	d, err := h.svc.Display(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}
