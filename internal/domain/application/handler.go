package application

import (
	"errors"
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
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleProviderOps))
	read.GET("/applications", h.List)
	read.GET("/applications/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleProviderOps))
	write.POST("/applications", h.Submit)
	write.POST("/applications/:id/approve", h.Approve)
	write.POST("/applications/:id/reject", h.Reject)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("status"), c.QueryParam("q"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	page, total := pagination.Page(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Submit(c echo.Context) error {
	var a Application
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Submit(c.Request().Context(), a)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// bindDecision reads an optional decision body.
func bindDecision(c echo.Context) (Decision, error) {
	var d Decision
	if c.Request().ContentLength == 0 {
		return d, nil
	}
	if err := c.Bind(&d); err != nil && !errors.Is(err, io.EOF) {
		return d, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return d, nil
}

func (h *Handler) Approve(c echo.Context) error {
	d, err := bindDecision(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Approve(c.Request().Context(), c.Param("id"), d)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Reject(c echo.Context) error {
	d, err := bindDecision(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Reject(c.Request().Context(), c.Param("id"), d)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}
