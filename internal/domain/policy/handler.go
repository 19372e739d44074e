package policy

import (
	"fmt"
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
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RolePolicyOps))
	read.GET("/policies", h.List)
	read.GET("/policies/:id", h.Get)
	read.GET("/policies/:id/products", h.Products)
	read.GET("/policies/:id/:doc", h.GetDocument)

	write := api.Group("", auth.RequireRole(auth.RolePolicyOps))
	write.POST("/policies", h.Create)
	write.PUT("/policies/:id", h.Update)
	write.DELETE("/policies/:id", h.Delete)
	write.PUT("/policies/:id/:doc", h.PutDocument)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), SearchParams{
		PolicyNumber: c.QueryParam("policyNumber"),
		PolicyName:   c.QueryParam("policyName"),
		Payor:        c.QueryParam("payor"),
		Status:       c.QueryParam("status"),
		ProductCode:  c.QueryParam("productCode"),
		Query:        c.QueryParam("q"),
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	page, total := pagination.Page(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Create(c echo.Context) error {
	var p PolicyRecord
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Update(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Update(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Products(c echo.Context) error {
	products, err := h.svc.Products(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, products)
}

func unknownDoc(doc string) error {
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown policy document %q", doc))
}

func (h *Handler) GetDocument(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	var (
		v   any
		err error
	)
	switch doc := c.Param("doc"); doc {
	case DocRule:
		v, err = h.svc.Rule(ctx, id)
	case DocServiceType:
		v, err = h.svc.ServiceTypes(ctx, id)
	case DocContact:
		v, err = h.svc.Contact(ctx, id)
	default:
		return unknownDoc(doc)
	}
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) PutDocument(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	var err error
	switch doc := c.Param("doc"); doc {
	case DocRule:
		var r Rule
		if err := c.Bind(&r); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		err = h.svc.SaveRule(ctx, id, r)
	case DocServiceType:
		var st ServiceTypes
		if err := c.Bind(&st); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		err = h.svc.SaveServiceTypes(ctx, id, st)
	case DocContact:
		var ci ContactInfo
		if err := c.Bind(&ci); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		err = h.svc.SaveContact(ctx, id, ci)
	default:
		return unknownDoc(doc)
	}
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return h.GetDocument(c)
}
