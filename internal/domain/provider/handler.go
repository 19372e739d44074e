package provider

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
	"github.com/Rendang96/MixCore-sub002/internal/platform/editmode"
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
	read.GET("/providers", h.ListProviders)
	read.GET("/providers/:code", h.GetProvider)
	read.GET("/providers/:code/registration", h.GetRegistration)
	read.GET("/provider-lists", h.ListFieldNames)

	write := api.Group("", auth.RequireRole(auth.RoleProviderOps))
	write.PUT("/providers/:code/registration", h.PutRegistration)
	write.POST("/providers/:code/edit", h.OpenEdit)
	write.GET("/providers/:code/edit/:sid", h.GetEdit)
	write.PATCH("/providers/:code/edit/:sid", h.PatchEdit)
	write.POST("/providers/:code/edit/:sid/lists/:field", h.EditList)
	write.POST("/providers/:code/edit/:sid/save", h.SaveEdit)
	write.POST("/providers/:code/edit/:sid/cancel", h.CancelEdit)
}

// EditView is the state of an edit session as returned to the form.
type EditView struct {
	SessionID string          `json:"sessionId"`
	Code      string          `json:"code"`
	State     string          `json:"state"`
	Committed ProviderRecord  `json:"committed"`
	Working   *ProviderRecord `json:"working,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func viewOf(sess *editmode.Session[ProviderRecord]) EditView {
	v := EditView{
		SessionID: sess.ID,
		Code:      sess.RecordID,
		State:     sess.Controller.State().String(),
		Committed: sess.Controller.Committed(),
	}
	if w, ok := sess.Controller.Working(); ok {
		v.Working = &w
	}
	if err := sess.Controller.LastError(); err != nil {
		v.Error = err.Error()
	}
	return v
}

func (h *Handler) ListProviders(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), SearchParams{
		Query:        c.QueryParam("q"),
		Status:       c.QueryParam("status"),
		ProviderType: c.QueryParam("providerType"),
		PanelGroup:   c.QueryParam("panelGroup"),
		State:        c.QueryParam("state"),
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	page, total := pagination.Page(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, pg.Limit, pg.Offset))
}

// GetProvider returns the committed record. With ?edit=true it opens an
// edit session instead, which needs the provider_ops role.
func (h *Handler) GetProvider(c echo.Context) error {
	if edit, _ := strconv.ParseBool(c.QueryParam("edit")); edit {
		return auth.RequireRole(auth.RoleProviderOps)(h.OpenEdit)(c)
	}
	rec, err := h.svc.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListFieldNames(c echo.Context) error {
	return c.JSON(http.StatusOK, ListFields())
}

func (h *Handler) GetRegistration(c echo.Context) error {
	reg, err := h.svc.GetRegistration(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) PutRegistration(c echo.Context) error {
	var raw map[string]any
	if err := decodeBody(c, &raw); err != nil {
		return err
	}
	code := c.Param("code")
	ctx := c.Request().Context()
	if _, err := h.svc.Get(ctx, code); err != nil {
		return apperr.ToHTTP(err)
	}
	reg := DecodeRegistration(raw)
	reg.Code = code
	if err := h.svc.SaveRegistration(ctx, reg); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, reg)
}

func (h *Handler) OpenEdit(c echo.Context) error {
	sess, err := h.svc.OpenEdit(c.Request().Context(), c.Param("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, viewOf(sess))
}

func (h *Handler) GetEdit(c echo.Context) error {
	sess, err := h.svc.Session(c.Param("code"), c.Param("sid"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, viewOf(sess))
}

func (h *Handler) PatchEdit(c echo.Context) error {
	var fields map[string]any
	if err := decodeBody(c, &fields); err != nil {
		return err
	}
	if _, err := h.svc.Patch(c.Param("code"), c.Param("sid"), fields); err != nil {
		return apperr.ToHTTP(err)
	}
	return h.GetEdit(c)
}

func (h *Handler) EditList(c echo.Context) error {
	var op ListOp
	if err := c.Bind(&op); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.EditList(c.Param("code"), c.Param("sid"), c.Param("field"), op); err != nil {
		return apperr.ToHTTP(err)
	}
	return h.GetEdit(c)
}

func (h *Handler) SaveEdit(c echo.Context) error {
	rec, err := h.svc.SaveEdit(c.Request().Context(), c.Param("code"), c.Param("sid"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) CancelEdit(c echo.Context) error {
	rec, err := h.svc.CancelEdit(c.Param("code"), c.Param("sid"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// decodeBody reads a JSON object body. echo's Bind would also copy path
// params into a map destination.
func decodeBody(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	return nil
}
