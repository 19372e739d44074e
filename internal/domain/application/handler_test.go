package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHandler_SubmitAndApprove(t *testing.T) {
	s, _ := newTestServices(t)
	h := NewHandler(s)
	e := echo.New()

	body := `{"providerName":"Klinik Harmoni","companyRegNo":"2020010001","email":"hello@harmoni.my","sstRegistrationNo":"SST-1"}`
	req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var a Application
	json.Unmarshal(rec.Body.Bytes(), &a)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Status != StatusApproved || a.ProviderCode == "" {
		t.Errorf("unexpected result %+v", a)
	}
}

func TestHandler_SubmitInvalid(t *testing.T) {
	s, _ := newTestServices(t)
	h := NewHandler(s)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(`{"providerName":"X"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Submit(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %v", err)
	}
}

func TestHandler_RejectWithNote(t *testing.T) {
	s, _ := newTestServices(t)
	h := NewHandler(s)
	e := echo.New()
	a, _ := s.Submit(context.Background(), validApplication())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"duplicate"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)
	if err := h.Reject(c); err != nil {
		t.Fatalf("reject: %v", err)
	}
	var got Application
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusRejected || got.DecisionNote != "duplicate" {
		t.Errorf("unexpected result %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if he, ok := h.Get(c).(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Error("expected 404 for a missing application")
	}
}
