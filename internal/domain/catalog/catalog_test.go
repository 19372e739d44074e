package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
)

var (
	pA = setup.CatalogProvider{Code: "KV001", Name: "Klinik Damai", Type: "clinic", Location: "Cheras"}
	pB = setup.CatalogProvider{Code: "KV002", Name: "Hospital Pantai", Type: "hospital", Location: "Bangsar"}
	pC = setup.CatalogProvider{Code: "NR001", Name: "Klinik Utara", Type: "clinic", Location: "Alor Setar"}
)

func testCatalog() *Catalog {
	return New([]setup.CatalogGroup{
		{ID: "klang-valley", Name: "Klang Valley", Providers: []setup.CatalogProvider{pA, pB}},
		{ID: "northern", Name: "Northern", Providers: []setup.CatalogProvider{pC}},
	})
}

func codes(entries []Entry) []string {
	out := []string{}
	for _, e := range entries {
		out = append(out, e.Code)
	}
	return out
}

func TestFilter(t *testing.T) {
	c := testCatalog()
	tests := []struct {
		name  string
		group string
		query string
		want  string
	}{
		{"everything", "", "", "KV001,KV002,NR001"},
		{"by group", "northern", "", "NR001"},
		{"name ignoring case", "", "KLINIK", "KV001,NR001"},
		{"code", "", "kv002", "KV002"},
		{"location", "", "setar", "NR001"},
		{"group and query", "klang-valley", "klinik", "KV001"},
		{"no match", "", "dental", ""},
		{"unknown group", "east", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(codes(c.Filter(tt.group, tt.query)), ",")
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFilter_ReportsGroup(t *testing.T) {
	got := testCatalog().Search("utara")
	if len(got) != 1 || got[0].GroupID != "northern" {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestSelection_ToggleGroup(t *testing.T) {
	c := testCatalog()
	kv, _ := c.Group("klang-valley")

	var sel Selection
	sel = sel.ToggleGroup(kv)
	if !sel.HasGroup("klang-valley") || len(sel.Providers) != 2 {
		t.Fatalf("expected group members selected, got %+v", sel)
	}

	sel = sel.ToggleGroup(kv)
	if sel.HasGroup("klang-valley") || len(sel.Providers) != 0 {
		t.Errorf("deselecting a group must remove its members, got %+v", sel)
	}
}

func TestSelection_NoDuplicates(t *testing.T) {
	c := testCatalog()
	kv, _ := c.Group("klang-valley")

	sel := Selection{}.ToggleProvider(pA)
	sel = sel.ToggleGroup(kv)
	if len(sel.Providers) != 2 {
		t.Errorf("expected 2 distinct providers, got %+v", sel.Providers)
	}
}

func TestSelection_IndividualPicksOutlastOtherGroups(t *testing.T) {
	c := testCatalog()
	kv, _ := c.Group("klang-valley")
	north, _ := c.Group("northern")

	sel := Selection{}.ToggleProvider(pC)
	sel = sel.ToggleGroup(kv)
	sel = sel.ToggleGroup(kv)
	if !sel.HasProvider("NR001") || len(sel.Providers) != 1 {
		t.Errorf("individual pick from another group should stay, got %+v", sel.Providers)
	}

	sel = sel.ToggleGroup(north)
	sel = sel.ToggleGroup(north)
	if sel.HasProvider("NR001") {
		t.Error("deselecting the group removes members picked individually")
	}
}

func TestSelection_ToggleProvider(t *testing.T) {
	sel := Selection{}.ToggleProvider(pA).ToggleProvider(pB)
	if len(sel.Providers) != 2 {
		t.Fatalf("expected 2, got %d", len(sel.Providers))
	}
	sel = sel.ToggleProvider(pA)
	if sel.HasProvider("KV001") || !sel.HasProvider("KV002") {
		t.Errorf("unexpected selection %+v", sel.Providers)
	}
}

func TestSelection_Immutable(t *testing.T) {
	base := Selection{}.ToggleProvider(pA).ToggleProvider(pB)
	_ = base.ToggleProvider(pA)
	if len(base.Providers) != 2 || base.Providers[0].Code != "KV001" {
		t.Errorf("toggle changed its receiver: %+v", base.Providers)
	}
}

func TestHandler_Toggle(t *testing.T) {
	h := NewHandler(testCatalog())
	e := echo.New()
	body := `{"selection":{"groups":[],"providers":[{"code":"NR001","name":"Klinik Utara"}]},"toggleGroup":"klang-valley"}`
	req := httptest.NewRequest(http.MethodPost, "/catalog/selection", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Toggle(e.NewContext(req, rec)); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	var sel Selection
	json.Unmarshal(rec.Body.Bytes(), &sel)
	if len(sel.Providers) != 3 || !sel.HasGroup("klang-valley") {
		t.Errorf("unexpected selection %+v", sel)
	}
}

func TestHandler_ToggleUnknown(t *testing.T) {
	h := NewHandler(testCatalog())
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/catalog/selection", strings.NewReader(`{"toggleProvider":"ZZZ"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Toggle(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListProviders(t *testing.T) {
	h := NewHandler(testCatalog())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/catalog/providers?group=klang-valley&q=hospital", nil)
	rec := httptest.NewRecorder()
	if err := h.ListProviders(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	var body struct {
		Data  []Entry `json:"data"`
		Total int     `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 1 || body.Data[0].Code != "KV002" || body.Data[0].GroupID != "klang-valley" {
		t.Errorf("unexpected body %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/catalog/providers?group=east", nil)
	err := h.ListProviders(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
