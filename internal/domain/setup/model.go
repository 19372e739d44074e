// Package setup serves the read-only option lists the forms bind to and
// the product lookup used to cross-check policy product codes.
package setup

// Option is one entry of a dropdown list.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Product struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CatalogProvider is a provider as listed in the selection catalog.
type CatalogProvider struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

type CatalogGroup struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Providers []CatalogProvider `json:"providers"`
}

// Data is the whole setup fixture.
type Data struct {
	PanelGroups        []Option       `json:"panelGroups"`
	Languages          []Option       `json:"languages"`
	ProviderTypes      []Option       `json:"providerTypes"`
	ProviderCategories []Option       `json:"providerCategories"`
	ProviderStatuses   []Option       `json:"providerStatuses"`
	Banks              []Option       `json:"banks"`
	PaymentMethods     []Option       `json:"paymentMethods"`
	Products           []Product      `json:"products"`
	CatalogGroups      []CatalogGroup `json:"catalogGroups"`
}

// Option list names accepted by Service.List.
const (
	ListPanelGroups        = "panel-groups"
	ListLanguages          = "languages"
	ListProviderTypes      = "provider-types"
	ListProviderCategories = "provider-categories"
	ListProviderStatuses   = "provider-statuses"
	ListBanks              = "banks"
	ListPaymentMethods     = "payment-methods"
)
