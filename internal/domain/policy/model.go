// Package policy manages insurance policy records and their independently
// stored rule, service type and contact sub-documents.
package policy

import "time"

type PolicyRecord struct {
	ID            string    `json:"id"`
	PolicyNumber  string    `json:"policyNumber"`
	PolicyName    string    `json:"policyName"`
	FundingType   string    `json:"fundingType"`
	PolicyTerm    string    `json:"policyTerm"`
	EffectiveDate string    `json:"effectiveDate"`
	ExpiryDate    string    `json:"expiryDate"`
	Payor         string    `json:"payor"`
	Status        string    `json:"status"`
	ProductCode   string    `json:"productCode"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sub-document names as used in keys and routes.
const (
	DocRule        = "rule"
	DocServiceType = "serviceType"
	DocContact     = "contact"
)

// Rule holds the benefit limits of a policy.
type Rule struct {
	AnnualLimit       string   `json:"annualLimit"`
	PerVisitLimit     string   `json:"perVisitLimit"`
	CoPayment         string   `json:"coPayment"`
	Deductible        string   `json:"deductible"`
	WaitingPeriodDays string   `json:"waitingPeriodDays"`
	PanelOnly         bool     `json:"panelOnly"`
	Exclusions        []string `json:"exclusions"`
	Remarks           string   `json:"remarks"`
}

type ServiceTypeEntry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Limit   string `json:"limit"`
	Enabled bool   `json:"enabled"`
}

// ServiceTypes lists the services a policy covers.
type ServiceTypes struct {
	Entries []ServiceTypeEntry `json:"entries"`
}

type Contact struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// ContactInfo is the payor's contact sheet for a policy.
type ContactInfo struct {
	Contacts []Contact `json:"contacts"`
	Address  string    `json:"address"`
	Remarks  string    `json:"remarks"`
}
