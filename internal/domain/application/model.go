// Package application handles provider onboarding applications. Approving
// an application creates the provider record and its registration entry.
package application

import "time"

const (
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

type Application struct {
	ID                string     `json:"id"`
	ProviderName      string     `json:"providerName"`
	ProviderType      string     `json:"providerType"`
	ProviderCategory  string     `json:"providerCategory"`
	CompanyRegNo      string     `json:"companyRegNo"`
	SSTRegistrationNo string     `json:"sstRegistrationNo"`
	TaxpayerStatus    string     `json:"taxpayerStatus"`
	Email             string     `json:"email"`
	TelNumber         string     `json:"telNumber"`
	Address           string     `json:"address"`
	City              string     `json:"city"`
	State             string     `json:"state"`
	Postcode          string     `json:"postcode"`
	Remarks           string     `json:"remarks"`
	Status            string     `json:"status"`
	ProviderCode      string     `json:"providerCode,omitempty"`
	DecisionNote      string     `json:"decisionNote,omitempty"`
	DecidedBy         string     `json:"decidedBy,omitempty"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	DecidedAt         *time.Time `json:"decidedAt,omitempty"`
}

// Decision is the body of an approve or reject request.
type Decision struct {
	ProviderCode string `json:"providerCode"`
	Note         string `json:"note"`
}
