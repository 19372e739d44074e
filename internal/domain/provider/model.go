package provider

// Status values of StatusInfo.Status.
const (
	StatusPending    = "pending"
	StatusActive     = "active"
	StatusSuspended  = "suspended"
	StatusTerminated = "terminated"
	StatusInactive   = "inactive"
)

// ProviderRecord is the canonical provider shape. Every value that leaves
// Normalize has all nested groups present, non-nil lists and dropdown
// fields that are either set to a non-empty value or nil.
type ProviderRecord struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Alias string `json:"alias"`

	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`

	TelNumber   string `json:"telNumber"`
	FaxNumber   string `json:"faxNumber"`
	Email       string `json:"email"`
	MobilePhone string `json:"mobilePhone"`
	Whatsapp    string `json:"whatsapp"`
	Website     string `json:"website"`
	Proprietor  string `json:"proprietor"`
	Passport    string `json:"passport"`

	CompanyRegNo   string `json:"companyRegNo"`
	GSTReg         string `json:"gstReg"`
	SSTReg         string `json:"sstReg"`
	TINNo          string `json:"tinNo"`
	TaxpayerStatus string `json:"taxpayerStatus"`

	ProviderType     *string  `json:"providerType,omitempty"`
	ProviderCategory *string  `json:"providerCategory,omitempty"`
	GLIssuance       bool     `json:"glIssuance"`
	ServicesProvided []string `json:"servicesProvided"`

	PMCarePanel  bool    `json:"pmcarePanel"`
	AMEPanel     bool    `json:"amePanel"`
	PerkesoPanel bool    `json:"perkesoPanel"`
	UseMediline  bool    `json:"useMediline"`
	PanelGroup   *string `json:"panelGroup,omitempty"`

	Status               StatusInfo           `json:"status"`
	BankGuarantee        BankGuarantee        `json:"bankGuarantee"`
	Contract             Contract             `json:"contract"`
	OperatingHours       OperatingHours       `json:"operatingHours"`
	PMCareRepresentative PMCareRepresentative `json:"pmcareRepresentative"`
	Radiographer         Radiographer         `json:"radiographer"`
	PaymentDetails       PaymentDetails       `json:"paymentDetails"`

	ConsultationFees        []ConsultationFee `json:"consultationFees"`
	IllnessFees             []IllnessFee      `json:"illnessFees"`
	SelectedFacilities      []Option          `json:"selectedFacilities"`
	DrugList                []Drug            `json:"drugList"`
	Staffing                []Staff           `json:"staffing"`
	Doctors                 []Doctor          `json:"doctors"`
	HealthDoctors           []Doctor          `json:"healthDoctors"`
	SelectedExperiences     []Option          `json:"selectedExperiences"`
	SelectedSpecialists     []Option          `json:"selectedSpecialists"`
	SelectedLanguages       []Option          `json:"selectedLanguages"`
	HealthScreeningPackages []HealthPackage   `json:"healthScreeningPackages"`
	PromotionFiles          []FileRef         `json:"promotionFiles"`
	Documents               []FileRef         `json:"documents"`
	Discounts               []Discount        `json:"discounts"`
}

type StatusInfo struct {
	Status          *string `json:"status,omitempty"`
	EffectiveDate   string  `json:"effectiveDate"`
	SuspensionDate  string  `json:"suspensionDate"`
	TerminationDate string  `json:"terminationDate"`
	CEOApprovalDate string  `json:"ceoApprovalDate"`
}

type BankGuarantee struct {
	BGNo       string `json:"bgNo"`
	BGAmount   string `json:"bgAmount"`
	ExpiryDate string `json:"expiryDate"`
}

type Contract struct {
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	Duration        string  `json:"duration"`
	Renewal         *string `json:"renewal,omitempty"`
	ApplicationDate string  `json:"applicationDate"`
}

type OperatingHours struct {
	Type               *string `json:"type,omitempty"`
	Weekdays           string  `json:"weekdays"`
	Weekends           string  `json:"weekends"`
	ShowAdditionalInfo bool    `json:"showAdditionalInfo"`
	AdditionalInfo     string  `json:"additionalInfo"`
}

type PMCareRepresentative struct {
	NameOfPICDoctor string  `json:"nameOfPICDoctor"`
	PhoneNumber     string  `json:"phoneNumber"`
	PersonInCharge  string  `json:"personInCharge"`
	Designation     *string `json:"designation,omitempty"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email"`
	Status          *string `json:"status,omitempty"`
}

type Radiographer struct {
	Name            string `json:"name"`
	RegNo           string `json:"regNo"`
	FieldValidation string `json:"fieldValidation"`
}

type PaymentDetails struct {
	AccountNo         string  `json:"accountNo"`
	Bank              *string `json:"bank,omitempty"`
	Payee             string  `json:"payee"`
	PaymentMethodCode *string `json:"paymentMethodCode,omitempty"`
}

type ConsultationFee struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Remarks     string `json:"remarks"`
}

type IllnessFee struct {
	Illness string `json:"illness"`
	Amount  string `json:"amount"`
	Remarks string `json:"remarks"`
}

// Option is a selected code/name pair (facilities, languages, specialists).
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Drug struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Price string `json:"price"`
}

type Staff struct {
	Role  string `json:"role"`
	Count string `json:"count"`
}

type Doctor struct {
	Name          string `json:"name"`
	RegNo         string `json:"regNo"`
	Qualification string `json:"qualification"`
	Specialty     string `json:"specialty"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type HealthPackage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
	Price       string `json:"price"`
}

type FileRef struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	UploadedAt string `json:"uploadedAt"`
}

type Discount struct {
	Category      string `json:"category"`
	Percentage    string `json:"percentage"`
	EffectiveDate string `json:"effectiveDate"`
	Remarks       string `json:"remarks"`
}

// StatusValue returns the lifecycle status, or "" when unset.
func (r ProviderRecord) StatusValue() string {
	if r.Status.Status == nil {
		return ""
	}
	return *r.Status.Status
}

// Clone returns a deep copy of r.
func (r ProviderRecord) Clone() ProviderRecord {
	c := r
	c.ProviderType = cloneStr(r.ProviderType)
	c.ProviderCategory = cloneStr(r.ProviderCategory)
	c.PanelGroup = cloneStr(r.PanelGroup)
	c.ServicesProvided = cloneSlice(r.ServicesProvided)

	c.Status.Status = cloneStr(r.Status.Status)
	c.Contract.Renewal = cloneStr(r.Contract.Renewal)
	c.OperatingHours.Type = cloneStr(r.OperatingHours.Type)
	c.PMCareRepresentative.Designation = cloneStr(r.PMCareRepresentative.Designation)
	c.PMCareRepresentative.Status = cloneStr(r.PMCareRepresentative.Status)
	c.PaymentDetails.Bank = cloneStr(r.PaymentDetails.Bank)
	c.PaymentDetails.PaymentMethodCode = cloneStr(r.PaymentDetails.PaymentMethodCode)

	c.ConsultationFees = cloneSlice(r.ConsultationFees)
	c.IllnessFees = cloneSlice(r.IllnessFees)
	c.SelectedFacilities = cloneSlice(r.SelectedFacilities)
	c.DrugList = cloneSlice(r.DrugList)
	c.Staffing = cloneSlice(r.Staffing)
	c.Doctors = cloneSlice(r.Doctors)
	c.HealthDoctors = cloneSlice(r.HealthDoctors)
	c.SelectedExperiences = cloneSlice(r.SelectedExperiences)
	c.SelectedSpecialists = cloneSlice(r.SelectedSpecialists)
	c.SelectedLanguages = cloneSlice(r.SelectedLanguages)
	c.HealthScreeningPackages = cloneSlice(r.HealthScreeningPackages)
	c.PromotionFiles = cloneSlice(r.PromotionFiles)
	c.Documents = cloneSlice(r.Documents)
	c.Discounts = cloneSlice(r.Discounts)
	return c
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneSlice copies a slice of flat values. nil stays nil.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func strPtr(s string) *string { return &s }
