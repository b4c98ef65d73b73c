package models

import (
	"strings"
	"time"

	O "github.com/IBM/fp-go/v2/option"
)

// RegisterDateLayout is the wire format of every date in a register document.
const RegisterDateLayout = "20060102"

// Date is a calendar date that may be unknown.
type Date = O.Option[time.Time]

func KnownDate(t time.Time) Date {
	return O.Some(t)
}

func UnknownDate() Date {
	return O.None[time.Time]()
}

// ParseRegisterDate parses a YYYYMMDD value. Empty or malformed input is Unknown.
func ParseRegisterDate(raw string) Date {
	return O.TryCatch(func() (time.Time, error) {
		return time.Parse(RegisterDateLayout, strings.TrimSpace(raw))
	})
}

// FormatDate renders d with layout, or "" when the date is unknown.
func FormatDate(d Date, layout string) string {
	return O.MonadGetOrElse(
		O.Map(func(t time.Time) string { return t.Format(layout) })(d),
		func() string { return "" },
	)
}

// Party is one applicant or inventor. ID is synthetic and only used to let
// structurally identical parties share an identity across patents.
type Party struct {
	ID                      string `json:"id" yaml:"id"`
	IsLegalEntity           bool   `json:"is_legal_entity" yaml:"is_legal_entity"`
	IsApplicant             bool   `json:"is_applicant" yaml:"is_applicant"`
	IsInventor              bool   `json:"is_inventor" yaml:"is_inventor"`
	CompanyName             string `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	ApplicantSequenceNumber int    `json:"applicant_sequence_number,omitempty" yaml:"applicant_sequence_number,omitempty"`
	InventorSequenceNumber  int    `json:"inventor_sequence_number,omitempty" yaml:"inventor_sequence_number,omitempty"`
	FirstName               string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName                string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Address1                string `json:"address_1,omitempty" yaml:"address_1,omitempty"`
	Address2                string `json:"address_2,omitempty" yaml:"address_2,omitempty"`
	Address3                string `json:"address_3,omitempty" yaml:"address_3,omitempty"`
	Address4                string `json:"address_4,omitempty" yaml:"address_4,omitempty"`
	Address5                string `json:"address_5,omitempty" yaml:"address_5,omitempty"`
	AddressCountry          string `json:"address_country,omitempty" yaml:"address_country,omitempty"`
	Nationality             string `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	ResidenceCountry        string `json:"residence_country,omitempty" yaml:"residence_country,omitempty"`
}

// Key is the party with its ID cleared; equal keys mean the same real-world party.
func (p Party) Key() Party {
	p.ID = ""
	return p
}

// SameAs compares every field except ID.
func (p Party) SameAs(other Party) bool {
	return p.Key() == other.Key()
}

// DisplayName is the company name for legal entities and "Last, First" otherwise.
func (p Party) DisplayName() string {
	if p.IsLegalEntity {
		return p.CompanyName
	}
	return p.LastName + "," + p.FirstName
}

type Priority struct {
	Country string
	Date    Date
	Number  string
}

type Jurisdiction string

const (
	JurisdictionEP Jurisdiction = "EP"
	JurisdictionWO Jurisdiction = "WO"
)

type Publication struct {
	Number string
	Date   Date
}

// Patent is the result of one register lookup.
type Patent struct {
	Ref                 string
	Title               string
	EPApplicationNumber string
	WOApplicationNumber string
	FilingDate          Date
	EPPublication       Publication
	WOPublication       Publication
	Granted             bool
	GrantDate           Date
	Priorities          []Priority
	DesignatedStates    []string
	Applicants          []*Party
	Inventors           []*Party
}

// InvalidNumberTitle prefixes the title of the sentinel patent returned when
// the register rejects a number.
const InvalidNumberTitle = "not a valid number: "

// InvalidNumberPatent is the sentinel for a number the register did not recognise.
func InvalidNumberPatent(number string) Patent {
	return Patent{Title: InvalidNumberTitle + number}
}

func (p Patent) IsInvalidNumber() bool {
	return p.EPApplicationNumber == "" && strings.HasPrefix(p.Title, InvalidNumberTitle)
}

// HasWO reports whether the application entered the EP phase from a PCT filing.
func (p Patent) HasWO() bool {
	return p.WOApplicationNumber != ""
}
