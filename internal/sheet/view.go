package sheet

import (
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

// DateLayout is the dd/mm/yyyy format of every date the sheets carry.
const DateLayout = "02/01/2006"

// View is a patent with its dates rendered, ready for JSON or YAML output.
type View struct {
	Ref                 string          `json:"ref,omitempty" yaml:"ref,omitempty"`
	Title               string          `json:"title" yaml:"title"`
	EPApplicationNumber string          `json:"ep_application_number" yaml:"ep_application_number"`
	WOApplicationNumber string          `json:"wo_application_number,omitempty" yaml:"wo_application_number,omitempty"`
	FilingDate          string          `json:"filing_date" yaml:"filing_date"`
	EPPublicationNumber string          `json:"ep_publication_number" yaml:"ep_publication_number"`
	EPPublicationDate   string          `json:"ep_publication_date" yaml:"ep_publication_date"`
	WOPublicationNumber string          `json:"wo_publication_number,omitempty" yaml:"wo_publication_number,omitempty"`
	WOPublicationDate   string          `json:"wo_publication_date,omitempty" yaml:"wo_publication_date,omitempty"`
	Granted             bool            `json:"granted" yaml:"granted"`
	GrantDate           string          `json:"grant_date,omitempty" yaml:"grant_date,omitempty"`
	Priorities          []PriorityView  `json:"priorities" yaml:"priorities"`
	DesignatedStates    []string        `json:"designated_states" yaml:"designated_states"`
	Applicants          []*models.Party `json:"applicants" yaml:"applicants"`
	Inventors           []*models.Party `json:"inventors" yaml:"inventors"`
}

type PriorityView struct {
	Country string `json:"country" yaml:"country"`
	Date    string `json:"date" yaml:"date"`
	Number  string `json:"number" yaml:"number"`
}

func formatDate(d models.Date) string {
	return models.FormatDate(d, DateLayout)
}

func ViewOf(p models.Patent) View {
	priorities := make([]PriorityView, 0, len(p.Priorities))
	for _, pr := range p.Priorities {
		priorities = append(priorities, PriorityView{
			Country: pr.Country,
			Date:    formatDate(pr.Date),
			Number:  pr.Number,
		})
	}
	states := p.DesignatedStates
	if states == nil {
		states = []string{}
	}
	applicants, inventors := p.Applicants, p.Inventors
	if applicants == nil {
		applicants = []*models.Party{}
	}
	if inventors == nil {
		inventors = []*models.Party{}
	}
	return View{
		Ref:                 p.Ref,
		Title:               p.Title,
		EPApplicationNumber: p.EPApplicationNumber,
		WOApplicationNumber: p.WOApplicationNumber,
		FilingDate:          formatDate(p.FilingDate),
		EPPublicationNumber: p.EPPublication.Number,
		EPPublicationDate:   formatDate(p.EPPublication.Date),
		WOPublicationNumber: p.WOPublication.Number,
		WOPublicationDate:   formatDate(p.WOPublication.Date),
		Granted:             p.Granted,
		GrantDate:           formatDate(p.GrantDate),
		Priorities:          priorities,
		DesignatedStates:    states,
		Applicants:          applicants,
		Inventors:           inventors,
	}
}
