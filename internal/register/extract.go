package register

import (
	"fmt"

	A "github.com/IBM/fp-go/v2/array"
	ET "github.com/IBM/fp-go/v2/either"
	F "github.com/IBM/fp-go/v2/function"
	O "github.com/IBM/fp-go/v2/option"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/checksum"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

const (
	kindFirstPublication     = "A1"
	kindFirstPublicationNoSR = "A2"
	kindGrant                = "B1"
	titleLanguage            = "en"
)

// ApplicationNumbers holds the EP number (check-digit formatted) and, for
// applications that entered the EP phase from a PCT filing, the WO number.
type ApplicationNumbers struct {
	EP string
	WO string
}

func country(id DocumentID) models.Jurisdiction {
	return models.Jurisdiction(text(id.Country))
}

func dateOf(id DocumentID) models.Date {
	return models.ParseRegisterDate(text(id.Date))
}

func epApplicationNumber(id DocumentID) ET.Either[error, string] {
	formatted, err := checksum.FormatWithCheckDigit(text(id.DocNumber))
	if err != nil {
		return ET.Left[string](fmt.Errorf("EP application number: %w", err))
	}
	return ET.Right[error](formatted)
}

// ApplicationNumbers reads the application reference. An array lists the EP
// and WO filings side by side; a single object is the EP filing.
func (b *BibliographicData) ApplicationNumbers() (ApplicationNumbers, error) {
	res := Fold(b.ApplicationReference,
		func() ET.Either[error, ApplicationNumbers] {
			return ET.Right[error](ApplicationNumbers{})
		},
		func(ref Reference) ET.Either[error, ApplicationNumbers] {
			return F.Pipe1(
				epApplicationNumber(ref.DocumentID),
				ET.Map[error](func(ep string) ApplicationNumbers {
					return ApplicationNumbers{EP: ep}
				}),
			)
		},
		func(refs []Reference) ET.Either[error, ApplicationNumbers] {
			var numbers ApplicationNumbers
			for _, ref := range refs {
				if country(ref.DocumentID) != models.JurisdictionEP {
					numbers.WO = text(ref.DocumentID.DocNumber)
					continue
				}
				ep, err := ET.UnwrapError(epApplicationNumber(ref.DocumentID))
				if err != nil {
					return ET.Left[ApplicationNumbers](err)
				}
				numbers.EP = ep
			}
			return ET.Right[error](numbers)
		},
	)
	return ET.UnwrapError(res)
}

// FilingDate is the date of the EP filing, Unknown when the register does
// not report one.
func (b *BibliographicData) FilingDate() models.Date {
	return Fold(b.ApplicationReference,
		models.UnknownDate,
		func(ref Reference) models.Date {
			return dateOf(ref.DocumentID)
		},
		func(refs []Reference) models.Date {
			for _, ref := range refs {
				if country(ref.DocumentID) != models.JurisdictionEP {
					continue
				}
				if d := dateOf(ref.DocumentID); O.IsSome(d) {
					return d
				}
			}
			return models.UnknownDate()
		},
	)
}

func isFirstPublication(id DocumentID) bool {
	kind := text(id.Kind)
	return kind == kindFirstPublication || kind == kindFirstPublicationNoSR
}

// Publications returns the first publication (kind A1 or A2) per
// jurisdiction. A single publication reference is taken as the EP one.
func (b *BibliographicData) Publications() map[models.Jurisdiction]models.Publication {
	publication := func(id DocumentID) models.Publication {
		return models.Publication{Number: text(id.DocNumber), Date: dateOf(id)}
	}
	return Fold(b.PublicationReference,
		func() map[models.Jurisdiction]models.Publication {
			return map[models.Jurisdiction]models.Publication{}
		},
		func(ref Reference) map[models.Jurisdiction]models.Publication {
			return map[models.Jurisdiction]models.Publication{
				models.JurisdictionEP: publication(ref.DocumentID),
			}
		},
		func(refs []Reference) map[models.Jurisdiction]models.Publication {
			out := map[models.Jurisdiction]models.Publication{}
			for _, ref := range refs {
				c := country(ref.DocumentID)
				if (c == models.JurisdictionEP || c == models.JurisdictionWO) && isFirstPublication(ref.DocumentID) {
					out[c] = publication(ref.DocumentID)
				}
			}
			return out
		},
	)
}

// GrantDate is the date of the B1 publication. A single publication
// reference never carries a grant.
func (b *BibliographicData) GrantDate() models.Date {
	return Fold(b.PublicationReference,
		models.UnknownDate,
		func(Reference) models.Date {
			return models.UnknownDate()
		},
		func(refs []Reference) models.Date {
			for _, ref := range refs {
				if text(ref.DocumentID.Kind) != kindGrant {
					continue
				}
				if d := dateOf(ref.DocumentID); O.IsSome(d) {
					return d
				}
			}
			return models.UnknownDate()
		},
	)
}

func (b *BibliographicData) IsGranted() bool {
	return O.IsSome(b.GrantDate())
}

// DesignatedStates returns the two-letter codes of the most recent
// designation section, in document order.
func (b *BibliographicData) DesignatedStates() ([]string, error) {
	section, ok := b.DesignationOfStates.Latest()
	if !ok {
		return []string{}, nil
	}
	if section.DesignationPCT == nil || section.DesignationPCT.Regional == nil {
		return nil, ErrUnsupportedDesignation
	}
	return F.Pipe1(
		section.DesignationPCT.Regional.Country.Read(Multiplicity),
		A.Map(func(t Text) string { return t.Value }),
	), nil
}

// Priorities returns the claims of the most recent priority section in
// document order.
func (b *BibliographicData) Priorities() []models.Priority {
	section, ok := b.PriorityClaims.Latest()
	if !ok {
		return []models.Priority{}
	}
	priorities := []models.Priority{}
	for _, claim := range section.PriorityClaim.Read(Multiplicity) {
		priorities = append(priorities, models.Priority{
			Country: text(claim.Country),
			Date:    models.ParseRegisterDate(text(claim.Date)),
			Number:  text(claim.DocNumber),
		})
	}
	return priorities
}

func (b *BibliographicData) Title() (string, error) {
	for _, title := range b.InventionTitle.Read(Multiplicity) {
		if title.Lang == titleLanguage {
			return title.Value, nil
		}
	}
	return "", ErrNoEnglishTitle
}
