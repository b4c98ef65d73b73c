package register

import (
	"strconv"
	"strings"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

func sequenceNumber(entry PartyEntry, position int) int {
	n, err := strconv.Atoi(strings.TrimSpace(entry.Sequence))
	if err != nil {
		return position
	}
	return n
}

func applyAddress(p *models.Party, addr Address) {
	p.Address1 = text(addr.Address1)
	p.Address2 = text(addr.Address2)
	p.Address3 = text(addr.Address3)
	p.Address4 = text(addr.Address4)
	p.Address5 = text(addr.Address5)
	p.AddressCountry = text(addr.Country)
}

// ResolveApplicant builds an applicant from one party entry. Applicants are
// always recorded as legal entities: the register gives no reliable way to
// tell a natural person applicant apart.
func ResolveApplicant(store *PartyStore, entry PartyEntry, position int) *models.Party {
	p := models.Party{
		IsLegalEntity:           true,
		IsApplicant:             true,
		CompanyName:             text(entry.Addressbook.Name),
		ApplicantSequenceNumber: sequenceNumber(entry, position),
		Nationality:             entry.Nationality.code(),
		ResidenceCountry:        entry.Residence.code(),
	}
	applyAddress(&p, entry.Addressbook.Address)
	resolved, _ := store.Resolve(p)
	return resolved
}

// ResolveInventor builds an inventor from one party entry. The register
// writes names as "LAST, First"; the split keeps the space after the comma
// in the first name.
func ResolveInventor(store *PartyStore, entry PartyEntry, position int) *models.Party {
	p := models.Party{
		IsInventor:             true,
		InventorSequenceNumber: sequenceNumber(entry, position),
	}
	name := text(entry.Addressbook.Name)
	if last, first, ok := strings.Cut(name, ","); ok {
		p.LastName, p.FirstName = last, first
	} else {
		p.LastName = name
	}
	applyAddress(&p, entry.Addressbook.Address)
	resolved, _ := store.Resolve(p)
	return resolved
}

// ResolveAllApplicants resolves the applicants of the most recent applicant
// section in document order.
func ResolveAllApplicants(store *PartyStore, b *BibliographicData) []*models.Party {
	if b.Parties == nil {
		return []*models.Party{}
	}
	section, ok := b.Parties.Applicants.Latest()
	if !ok {
		return []*models.Party{}
	}
	entries := section.Applicant.Read(Multiplicity)
	out := make([]*models.Party, 0, len(entries))
	for i, entry := range entries {
		out = append(out, ResolveApplicant(store, entry, i+1))
	}
	return out
}

// ResolveAllInventors resolves the inventors of the most recent inventor
// section in document order.
func ResolveAllInventors(store *PartyStore, b *BibliographicData) []*models.Party {
	if b.Parties == nil {
		return []*models.Party{}
	}
	section, ok := b.Parties.Inventors.Latest()
	if !ok {
		return []*models.Party{}
	}
	entries := section.Inventor.Read(Multiplicity)
	out := make([]*models.Party, 0, len(entries))
	for i, entry := range entries {
		out = append(out, ResolveInventor(store, entry, i+1))
	}
	return out
}
