package register

import (
	"testing"
	"time"

	O "github.com/IBM/fp-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/checksum"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

func date(y int, m time.Month, d int) models.Date {
	return models.KnownDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestApplicationNumbers_PCTBased(t *testing.T) {
	biblio := loadBiblio(t, "EP18752141.json")
	numbers, err := biblio.ApplicationNumbers()
	require.NoError(t, err)
	assert.Equal(t, "18752141.4", numbers.EP)
	assert.Equal(t, "2018EP71286", numbers.WO)
}

func TestApplicationNumbers_DirectEP(t *testing.T) {
	biblio := loadBiblio(t, "EP04018554.json")
	numbers, err := biblio.ApplicationNumbers()
	require.NoError(t, err)
	assert.Equal(t, "04018554.8", numbers.EP)
	assert.Empty(t, numbers.WO)
}

const singleEPReference = `{"reg:document-id": {"reg:country": {"$": "EP"}, "reg:doc-number": {"$": "00650114"}, "reg:date": {"$": "20000824"}}}`

func TestApplicationNumbers_SingleAndOneElementListAgree(t *testing.T) {
	single := biblioFrom(t, `{"reg:application-reference": `+singleEPReference+`}`)
	list := biblioFrom(t, `{"reg:application-reference": [`+singleEPReference+`]}`)

	fromSingle, err := single.ApplicationNumbers()
	require.NoError(t, err)
	fromList, err := list.ApplicationNumbers()
	require.NoError(t, err)

	assert.Equal(t, ApplicationNumbers{EP: "00650114.2"}, fromSingle)
	assert.Equal(t, fromSingle, fromList)
	assert.Equal(t, single.FilingDate(), list.FilingDate())
}

func TestApplicationNumbers_BadEPNumber(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:application-reference": {"reg:document-id": {"reg:country": {"$": "EP"}, "reg:doc-number": {"$": "1234567"}}}}`)
	_, err := biblio.ApplicationNumbers()
	assert.ErrorIs(t, err, checksum.ErrNotEightDigits)
}

func TestApplicationNumbers_Absent(t *testing.T) {
	numbers, err := biblioFrom(t, `{}`).ApplicationNumbers()
	require.NoError(t, err)
	assert.Equal(t, ApplicationNumbers{}, numbers)
}

func TestFilingDate(t *testing.T) {
	assert.Equal(t, date(2018, time.August, 6), loadBiblio(t, "EP18752141.json").FilingDate())
	assert.Equal(t, date(2004, time.August, 5), loadBiblio(t, "EP04018554.json").FilingDate())
}

func TestFilingDate_UnknownWhenMissing(t *testing.T) {
	noDate := biblioFrom(t, `{"reg:application-reference": {"reg:document-id": {"reg:country": {"$": "EP"}, "reg:doc-number": {"$": "00650114"}}}}`)
	assert.True(t, O.IsNone(noDate.FilingDate()))

	noEP := biblioFrom(t, `{"reg:application-reference": [{"reg:document-id": {"reg:country": {"$": "WO"}, "reg:doc-number": {"$": "2014EP75203"}, "reg:date": {"$": "20141120"}}}]}`)
	assert.True(t, O.IsNone(noEP.FilingDate()))

	assert.True(t, O.IsNone(biblioFrom(t, `{}`).FilingDate()))
}

func TestPublications(t *testing.T) {
	pubs := loadBiblio(t, "EP18752141.json").Publications()
	require.Contains(t, pubs, models.JurisdictionEP)
	require.Contains(t, pubs, models.JurisdictionWO)
	assert.Equal(t, "3661357", pubs[models.JurisdictionEP].Number)
	assert.Equal(t, date(2020, time.June, 10), pubs[models.JurisdictionEP].Date)
	assert.Equal(t, "2019025638", pubs[models.JurisdictionWO].Number)
	assert.Equal(t, date(2019, time.February, 7), pubs[models.JurisdictionWO].Date)
}

func TestPublications_IgnoresSearchReportAndGrant(t *testing.T) {
	pubs := loadBiblio(t, "EP04018554.json").Publications()
	assert.Len(t, pubs, 1)
	assert.Equal(t, "1505543", pubs[models.JurisdictionEP].Number)
	assert.Equal(t, date(2005, time.February, 9), pubs[models.JurisdictionEP].Date)
}

func TestPublications_SingleIsEP(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:publication-reference": {"reg:document-id": {"reg:country": {"$": "EP"}, "reg:doc-number": {"$": "1097848"}, "reg:kind": {"$": "A2"}, "reg:date": {"$": "20010509"}}}}`)
	pubs := biblio.Publications()
	assert.Equal(t, models.Publication{Number: "1097848", Date: date(2001, time.May, 9)}, pubs[models.JurisdictionEP])
}

func TestGrantDate(t *testing.T) {
	granted := loadBiblio(t, "EP18752141.json")
	assert.Equal(t, date(2021, time.March, 17), granted.GrantDate())
	assert.True(t, granted.IsGranted())

	withdrawn := loadBiblio(t, "EP04018554.json")
	assert.True(t, O.IsNone(withdrawn.GrantDate()))
	assert.False(t, withdrawn.IsGranted())
}

func TestGrantDate_SinglePublicationIsNeverAGrant(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:publication-reference": {"reg:document-id": {"reg:country": {"$": "EP"}, "reg:doc-number": {"$": "1097848"}, "reg:kind": {"$": "B1"}, "reg:date": {"$": "20070321"}}}}`)
	assert.True(t, O.IsNone(biblio.GrantDate()))
	assert.False(t, biblio.IsGranted())
}

func TestDesignatedStates(t *testing.T) {
	states, err := loadBiblio(t, "EP18752141.json").DesignatedStates()
	require.NoError(t, err)
	assert.Contains(t, states, "GB")
	assert.Len(t, states, 38)
	assert.Equal(t, "AL", states[0])

	states, err = loadBiblio(t, "EP04018554.json").DesignatedStates()
	require.NoError(t, err)
	assert.Contains(t, states, "GB")
}

func TestDesignatedStates_KeepsDuplicatesAndOrder(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:designation-of-states": {"reg:designation-pct": {"reg:regional": {"reg:country": [{"$": "GB"}, {"$": "DE"}, {"$": "GB"}]}}}}`)
	states, err := biblio.DesignatedStates()
	require.NoError(t, err)
	assert.Equal(t, []string{"GB", "DE", "GB"}, states)
}

func TestDesignatedStates_SingleCountry(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:designation-of-states": {"reg:designation-pct": {"reg:regional": {"reg:country": {"$": "GB"}}}}}`)
	states, err := biblio.DesignatedStates()
	require.NoError(t, err)
	assert.Equal(t, []string{"GB"}, states)
}

func TestDesignatedStates_WithoutPCTSection(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:designation-of-states": [{"reg:designation-epc": {}}, {"reg:designation-pct": {"reg:regional": {"reg:country": {"$": "GB"}}}}]}`)
	_, err := biblio.DesignatedStates()
	assert.ErrorIs(t, err, ErrUnsupportedDesignation)
}

func TestDesignatedStates_AbsentSection(t *testing.T) {
	states, err := biblioFrom(t, `{}`).DesignatedStates()
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestPriorities_Cardinality(t *testing.T) {
	none := biblioFrom(t, `{}`).Priorities()
	assert.NotNil(t, none)
	assert.Empty(t, none)

	one := loadBiblio(t, "EP18752141.json").Priorities()
	require.Len(t, one, 1)
	assert.Equal(t, models.Priority{Country: "GB", Date: date(2017, time.August, 4), Number: "201712573"}, one[0])

	many := biblioFrom(t, `{"reg:priority-claims": {"reg:priority-claim": [
		{"@sequence": "1", "reg:country": {"$": "US"}, "reg:doc-number": {"$": "201361906788"}, "reg:date": {"$": "20131120"}},
		{"@sequence": "2", "reg:country": {"$": "US"}, "reg:doc-number": {"$": "201414547557"}, "reg:date": {"$": "20141119"}}
	]}}`).Priorities()
	require.Len(t, many, 2)
	assert.Equal(t, "201361906788", many[0].Number)
	assert.Equal(t, "US", many[1].Country)
	assert.Equal(t, date(2014, time.November, 19), many[1].Date)
	assert.Equal(t, "201414547557", many[1].Number)
}

func TestPriorities_RepublishedSectionUsesLatest(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:priority-claims": [
		{"@change-gazette-num": "2016/39", "reg:priority-claim": [
			{"reg:country": {"$": "GB"}, "reg:doc-number": {"$": "1"}, "reg:date": {"$": "20131101"}},
			{"reg:country": {"$": "GB"}, "reg:doc-number": {"$": "2"}, "reg:date": {"$": "20131102"}}
		]},
		{"@change-gazette-num": "N/P", "reg:priority-claim": {"reg:country": {"$": "GB"}, "reg:doc-number": {"$": "1"}, "reg:date": {"$": "20131101"}}}
	]}`)
	priorities := biblio.Priorities()
	require.Len(t, priorities, 2)
	assert.Equal(t, "1", priorities[0].Number)
	assert.Equal(t, "2", priorities[1].Number)
}

func TestTitle(t *testing.T) {
	title, err := loadBiblio(t, "EP18752141.json").Title()
	require.NoError(t, err)
	assert.Equal(t, "NECK RAIL SYSTEMS FOR ANIMAL STALLS", title)

	title, err = loadBiblio(t, "EP04018554.json").Title()
	require.NoError(t, err)
	assert.Equal(t, "Video object tracking", title)
}

func TestTitle_NoEnglishEntry(t *testing.T) {
	biblio := biblioFrom(t, `{"reg:invention-title": [{"@lang": "de", "$": "Titel"}, {"@lang": "fr", "$": "Titre"}]}`)
	_, err := biblio.Title()
	assert.ErrorIs(t, err, ErrNoEnglishTitle)
}
