package sheet

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/config"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

func day(y int, m time.Month, d int) models.Date {
	return models.KnownDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func testWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(config.Sheet{
		OutputDir:             filepath.Join(t.TempDir(), "out"),
		CaseType:              "Patent",
		Country:               "EP",
		ServiceLevel:          "Seek Renewal Instructions",
		CorrespondenceAddress: "17500",
		AccountAddress:        "995579",
		CaseResponsible:       "Case Owner",
	}, zap.NewNop().Sugar())
}

func party(id string) *models.Party {
	return &models.Party{ID: id}
}

func grantedPCT() models.Patent {
	return models.Patent{
		Ref:                 "REF-1",
		Title:               "NECK RAIL SYSTEMS FOR ANIMAL STALLS",
		EPApplicationNumber: "18752141.4",
		WOApplicationNumber: "2018EP71286",
		FilingDate:          day(2018, time.August, 6),
		EPPublication:       models.Publication{Number: "3661357", Date: day(2020, time.June, 10)},
		Granted:             true,
		GrantDate:           day(2021, time.March, 17),
		Priorities: []models.Priority{
			{Country: "US", Date: day(2017, time.September, 1), Number: "B"},
			{Country: "GB", Date: day(2017, time.August, 4), Number: "A"},
			{Country: "GB", Date: models.UnknownDate(), Number: "C"},
		},
		DesignatedStates: []string{"DE", "GB"},
		Applicants:       []*models.Party{party("app-1"), party("app-2")},
		Inventors:        []*models.Party{party("inv-1"), party("inv-2"), party("inv-3"), party("inv-4")},
	}
}

func cell(row []string, name string) string {
	for i, h := range CaseDataHeader {
		if h == name {
			return row[i]
		}
	}
	panic("unknown column " + name)
}

func TestApplicationType(t *testing.T) {
	p := models.Patent{}
	assert.Equal(t, "Without Priority", ApplicationType(p))
	p.Priorities = []models.Priority{{Country: "GB"}}
	assert.Equal(t, "With Priority", ApplicationType(p))
	p.WOApplicationNumber = "2018EP71286"
	assert.Equal(t, "PCT-Based With Priority", ApplicationType(p))
	p.Priorities = nil
	assert.Equal(t, "PCT-Based Without Priority", ApplicationType(p))
}

func TestSortedPriorities(t *testing.T) {
	sorted := SortedPriorities(grantedPCT().Priorities)
	assert.Equal(t, []string{"A", "B", "C"}, []string{sorted[0].Number, sorted[1].Number, sorted[2].Number})
}

func TestCaseRow_Granted(t *testing.T) {
	row := testWriter(t).CaseRow(grantedPCT())
	require.Len(t, row, len(CaseDataHeader))

	assert.Equal(t, "REF-1", cell(row, "Old_Case_No"))
	assert.Equal(t, "Patent", cell(row, "Case_Type"))
	assert.Equal(t, "EP", cell(row, "Country"))
	assert.Equal(t, "PCT-Based With Priority", cell(row, "Application_Type"))
	assert.Equal(t, "Seek Renewal Instructions", cell(row, "Service_Level"))
	assert.Equal(t, "NECK RAIL SYSTEMS FOR ANIMAL STALLS", cell(row, "Catchword"))
	assert.Equal(t, "06/08/2018", cell(row, "Application_Date"))
	assert.Equal(t, "18752141.4", cell(row, "Application_No"))
	assert.Equal(t, "04/08/2017", cell(row, "Priority_Date"))
	assert.Equal(t, "A", cell(row, "Priority_No"))
	assert.Equal(t, "GB", cell(row, "Priority_Country"))
	assert.Equal(t, "Additional priorities: 01/09/2017 B US |  C GB |", cell(row, "Notes_comments1"))
	assert.Equal(t, "10/06/2020", cell(row, "Publication_Date"))
	assert.Equal(t, "3661357", cell(row, "Publication_No"))
	assert.Equal(t, "17/03/2021", cell(row, "Registration_Grant_Date"))
	assert.Equal(t, "3661357", cell(row, "Registration_No"))
	assert.Equal(t, "app-1", cell(row, "Applicant"))
	assert.Equal(t, "inv-1", cell(row, "Inventor_1"))
	assert.Equal(t, "inv-2", cell(row, "Inventor_2"))
	assert.Equal(t, "Co-Applicants: app-2 || Co-Inventors: inv-3 | inv-4", cell(row, "Notes_comments2"))
	assert.Equal(t, "17500", cell(row, "Correspondence_Address"))
	assert.Equal(t, "995579", cell(row, "Account_Address"))
	assert.Equal(t, "Case Owner", cell(row, "Case_Responsible"))
	assert.Equal(t, "Granted/Registered", cell(row, "Case_Status"))
	assert.Equal(t, "REF-1", cell(row, "Agents_Ref"))
	assert.Empty(t, cell(row, "Foreign_Agent"))
}

func TestCaseRow_Pending(t *testing.T) {
	p := models.Patent{
		Ref:                 "REF-2",
		EPApplicationNumber: "04018554.8",
		FilingDate:          day(2004, time.August, 5),
		EPPublication:       models.Publication{Number: "1505543", Date: day(2005, time.February, 9)},
		GrantDate:           models.UnknownDate(),
		Inventors:           []*models.Party{party("inv-1")},
	}
	row := testWriter(t).CaseRow(p)
	assert.Equal(t, "Without Priority", cell(row, "Application_Type"))
	assert.Equal(t, "Pending", cell(row, "Case_Status"))
	assert.Empty(t, cell(row, "Registration_Grant_Date"))
	assert.Empty(t, cell(row, "Registration_No"))
	assert.Empty(t, cell(row, "Priority_Date"))
	assert.Empty(t, cell(row, "Applicant"))
	assert.Empty(t, cell(row, "Inventor_2"))
	assert.Empty(t, cell(row, "Notes_comments1"))
	assert.Empty(t, cell(row, "Notes_comments2"))
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWrite(t *testing.T) {
	w := testWriter(t)
	patents := []models.Patent{grantedPCT(), models.InvalidNumberPatent("EP9999999")}
	parties := []*models.Party{
		{ID: "app-1", IsLegalEntity: true, IsApplicant: true, CompanyName: "ACME", AddressCountry: "IE"},
		{ID: "inv-1", IsInventor: true, LastName: "EARLS", FirstName: " Michael"},
	}

	report, err := w.Write(patents, parties)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cases)
	assert.Equal(t, 2, report.Parties)
	assert.Equal(t, 2, report.States)
	assert.Equal(t, []string{"not a valid number: EP9999999"}, report.Skipped)
	require.Len(t, report.Files, 3)

	cases := readSheet(t, filepath.Join(w.Cfg.OutputDir, "CASE_DATA.csv"))
	require.Len(t, cases, 2)
	assert.Equal(t, CaseDataHeader, cases[0])
	assert.Equal(t, "REF-1", cases[1][0])

	names := readSheet(t, filepath.Join(w.Cfg.OutputDir, "NAME_DATA.csv"))
	require.Len(t, names, 3)
	assert.Equal(t, NameDataHeader, names[0])
	assert.Equal(t, []string{"app-1", "true", "ACME", "", "", "", "", "", "", "", "IE", "", "", "true", "false"}, names[1])
	assert.Equal(t, " Michael", names[2][3])

	states := readSheet(t, filepath.Join(w.Cfg.OutputDir, "DESIGNATED_STATES.csv"))
	assert.Equal(t, [][]string{DesignatedStatesHeader, {"REF-1", "DE"}, {"REF-1", "GB"}}, states)
}

func TestWrite_EmptyBatchStillWritesHeaders(t *testing.T) {
	w := testWriter(t)
	report, err := w.Write(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Cases)
	assert.Equal(t, [][]string{CaseDataHeader}, readSheet(t, filepath.Join(w.Cfg.OutputDir, "CASE_DATA.csv")))
}
