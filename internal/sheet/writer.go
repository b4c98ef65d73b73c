package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	O "github.com/IBM/fp-go/v2/option"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/config"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

const (
	CaseDataSheet         = "CASE_DATA"
	NameDataSheet         = "NAME_DATA"
	DesignatedStatesSheet = "DESIGNATED_STATES"

	statusGranted = "Granted/Registered"
	statusPending = "Pending"
)

var CaseDataHeader = []string{
	"Old_Case_No", "Case_Type", "Country", "Application_Type", "Service_Level",
	"Catchword", "Case_Number_Extension", "Application_Date", "Application_No",
	"Priority_Date", "Priority_No", "Priority_Country", "Publication_Date",
	"Publication_No", "Req_For_Examination", "Date_of_Use",
	"Registration_Grant_Date", "Registration_No", "Next_renewal_annuity_Date",
	"Official_Action_Due", "Applicant", "Foreign_Agent", "Correspondence_Address",
	"Account_Address", "Inventor_1", "Inventor_2", "Notes_comments1",
	"Notes_comments2", "Next_Action_Date", "Next_Action", "Trademark_appearance",
	"Title_Description", "TM_Type", "Case_Responsible", "Case_Status", "Agents_Ref",
}

var NameDataHeader = []string{
	"Name_ID", "Is_Legal_Entity", "Company_Name", "First_Name", "Last_Name",
	"Address_1", "Address_2", "Address_3", "Address_4", "Address_5",
	"Address_Country", "Nationality", "Residence_Country", "Is_Applicant",
	"Is_Inventor",
}

var DesignatedStatesHeader = []string{"Old_Case_No", "Designated_State"}

// column indexes into CaseDataHeader
const (
	colOldCaseNo = iota
	colCaseType
	colCountry
	colApplicationType
	colServiceLevel
	colCatchword
	_ // Case_Number_Extension
	colApplicationDate
	colApplicationNo
	colPriorityDate
	colPriorityNo
	colPriorityCountry
	colPublicationDate
	colPublicationNo
	_ // Req_For_Examination
	_ // Date_of_Use
	colGrantDate
	colRegistrationNo
	_ // Next_renewal_annuity_Date
	_ // Official_Action_Due
	colApplicant
	_ // Foreign_Agent
	colCorrespondenceAddress
	colAccountAddress
	colInventor1
	colInventor2
	colNotes1
	colNotes2
	_ // Next_Action_Date
	_ // Next_Action
	_ // Trademark_appearance
	_ // Title_Description
	_ // TM_Type
	colCaseResponsible
	colCaseStatus
	colAgentsRef
)

// Report summarises one Write.
type Report struct {
	Cases   int
	Parties int
	States  int
	Skipped []string
	Files   []string
}

type Writer struct {
	Cfg    config.Sheet
	Logger *zap.SugaredLogger
}

func NewWriter(cfg config.Sheet, logger *zap.SugaredLogger) *Writer {
	return &Writer{Cfg: cfg, Logger: logger}
}

// ApplicationType classifies the filing route by WO and priority presence.
func ApplicationType(p models.Patent) string {
	route := ""
	if p.HasWO() {
		route = "PCT-Based "
	}
	if len(p.Priorities) > 0 {
		return route + "With Priority"
	}
	return route + "Without Priority"
}

// SortedPriorities orders priorities by date, earliest first. Unknown dates
// sort last; ties keep document order.
func SortedPriorities(priorities []models.Priority) []models.Priority {
	sorted := make([]models.Priority, len(priorities))
	copy(sorted, priorities)
	key := func(p models.Priority) (time.Time, bool) {
		return O.MonadGetOrElse(p.Date, func() time.Time { return time.Time{} }), O.IsSome(p.Date)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, oki := key(sorted[i])
		tj, okj := key(sorted[j])
		if oki != okj {
			return oki
		}
		return oki && ti.Before(tj)
	})
	return sorted
}

func partyIDs(parties []*models.Party) []string {
	ids := make([]string, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID)
	}
	return ids
}

// CaseRow renders one CASE_DATA row.
func (w *Writer) CaseRow(p models.Patent) []string {
	row := make([]string, len(CaseDataHeader))
	row[colOldCaseNo] = p.Ref
	row[colCaseType] = w.Cfg.CaseType
	row[colCountry] = w.Cfg.Country
	row[colApplicationType] = ApplicationType(p)
	row[colServiceLevel] = w.Cfg.ServiceLevel
	row[colCatchword] = p.Title
	row[colApplicationDate] = formatDate(p.FilingDate)
	row[colApplicationNo] = p.EPApplicationNumber

	if priorities := SortedPriorities(p.Priorities); len(priorities) > 0 {
		earliest := priorities[0]
		row[colPriorityDate] = formatDate(earliest.Date)
		row[colPriorityNo] = earliest.Number
		row[colPriorityCountry] = earliest.Country
		if len(priorities) > 1 {
			var notes strings.Builder
			notes.WriteString("Additional priorities:")
			for _, extra := range priorities[1:] {
				fmt.Fprintf(&notes, " %s %s %s |", formatDate(extra.Date), extra.Number, extra.Country)
			}
			row[colNotes1] = notes.String()
		}
	}

	row[colPublicationDate] = formatDate(p.EPPublication.Date)
	row[colPublicationNo] = p.EPPublication.Number
	row[colCaseStatus] = statusPending
	if p.Granted {
		row[colGrantDate] = formatDate(p.GrantDate)
		row[colRegistrationNo] = p.EPPublication.Number
		row[colCaseStatus] = statusGranted
	}

	var notes2 []string
	applicants := partyIDs(p.Applicants)
	if len(applicants) > 0 {
		row[colApplicant] = applicants[0]
	}
	if len(applicants) > 1 {
		notes2 = append(notes2, "Co-Applicants: "+strings.Join(applicants[1:], " | "))
	}
	inventors := partyIDs(p.Inventors)
	if len(inventors) > 0 {
		row[colInventor1] = inventors[0]
	}
	if len(inventors) > 1 {
		row[colInventor2] = inventors[1]
	}
	if len(inventors) > 2 {
		notes2 = append(notes2, "Co-Inventors: "+strings.Join(inventors[2:], " | "))
	}
	row[colNotes2] = strings.Join(notes2, " || ")

	row[colCorrespondenceAddress] = w.Cfg.CorrespondenceAddress
	row[colAccountAddress] = w.Cfg.AccountAddress
	row[colCaseResponsible] = w.Cfg.CaseResponsible
	row[colAgentsRef] = p.Ref
	return row
}

func NameRow(p *models.Party) []string {
	return []string{
		p.ID,
		strconv.FormatBool(p.IsLegalEntity),
		p.CompanyName,
		p.FirstName,
		p.LastName,
		p.Address1,
		p.Address2,
		p.Address3,
		p.Address4,
		p.Address5,
		p.AddressCountry,
		p.Nationality,
		p.ResidenceCountry,
		strconv.FormatBool(p.IsApplicant),
		strconv.FormatBool(p.IsInventor),
	}
}

// Write creates the three sheets in the output directory. Invalid-number
// sentinels get no CASE_DATA row; their titles are listed in the report.
func (w *Writer) Write(patents []models.Patent, parties []*models.Party) (Report, error) {
	var report Report
	if err := os.MkdirAll(w.Cfg.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}

	var caseRows, stateRows [][]string
	for _, p := range patents {
		if p.IsInvalidNumber() {
			report.Skipped = append(report.Skipped, p.Title)
			w.Logger.Warnw("Skipping invalid number", "title", p.Title, "ref", p.Ref)
			continue
		}
		caseRows = append(caseRows, w.CaseRow(p))
		for _, state := range p.DesignatedStates {
			stateRows = append(stateRows, []string{p.Ref, state})
		}
	}
	nameRows := make([][]string, 0, len(parties))
	for _, party := range parties {
		nameRows = append(nameRows, NameRow(party))
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{CaseDataSheet, CaseDataHeader, caseRows},
		{NameDataSheet, NameDataHeader, nameRows},
		{DesignatedStatesSheet, DesignatedStatesHeader, stateRows},
	}
	for _, s := range sheets {
		path := filepath.Join(w.Cfg.OutputDir, s.name+".csv")
		if err := writeCSV(path, s.header, s.rows); err != nil {
			return report, fmt.Errorf("write %s: %w", s.name, err)
		}
		report.Files = append(report.Files, path)
	}

	report.Cases = len(caseRows)
	report.Parties = len(nameRows)
	report.States = len(stateRows)
	w.Logger.Infow("Import sheets written",
		"dir", w.Cfg.OutputDir,
		"cases", report.Cases,
		"parties", report.Parties,
		"skipped", len(report.Skipped))
	return report, nil
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	buffered := bufio.NewWriter(file)
	writer := csv.NewWriter(buffered)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return buffered.Flush()
}
