package register

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Response is the register search envelope returned for one biblio lookup.
type Response struct {
	// InvalidNumber is set whenever the invalid_number key is present,
	// whatever its value.
	InvalidNumber   *string          `json:"-"`
	WorldPatentData *WorldPatentData `json:"ops:world-patent-data"`
}

type WorldPatentData struct {
	RegisterSearch *RegisterSearch `json:"ops:register-search"`
}

type RegisterSearch struct {
	TotalResultCount  string             `json:"@total-result-count"`
	RegisterDocuments *RegisterDocuments `json:"reg:register-documents"`
}

type RegisterDocuments struct {
	RegisterDocument OneOrMany[RegisterDocument] `json:"reg:register-document"`
}

type RegisterDocument struct {
	BibliographicData *BibliographicData `json:"reg:bibliographic-data"`
}

// BibliographicData is the section every extractor reads from.
type BibliographicData struct {
	ID                   string                         `json:"@id"`
	Status               string                         `json:"@status"`
	ApplicationReference OneOrMany[Reference]           `json:"reg:application-reference"`
	PublicationReference OneOrMany[Reference]           `json:"reg:publication-reference"`
	DesignationOfStates  OneOrMany[DesignationOfStates] `json:"reg:designation-of-states"`
	PriorityClaims       OneOrMany[PriorityClaims]      `json:"reg:priority-claims"`
	Parties              *Parties                       `json:"reg:parties"`
	InventionTitle       OneOrMany[InventionTitle]      `json:"reg:invention-title"`
}

type Reference struct {
	ChangeGazetteNum string     `json:"@change-gazette-num"`
	DocumentID       DocumentID `json:"reg:document-id"`
}

type DocumentID struct {
	Country   *Text `json:"reg:country"`
	DocNumber *Text `json:"reg:doc-number"`
	Kind      *Text `json:"reg:kind"`
	Date      *Text `json:"reg:date"`
}

type DesignationOfStates struct {
	ChangeGazetteNum string          `json:"@change-gazette-num"`
	DesignationPCT   *DesignationPCT `json:"reg:designation-pct"`
}

type DesignationPCT struct {
	Regional *Regional `json:"reg:regional"`
}

type Regional struct {
	Region  *CountryHolder  `json:"reg:region"`
	Country OneOrMany[Text] `json:"reg:country"`
}

type PriorityClaims struct {
	ChangeGazetteNum string                   `json:"@change-gazette-num"`
	PriorityClaim    OneOrMany[PriorityClaim] `json:"reg:priority-claim"`
}

type PriorityClaim struct {
	Sequence  string `json:"@sequence"`
	Kind      string `json:"@kind"`
	Country   *Text  `json:"reg:country"`
	DocNumber *Text  `json:"reg:doc-number"`
	Date      *Text  `json:"reg:date"`
}

type Parties struct {
	Applicants OneOrMany[Applicants] `json:"reg:applicants"`
	Inventors  OneOrMany[Inventors]  `json:"reg:inventors"`
}

type Applicants struct {
	ChangeGazetteNum string                `json:"@change-gazette-num"`
	Applicant        OneOrMany[PartyEntry] `json:"reg:applicant"`
}

type Inventors struct {
	ChangeGazetteNum string                `json:"@change-gazette-num"`
	Inventor         OneOrMany[PartyEntry] `json:"reg:inventor"`
}

type PartyEntry struct {
	Sequence    string         `json:"@sequence"`
	AppType     string         `json:"@app-type"`
	Designation string         `json:"@designation"`
	Addressbook Addressbook    `json:"reg:addressbook"`
	Nationality *CountryHolder `json:"reg:nationality"`
	Residence   *CountryHolder `json:"reg:residence"`
}

type Addressbook struct {
	Name    *Text   `json:"reg:name"`
	Address Address `json:"reg:address"`
}

type Address struct {
	Address1 *Text `json:"reg:address-1"`
	Address2 *Text `json:"reg:address-2"`
	Address3 *Text `json:"reg:address-3"`
	Address4 *Text `json:"reg:address-4"`
	Address5 *Text `json:"reg:address-5"`
	Country  *Text `json:"reg:country"`
}

type CountryHolder struct {
	Country *Text `json:"reg:country"`
}

func (c *CountryHolder) code() string {
	if c == nil {
		return ""
	}
	return text(c.Country)
}

type InventionTitle struct {
	Lang             string `json:"@lang"`
	ChangeGazetteNum string `json:"@change-gazette-num"`
	Value            string `json:"$"`
}

// Decode parses a raw register response. XML responses are first converted
// to the JSON form the register serves with Accept: application/json.
func Decode(raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		converted, err := FromXML(bytes.NewReader(trimmed))
		if err != nil {
			return nil, fmt.Errorf("convert xml: %w", err)
		}
		trimmed = converted
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	if marker, ok := top[invalidNumberKey]; ok {
		value := markerValue(marker)
		return &Response{InvalidNumber: &value}, nil
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	return &resp, nil
}

const invalidNumberKey = "invalid_number"

// markerValue renders the invalid_number value: the text of a string or text
// node, the JSON literal otherwise.
func markerValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	if trimmed[0] == '"' || trimmed[0] == '{' {
		var t Text
		if err := json.Unmarshal(trimmed, &t); err == nil && t.Value != "" {
			return t.Value
		}
	}
	return string(trimmed)
}

// BibliographicData follows the fixed envelope path down to the
// bibliographic section. When several register documents are returned the
// first one is used.
func (r *Response) BibliographicData() (*BibliographicData, error) {
	if r.WorldPatentData == nil ||
		r.WorldPatentData.RegisterSearch == nil ||
		r.WorldPatentData.RegisterSearch.RegisterDocuments == nil {
		return nil, ErrNoBibliographicData
	}
	doc, ok := r.WorldPatentData.RegisterSearch.RegisterDocuments.RegisterDocument.Latest()
	if !ok || doc.BibliographicData == nil {
		return nil, ErrNoBibliographicData
	}
	return doc.BibliographicData, nil
}
