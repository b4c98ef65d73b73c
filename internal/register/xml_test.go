package register

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromXML_BadgerFish(t *testing.T) {
	raw := `<?xml version="1.0"?>
<ops:root xmlns:ops="http://ops.epo.org" xmlns:reg="http://www.epo.org/register">
  <reg:item sequence="1"><reg:name>first</reg:name></reg:item>
  <reg:item sequence="2"><reg:name>second</reg:name></reg:item>
  <reg:single lang="en">text</reg:single>
  <reg:empty/>
</ops:root>`

	out, err := FromXML(strings.NewReader(raw))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	root := doc["ops:root"].(map[string]any)
	assert.NotContains(t, root, "@ops")
	assert.NotContains(t, root, "@reg")

	items, ok := root["reg:item"].([]any)
	require.True(t, ok, "repeated elements become an array")
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "1", first["@sequence"])
	assert.Equal(t, map[string]any{"$": "first"}, first["reg:name"])

	assert.Equal(t, map[string]any{"@lang": "en", "$": "text"}, root["reg:single"])
	assert.Equal(t, map[string]any{}, root["reg:empty"])
}

func TestFromXML_Malformed(t *testing.T) {
	_, err := FromXML(strings.NewReader("<a><b></a>"))
	assert.Error(t, err)
}

func TestFromXML_NoRootElement(t *testing.T) {
	_, err := FromXML(bytes.NewReader([]byte(`<?xml version="1.0"?>`)))
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestDecode_XMLFixture(t *testing.T) {
	biblio := loadBiblio(t, "EP10767749.xml")
	assert.Equal(t, "EP10767749P", biblio.ID)
	assert.Equal(t, Sequence, biblio.PublicationReference.Shape())
	assert.Equal(t, Single, biblio.Parties.Applicants.Shape())
	claims, ok := biblio.PriorityClaims.Latest()
	require.True(t, ok)
	assert.Equal(t, Sequence, claims.PriorityClaim.Shape())
}
