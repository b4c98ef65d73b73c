package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCases(t *testing.T) {
	input := "Reference,Number\n" +
		"9512-20002.41.5 EPDIV5,24180270.1\n" +
		",,\n" +
		"PT06664EP, 18744218.1\n" +
		"NUM-ONLY,3661357,extra\n"
	cases, err := ReadCases(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Ref: "9512-20002.41.5 EPDIV5", Number: "24180270.1"},
		{Ref: "PT06664EP", Number: "18744218.1"},
		{Ref: "NUM-ONLY", Number: "3661357"},
	}, cases)
}

func TestReadCases_HeaderOnly(t *testing.T) {
	cases, err := ReadCases(strings.NewReader("Reference,Number\n"))
	require.NoError(t, err)
	assert.Empty(t, cases)

	cases, err = ReadCases(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestReadCases_MissingNumber(t *testing.T) {
	_, err := ReadCases(strings.NewReader("Reference,Number\nREF-1\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.ErrorContains(t, err, "line 2")
}

func TestReadCasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("ref,number\nA,EP3661357\n"), 0o644))
	cases, err := ReadCasesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Case{{Ref: "A", Number: "EP3661357"}}, cases)

	_, err = ReadCasesFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
