package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  Identifier
	}{
		{"3661357", Identifier{KindPublication, "EP3661357"}},
		{"EP3661357", Identifier{KindPublication, "EP3661357"}},
		{"18752141.4", Identifier{KindApplication, "EP18752141"}},
		{"EP18752141.4", Identifier{KindApplication, "EP18752141"}},
		{"18752141", Identifier{KindApplication, "EP18752141"}},
		{"ep18752141", Identifier{KindApplication, "EP18752141"}},
		{" 00650114.2 ", Identifier{KindApplication, "EP00650114"}},
		{"1505543", Identifier{KindPublication, "EP1505543"}},
		{"WO2014EP75203", Identifier{KindUnknown, "WO2014EP75203"}},
		{"", Identifier{KindUnknown, ""}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind != KindUnknown, got.Valid())
		})
	}
}
