// Package normalize turns user-supplied EP numbers into the identifier the
// register service expects.
package normalize

import (
	"strings"
)

type Kind string

const (
	KindPublication Kind = "publication"
	KindApplication Kind = "application"
	KindUnknown     Kind = "unknown"
)

// Identifier is a canonical register identifier, e.g. {application, EP18752141}.
type Identifier struct {
	Kind   Kind
	Number string
}

func (id Identifier) Valid() bool {
	return id.Kind != KindUnknown
}

func (id Identifier) String() string {
	return string(id.Kind) + "/" + id.Number
}

// Normalize dispatches on length once any EP prefix has been removed:
//
//	3661357      -> publication EP3661357
//	18752141     -> application EP18752141
//	18752141.4   -> application EP18752141
//
// Anything else is returned verbatim with KindUnknown.
func Normalize(input string) Identifier {
	number := strings.TrimSpace(input)
	if len(number) >= 2 && strings.EqualFold(number[:2], "ep") {
		number = number[2:]
	}
	switch len(number) {
	case 7:
		return Identifier{Kind: KindPublication, Number: "EP" + number}
	case 8:
		return Identifier{Kind: KindApplication, Number: "EP" + number}
	case 10:
		return Identifier{Kind: KindApplication, Number: "EP" + number[:8]}
	default:
		return Identifier{Kind: KindUnknown, Number: strings.TrimSpace(input)}
	}
}
