package register

import "errors"

var (
	ErrUnexpectedShape        = errors.New("unexpected document shape")
	ErrNoBibliographicData    = errors.New("no bibliographic data in register response")
	ErrNoEnglishTitle         = errors.New("no English title")
	ErrUnsupportedDesignation = errors.New("designated states without a PCT regional designation are not supported")
)
