package models

import (
	"regexp"
	"strings"
)

// PhoneType classifies a listing phone number.
type PhoneType string

const (
	PhoneTypeMain    PhoneType = "main"
	PhoneTypeFax     PhoneType = "fax"
	PhoneTypeMobile  PhoneType = "mobile"
	PhoneTypeData    PhoneType = "data"
	PhoneTypeUnknown PhoneType = "unknown"
)

// ParsePhoneType decodes the service's type literal. An empty literal means
// the main line; anything unrecognized is PhoneTypeUnknown.
func ParsePhoneType(s string) PhoneType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main":
		return PhoneTypeMain
	case "fax":
		return PhoneTypeFax
	case "mobile":
		return PhoneTypeMobile
	case "data":
		return PhoneTypeData
	default:
		return PhoneTypeUnknown
	}
}

// PhoneNumber is one phone line attached to a local result.
type PhoneNumber struct {
	Type   PhoneType `json:"type"`
	Number string    `json:"number"`
}

var (
	parenAreaCode   = regexp.MustCompile(`^\s*(?:\+?1[\s.-]*)?\((\d{3})\)`)
	leadingAreaCode = regexp.MustCompile(`^\s*(?:\+?1[\s.-]+)?(\d{3})[\s.-]\d{3}[\s.-]\d{4}\b`)
	extensionSuffix = regexp.MustCompile(`(?i)(?:\bext\.?|\bx)\s*(\d+)\s*$`)
)

// AreaCode returns the area code when the number carries one, either
// parenthesised as in "(650) 253-0000" or as a leading group as in "650-253-0000".
func (p PhoneNumber) AreaCode() (string, bool) {
	if m := parenAreaCode.FindStringSubmatch(p.Number); m != nil {
		return m[1], true
	}
	if m := leadingAreaCode.FindStringSubmatch(p.Number); m != nil {
		return m[1], true
	}
	return "", false
}

// Extension returns the extension when the number ends in "x123" or "ext. 123".
func (p PhoneNumber) Extension() (string, bool) {
	if m := extensionSuffix.FindStringSubmatch(p.Number); m != nil {
		return m[1], true
	}
	return "", false
}

func (p PhoneNumber) String() string {
	switch p.Type {
	case PhoneTypeMain, "":
		return p.Number
	default:
		return p.Number + " (" + string(p.Type) + ")"
	}
}
