package waste

import "fmt"

// Type is the closed enumeration of waste categories, exchanged verbatim as
// lowercase codes.
type Type string

const (
	TypePaper      Type = "paper"
	TypePlastic    Type = "plastic"
	TypeGlass      Type = "glass"
	TypeMetal      Type = "metal"
	TypeOrganic    Type = "organic"
	TypeElectronic Type = "electronic"
	TypeHazardous  Type = "hazardous"
	TypeOther      Type = "other"
)

// AllTypes lists every valid waste type.
var AllTypes = []Type{
	TypePaper, TypePlastic, TypeGlass, TypeMetal,
	TypeOrganic, TypeElectronic, TypeHazardous, TypeOther,
}

// ParseType validates a raw waste-type string against the enumeration.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown waste type %q", s)
}
