package ontology

import (
	"fmt"
	"strings"
)

// RelationType is the kind of a relationship between two ontology terms.
type RelationType uint8

const (
	// Undefined is the wildcard relation; as a requested type it matches everything.
	Undefined RelationType = iota
	// Identity relates a term to itself.
	Identity
	IsA
	PartOf
	Regulates
	PositiveRegulates
	NegativeRegulates
	HasPart
	OccursIn
	UsedIn
	CapableOf
	CapableOfPartOf
	ReplacedBy
	Consider

	numRelationTypes
)

type relationCodes struct {
	short string
	long  string
}

var relationTable = [numRelationTypes]relationCodes{
	Undefined:         {"?", "undefined"},
	Identity:          {"=", "equals"},
	IsA:               {"I", "is_a"},
	PartOf:            {"P", "part_of"},
	Regulates:         {"R", "regulates"},
	PositiveRegulates: {"+", "positively_regulates"},
	NegativeRegulates: {"-", "negatively_regulates"},
	HasPart:           {"H", "has_part"},
	OccursIn:          {"OI", "occurs_in"},
	UsedIn:            {"UI", "used_in"},
	CapableOf:         {"CO", "capable_of"},
	CapableOfPartOf:   {"CP", "capable_of_part_of"},
	ReplacedBy:        {"replaced_by", "replaced_by"},
	Consider:          {"consider", "consider"},
}

var (
	byShort = make(map[string]RelationType, numRelationTypes)
	byLong  = make(map[string]RelationType, numRelationTypes)
)

func init() {
	for i, c := range relationTable {
		rt := RelationType(i)
		if _, dup := byShort[c.short]; dup {
			panic("ontology: duplicate short relation code " + c.short)
		}
		if _, dup := byLong[c.long]; dup {
			panic("ontology: duplicate long relation code " + c.long)
		}
		byShort[c.short] = rt
		byLong[c.long] = rt
	}
}

// DefaultSlimRelations are the relation types slimming follows when the
// caller does not choose any.
var DefaultSlimRelations = []RelationType{IsA, PartOf, OccursIn}

// AllRelationTypes returns every relation type in declaration order.
func AllRelationTypes() []RelationType {
	all := make([]RelationType, numRelationTypes)
	for i := range all {
		all[i] = RelationType(i)
	}
	return all
}

// ByShortCode resolves a short code such as "I" or "OI".
func ByShortCode(code string) (RelationType, error) {
	if rt, ok := byShort[code]; ok {
		return rt, nil
	}
	return Undefined, fmt.Errorf("%w: short code %q", ErrUnknownRelationType, code)
}

// ByLongCode resolves a long code such as "is_a" or "occurs_in".
func ByLongCode(code string) (RelationType, error) {
	if rt, ok := byLong[code]; ok {
		return rt, nil
	}
	return Undefined, fmt.Errorf("%w: long code %q", ErrUnknownRelationType, code)
}

// ParseRelationTypes parses a comma separated list of short or long codes.
// Empty elements are ignored, so "" yields an empty, non-nil slice.
func ParseRelationTypes(list string) ([]RelationType, error) {
	types := make([]RelationType, 0, 4)
	for _, code := range strings.Split(list, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		rt, err := ByShortCode(code)
		if err != nil {
			if rt, err = ByLongCode(code); err != nil {
				return nil, err
			}
		}
		types = append(types, rt)
	}
	return types, nil
}

// Valid reports whether rt is one of the declared relation types.
func (rt RelationType) Valid() bool { return rt < numRelationTypes }

// ShortCode returns the code used in relationship source files.
func (rt RelationType) ShortCode() string {
	if !rt.Valid() {
		return relationTable[Undefined].short
	}
	return relationTable[rt].short
}

// LongCode returns the OBO style name of the relation.
func (rt RelationType) LongCode() string {
	if !rt.Valid() {
		return relationTable[Undefined].long
	}
	return relationTable[rt].long
}

func (rt RelationType) String() string { return rt.LongCode() }

// MarshalText encodes the relation as its long code.
func (rt RelationType) MarshalText() ([]byte, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRelationType, uint8(rt))
	}
	return []byte(rt.LongCode()), nil
}

// UnmarshalText accepts either a long or a short code.
func (rt *RelationType) UnmarshalText(text []byte) error {
	code := string(text)
	if v, err := ByLongCode(code); err == nil {
		*rt = v
		return nil
	}
	v, err := ByShortCode(code)
	if err != nil {
		return err
	}
	*rt = v
	return nil
}

// Subsumes reports whether an edge of type candidate satisfies a traversal
// restricted to requested.
func Subsumes(requested, candidate RelationType) bool {
	switch {
	case requested == Undefined:
		return true
	case candidate == Identity:
		return true
	case candidate == requested:
		return true
	case requested == Regulates:
		return candidate == PositiveRegulates || candidate == NegativeRegulates
	default:
		return false
	}
}

// SubsumedByAny reports whether candidate matches at least one requested
// type. An empty request places no restriction.
func SubsumedByAny(requested []RelationType, candidate RelationType) bool {
	if len(requested) == 0 {
		return true
	}
	for _, r := range requested {
		if Subsumes(r, candidate) {
			return true
		}
	}
	return false
}

// joinCodes renders relation types as a comma separated list of short codes.
func joinCodes(types []RelationType) string {
	codes := make([]string, len(types))
	for i, rt := range types {
		codes[i] = rt.ShortCode()
	}
	return strings.Join(codes, ",")
}

// CanonicalCodes returns a stable textual key for a set of relation types:
// duplicates removed, declaration order.
func CanonicalCodes(types []RelationType) string {
	var seen [numRelationTypes]bool
	uniq := make([]RelationType, 0, len(types))
	for _, rt := range types {
		if rt.Valid() && !seen[rt] {
			seen[rt] = true
		}
	}
	for i, ok := range seen {
		if ok {
			uniq = append(uniq, RelationType(i))
		}
	}
	return joinCodes(uniq)
}
