package models

import (
	"fmt"
	"sort"
)

// PartyInfo holds the identity block for one litigant. Every attribute is
// optional free text: a nil pointer means the source document never stated
// the value, which is distinct from an empty string entered during review.
type PartyInfo struct {
	Name      *string `json:"name"`
	Gender    *string `json:"gender"`
	Ethnicity *string `json:"ethnicity"`
	DOB       *string `json:"dob"`
	Address   *string `json:"address"`
	IDCard    *string `json:"id_card"`
	Contact   *string `json:"contact"`
}

// Lawsuit is the complete record extracted from a civil complaint. Plaintiff
// and defendant are always present as sub-records even when all of their
// fields are unknown; claims and facts_and_reasons are required text blocks
// that keep the original multi-line enumeration.
type Lawsuit struct {
	Plaintiff       PartyInfo `json:"plaintiff"`
	Defendant       PartyInfo `json:"defendant"`
	Claims          string    `json:"claims"`
	FactsAndReasons string    `json:"facts_and_reasons"`
	CourtName       *string   `json:"court_name"`
	Date            *string   `json:"date"`
}

// partyLeaves maps a party field-path suffix to accessors on PartyInfo.
var partyLeaves = []struct {
	suffix string
	get    func(*PartyInfo) *string
	set    func(*PartyInfo, *string)
}{
	{"name", func(p *PartyInfo) *string { return p.Name }, func(p *PartyInfo, v *string) { p.Name = v }},
	{"gender", func(p *PartyInfo) *string { return p.Gender }, func(p *PartyInfo, v *string) { p.Gender = v }},
	{"ethnicity", func(p *PartyInfo) *string { return p.Ethnicity }, func(p *PartyInfo, v *string) { p.Ethnicity = v }},
	{"dob", func(p *PartyInfo) *string { return p.DOB }, func(p *PartyInfo, v *string) { p.DOB = v }},
	{"address", func(p *PartyInfo) *string { return p.Address }, func(p *PartyInfo, v *string) { p.Address = v }},
	{"id_card", func(p *PartyInfo) *string { return p.IDCard }, func(p *PartyInfo, v *string) { p.IDCard = v }},
	{"contact", func(p *PartyInfo) *string { return p.Contact }, func(p *PartyInfo, v *string) { p.Contact = v }},
}

// FieldPaths returns the canonical 18 editable leaf paths, sorted.
func FieldPaths() []string {
	paths := make([]string, 0, 18)
	for _, prefix := range []string{"plaintiff.", "defendant."} {
		for _, leaf := range partyLeaves {
			paths = append(paths, prefix+leaf.suffix)
		}
	}
	paths = append(paths, "claims", "facts_and_reasons", "court_name", "date")
	sort.Strings(paths)
	return paths
}

// Fields flattens the record into the 18 leaf paths with their string values.
// Unknown optional fields come back as "" so a review form can pre-populate
// every input without nil checks.
func (l *Lawsuit) Fields() map[string]string {
	out := make(map[string]string, 18)
	for _, leaf := range partyLeaves {
		out["plaintiff."+leaf.suffix] = deref(leaf.get(&l.Plaintiff))
		out["defendant."+leaf.suffix] = deref(leaf.get(&l.Defendant))
	}
	out["claims"] = l.Claims
	out["facts_and_reasons"] = l.FactsAndReasons
	out["court_name"] = deref(l.CourtName)
	out["date"] = deref(l.Date)
	return out
}

// LawsuitFromFields builds a fresh record from a complete field set. Every
// one of the 18 leaf paths must be present: the review contract passes all
// fields through even when unchanged, there is no partial-record merge. An
// empty value for an optional leaf is stored as unknown (nil).
func LawsuitFromFields(fields map[string]string) (*Lawsuit, error) {
	for path := range fields {
		if !knownFieldPath(path) {
			return nil, fmt.Errorf("unknown field path: %q", path)
		}
	}
	for _, path := range FieldPaths() {
		if _, ok := fields[path]; !ok {
			return nil, fmt.Errorf("missing field path: %q", path)
		}
	}

	l := &Lawsuit{}
	for _, leaf := range partyLeaves {
		leaf.set(&l.Plaintiff, optional(fields["plaintiff."+leaf.suffix]))
		leaf.set(&l.Defendant, optional(fields["defendant."+leaf.suffix]))
	}
	l.Claims = fields["claims"]
	l.FactsAndReasons = fields["facts_and_reasons"]
	l.CourtName = optional(fields["court_name"])
	l.Date = optional(fields["date"])
	return l, nil
}

// Replacements derives the fixed placeholder-token map used by the template
// filler. It is recomputed on every call, never stored; unknown fields map
// to the empty string.
func (l *Lawsuit) Replacements() map[string]string {
	return map[string]string{
		"{{plaintiff_name}}":      deref(l.Plaintiff.Name),
		"{{plaintiff_gender}}":    deref(l.Plaintiff.Gender),
		"{{plaintiff_ethnicity}}": deref(l.Plaintiff.Ethnicity),
		"{{plaintiff_dob}}":       deref(l.Plaintiff.DOB),
		"{{plaintiff_address}}":   deref(l.Plaintiff.Address),
		"{{plaintiff_id_card}}":   deref(l.Plaintiff.IDCard),
		"{{plaintiff_contact}}":   deref(l.Plaintiff.Contact),
		"{{defendant_name}}":      deref(l.Defendant.Name),
		"{{defendant_gender}}":    deref(l.Defendant.Gender),
		"{{defendant_ethnicity}}": deref(l.Defendant.Ethnicity),
		"{{defendant_dob}}":       deref(l.Defendant.DOB),
		"{{defendant_address}}":   deref(l.Defendant.Address),
		"{{defendant_id_card}}":   deref(l.Defendant.IDCard),
		"{{defendant_contact}}":   deref(l.Defendant.Contact),
		"{{claims}}":              l.Claims,
		"{{facts_and_reasons}}":   l.FactsAndReasons,
		"{{court_name}}":          deref(l.CourtName),
		"{{date}}":                deref(l.Date),
	}
}

func knownFieldPath(path string) bool {
	for _, p := range FieldPaths() {
		if p == path {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
