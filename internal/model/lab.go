package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lab is one of the tracked areas of the school.
type Lab string

const (
	LabScience   Lab = "science"
	LabComputing Lab = "computing"
	LabLibrary   Lab = "library"
	LabUnknown   Lab = "unknown"
)

var labSynonyms = map[string]Lab{
	"science":         LabScience,
	"sciences":        LabScience,
	"ciencia":         LabScience,
	"ciencias":        LabScience,
	"lab":             LabScience,
	"laboratory":      LabScience,
	"laboratorio":     LabScience,
	"computing":       LabComputing,
	"computer":        LabComputing,
	"computers":       LabComputing,
	"computo":         LabComputing,
	"computacion":     LabComputing,
	"informatica":     LabComputing,
	"sala de computo": LabComputing,
	"library":         LabLibrary,
	"biblioteca":      LabLibrary,
	"books":           LabLibrary,
	"libros":          LabLibrary,
}

var allLabsTokens = map[string]struct{}{
	"":      {},
	"all":   {},
	"todos": {},
	"todas": {},
	"*":     {},
}

func foldText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// Chained transformers carry state, so each call builds its own.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeLab maps loosely-typed free text (including Spanish names) to a canonical Lab.
func NormalizeLab(raw string) Lab {
	s := foldText(raw)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	if lab, ok := labSynonyms[s]; ok {
		return lab
	}

	switch {
	case strings.Contains(s, "cienc"), strings.Contains(s, "scien"), strings.Contains(s, "quim"), strings.Contains(s, "chem"):
		return LabScience
	case strings.Contains(s, "comput"), strings.Contains(s, "inform"):
		return LabComputing
	case strings.Contains(s, "bibl"), strings.Contains(s, "libr"):
		return LabLibrary
	}
	return LabUnknown
}

// ParseLabFilter interprets a lab query value. ok is false when the value selects every lab.
func ParseLabFilter(raw string) (lab Lab, ok bool) {
	if _, all := allLabsTokens[foldText(raw)]; all {
		return "", false
	}
	return NormalizeLab(raw), true
}

// String implements fmt.Stringer.
func (l Lab) String() string { return string(l) }
