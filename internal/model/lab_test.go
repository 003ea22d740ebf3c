package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLab(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Lab
	}{
		{"science", LabScience},
		{"  Science ", LabScience},
		{"Ciencias", LabScience},
		{"Laboratorio de Ciencias", LabScience},
		{"lab_ciencias", LabScience},
		{"computing", LabComputing},
		{"Cómputo", LabComputing},
		{"sala-de-computo", LabComputing},
		{"Laboratorio de Informática", LabComputing},
		{"library", LabLibrary},
		{"Biblioteca", LabLibrary},
		{"gym", LabUnknown},
		{"", LabUnknown},
		{"unknown", LabUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeLab(tc.raw))
		})
	}
}

func TestParseLabFilter(t *testing.T) {
	_, ok := ParseLabFilter("")
	assert.False(t, ok)
	_, ok = ParseLabFilter("ALL")
	assert.False(t, ok)
	_, ok = ParseLabFilter("todos")
	assert.False(t, ok)

	lab, ok := ParseLabFilter("biblioteca")
	assert.True(t, ok)
	assert.Equal(t, LabLibrary, lab)
}

func TestReservation_DateKey(t *testing.T) {
	assert.Equal(t, "2024-05-01", Reservation{Date: "2024-05-01T08:00:00Z"}.DateKey())
	assert.Equal(t, "2024-05-01", Reservation{Date: "2024-05-01"}.DateKey())
	assert.Equal(t, "2024", Reservation{Date: "2024"}.DateKey())
}
