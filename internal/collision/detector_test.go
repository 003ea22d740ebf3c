package collision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lab-inventory-backend/internal/model"
)

func TestDetect(t *testing.T) {
	existing := []model.Reservation{
		{ID: "r1", Lab: model.LabScience, Date: "2024-05-01", TimeRange: "08:00-09:00", Requester: "Ana"},
	}

	testCases := []struct {
		name      string
		candidate model.Reservation
		expected  bool
	}{
		{
			name:      "Overlapping range in same lab and date",
			candidate: model.Reservation{Lab: model.LabScience, Date: "2024-05-01", TimeRange: "08:30-09:30"},
			expected:  true,
		},
		{
			name:      "Different lab",
			candidate: model.Reservation{Lab: model.LabComputing, Date: "2024-05-01", TimeRange: "08:30-09:30"},
			expected:  false,
		},
		{
			name:      "Different date",
			candidate: model.Reservation{Lab: model.LabScience, Date: "2024-05-02", TimeRange: "08:30-09:30"},
			expected:  false,
		},
		{
			name:      "Adjacent range",
			candidate: model.Reservation{Lab: model.LabScience, Date: "2024-05-01", TimeRange: "09:00 - 10:00"},
			expected:  false,
		},
		{
			name:      "Lab synonym and timestamp suffix",
			candidate: model.Reservation{Lab: "Ciencias", Date: "2024-05-01T07:00:00Z", TimeRange: "07:30 - 08:15"},
			expected:  true,
		},
		{
			name:      "Unparseable candidate range",
			candidate: model.Reservation{Lab: model.LabScience, Date: "2024-05-01", TimeRange: "morning"},
			expected:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Detect(tc.candidate, existing))
		})
	}
}

func TestDetect_EmptyExisting(t *testing.T) {
	candidate := model.Reservation{Lab: model.LabScience, Date: "2024-05-01", TimeRange: "08:00-09:00"}
	assert.False(t, Detect(candidate, nil))
}

func TestDetect_UnparseableExistingNeverBlocks(t *testing.T) {
	existing := []model.Reservation{
		{ID: "bad", Lab: model.LabScience, Date: "2024-05-01", TimeRange: "all day"},
		{ID: "reversed", Lab: model.LabScience, Date: "2024-05-01", TimeRange: "10:00-08:00"},
	}
	candidate := model.Reservation{Lab: model.LabScience, Date: "2024-05-01", TimeRange: "08:00-09:00"}
	assert.False(t, Detect(candidate, existing))
}

func TestFindConflict_ReturnsFirstHit(t *testing.T) {
	existing := []model.Reservation{
		{ID: "a", Lab: model.LabLibrary, Date: "2024-05-01", TimeRange: "10:00-11:00"},
		{ID: "b", Lab: model.LabLibrary, Date: "2024-05-01", TimeRange: "10:30-12:00"},
	}
	candidate := model.Reservation{Lab: model.LabLibrary, Date: "2024-05-01", TimeRange: "10:45-11:15"}

	other, found := FindConflict(candidate, existing)
	require.True(t, found)
	assert.Equal(t, "a", other.ID)
}

func TestCheck_ConflictErrorNamesLabAndDate(t *testing.T) {
	existing := []model.Reservation{
		{ID: "r1", Lab: model.LabScience, Date: "2024-05-01", TimeRange: "08:00-09:00", Requester: "Ana"},
	}

	err := Check(model.Reservation{Lab: "ciencias", Date: "2024-05-01", TimeRange: "08:30-09:00"}, existing)
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, model.LabScience, conflict.Lab)
	assert.Equal(t, "2024-05-01", conflict.Date)
	assert.Equal(t, "r1", conflict.With.ID)
	assert.Contains(t, err.Error(), "science")
	assert.Contains(t, err.Error(), "2024-05-01")

	assert.NoError(t, Check(model.Reservation{Lab: "science", Date: "2024-05-01", TimeRange: "09:00-10:00"}, existing))
}
