package report

import (
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lab-inventory-backend/internal/model"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func loanEvent(action, id string, at time.Duration, data map[string]any) model.HistoryEvent {
	return model.HistoryEvent{
		Lab:        model.LabLibrary,
		Action:     action,
		EntityType: model.EntityLoan,
		EntityID:   id,
		CreatedAt:  base.Add(at),
		Data:       data,
	}
}

func TestAggregate_PendingLoans(t *testing.T) {
	events := []model.HistoryEvent{
		loanEvent("create", "A", 0, map[string]any{"room": "2A", "borrower": "Luis"}),
		loanEvent("create", "B", time.Hour, map[string]any{"room": "2A", "borrower": "Marta"}),
		loanEvent("return", "A", 2*time.Hour, nil),
	}

	w := Aggregate(events, Filter{})
	assert.Equal(t, 3, w.Movements)
	assert.Equal(t, 2, w.LoansCreated)
	assert.Equal(t, 1, w.LoansReturned)
	assert.Equal(t, 1, w.PendingLoans)
	assert.Equal(t, []Entry{{Name: "2A", Count: 2}}, w.TopRooms)
	assert.Equal(t, []Entry{{Name: "Luis", Count: 1}, {Name: "Marta", Count: 1}}, w.TopPeople)
}

func TestAggregate_ProcessesChronologically(t *testing.T) {
	// Newest-first input, as served by the history API.
	events := []model.HistoryEvent{
		loanEvent("Returned", "A", 2*time.Hour, nil),
		loanEvent("create", "A", 0, nil),
	}

	w := Aggregate(events, Filter{})
	assert.Equal(t, 0, w.PendingLoans)
	assert.Equal(t, "Returned", events[0].Action, "input must not be reordered")
}

func TestAggregate_ReturnSynonyms(t *testing.T) {
	events := []model.HistoryEvent{
		loanEvent("CREATE", "A", 0, nil),
		loanEvent("create", "B", time.Minute, nil),
		loanEvent("create", "C", 2*time.Minute, nil),
		loanEvent("devolucion", "A", 3*time.Minute, nil),
		loanEvent("returned", "B", 4*time.Minute, nil),
		loanEvent("Return", "C", 5*time.Minute, nil),
	}

	w := Aggregate(events, Filter{})
	assert.Equal(t, 3, w.LoansCreated)
	assert.Equal(t, 3, w.LoansReturned)
	assert.Equal(t, 0, w.PendingLoans)
}

func TestAggregate_NonLoanEventsOnlyCountAsMovements(t *testing.T) {
	events := []model.HistoryEvent{
		{Lab: model.LabScience, Action: "create", EntityType: "reservation", EntityID: "r1", CreatedAt: base},
		{Lab: model.LabScience, Action: "delete", EntityType: "reservation", EntityID: "r1", CreatedAt: base.Add(time.Minute)},
	}

	w := Aggregate(events, Filter{})
	assert.Equal(t, 2, w.Movements)
	assert.Equal(t, 0, w.LoansCreated)
	assert.Empty(t, w.TopRooms)
	assert.Equal(t, "science", w.MostActiveModule)
}

func TestAggregate_LabAndWindowFilter(t *testing.T) {
	loc := time.UTC
	f, err := NewFilter("biblioteca", "2024-05-01", "2024-05-01", loc)
	require.NoError(t, err)

	events := []model.HistoryEvent{
		{Lab: "Biblioteca", Action: "create", EntityType: "loan", EntityID: "in-window", CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, loc)},
		{Lab: model.LabLibrary, Action: "create", EntityType: "loan", EntityID: "last-second", CreatedAt: time.Date(2024, 5, 1, 23, 59, 59, 0, loc)},
		{Lab: model.LabLibrary, Action: "create", EntityType: "loan", EntityID: "next-day", CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, loc)},
		{Lab: model.LabLibrary, Action: "create", EntityType: "loan", EntityID: "day-before", CreatedAt: time.Date(2024, 4, 30, 23, 59, 59, 0, loc)},
		{Lab: model.LabScience, Action: "create", EntityType: "loan", EntityID: "other-lab", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, loc)},
		{Lab: model.LabLibrary, Action: "create", EntityType: "loan", EntityID: "no-timestamp"},
	}

	w := Aggregate(events, f)
	assert.Equal(t, "library", w.Lab)
	assert.Equal(t, "2024-05-01", w.From)
	assert.Equal(t, "2024-05-01", w.To)
	assert.Equal(t, 2, w.Movements)
	assert.Equal(t, 2, w.PendingLoans)
}

func TestAggregate_TopListsTruncateWithStableTies(t *testing.T) {
	var events []model.HistoryEvent
	for i := 0; i < 12; i++ {
		events = append(events, loanEvent("create", fmt.Sprintf("L%d", i), time.Duration(i)*time.Minute,
			map[string]any{"grupo": fmt.Sprintf("G%02d", i), "solicitante": "Ana"}))
	}
	// G05 gets a second loan, so it ranks first; every other group ties at one.
	events = append(events, loanEvent("create", "L99", time.Hour, map[string]any{"group": "G05", "requester": "Ana"}))

	w := Aggregate(events, Filter{})
	require.Len(t, w.TopRooms, TopN)
	assert.Equal(t, Entry{Name: "G05", Count: 2}, w.TopRooms[0])
	assert.Equal(t, "G00", w.TopRooms[1].Name)
	assert.Equal(t, "G01", w.TopRooms[2].Name)
	assert.Equal(t, "G09", w.TopRooms[9].Name)
	assert.Equal(t, []Entry{{Name: "Ana", Count: 13}}, w.TopPeople)
}

func TestAggregate_PersonFallsBackToUser(t *testing.T) {
	ev := loanEvent("create", "A", 0, map[string]any{"room": "Lab 1"})
	ev.User = "coordinator"

	w := Aggregate([]model.HistoryEvent{ev}, Filter{})
	assert.Equal(t, []Entry{{Name: "coordinator", Count: 1}}, w.TopPeople)
}

func TestAggregate_Deterministic(t *testing.T) {
	events := []model.HistoryEvent{
		loanEvent("create", "A", 0, map[string]any{"room": "1A", "borrower": "Ana"}),
		loanEvent("create", "B", 0, map[string]any{"room": "1B", "borrower": "Beto"}),
		loanEvent("create", "C", 0, map[string]any{"room": "1C", "borrower": "Caro"}),
		{Lab: model.LabScience, Action: "create", EntityType: "reservation", CreatedAt: base},
	}

	first := Aggregate(events, Filter{})
	second := Aggregate(events, Filter{})
	assert.Equal(t, first, second)
	assert.Equal(t, []Entry{{"1A", 1}, {"1B", 1}, {"1C", 1}}, first.TopRooms)
}

func TestAggregate_Summary(t *testing.T) {
	empty := Aggregate(nil, Filter{Lab: model.LabScience})
	assert.Equal(t, "The science lab recorded no movements across the recorded history.", empty.Summary)

	events := []model.HistoryEvent{
		loanEvent("create", "A", 0, map[string]any{"room": "2A", "borrower": "Luis"}),
	}
	f, err := NewFilter("all", "2024-05-01", "2024-05-31", time.UTC)
	require.NoError(t, err)
	w := Aggregate(events, f)
	assert.Equal(t, "All labs recorded 1 movement between 2024-05-01 and 2024-05-31."+
		" 1 loan was created and 0 returned, leaving an estimated 1 pending."+
		" The most active module was library."+
		" 2A borrowed the most (1 loan)."+
		" Luis was the most frequent borrower (1 loan).", w.Summary)
}

func TestNewFilter_DayEndsAtWallClockMidnightAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	testCases := []struct {
		name string
		day  string
	}{
		{name: "Spring forward", day: "2024-03-10"},
		{name: "Fall back", day: "2024-11-03"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter("", tc.day, tc.day, loc)
			require.NoError(t, err)
			assert.Equal(t, tc.day+" 00:00:00", f.From.Format("2006-01-02 15:04:05"))
			assert.Equal(t, tc.day+" 23:59:59", f.To.Format("2006-01-02 15:04:05"))

			day, _ := time.ParseInLocation(model.DateLayout, tc.day, loc)
			late := time.Date(day.Year(), day.Month(), day.Day(), 23, 30, 0, 0, loc)
			nextDay := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 30, 0, 0, loc)
			w := Aggregate([]model.HistoryEvent{
				{Lab: model.LabLibrary, Action: "create", EntityType: "reservation", CreatedAt: late},
				{Lab: model.LabLibrary, Action: "create", EntityType: "reservation", CreatedAt: nextDay},
			}, f)
			assert.Equal(t, 1, w.Movements)
		})
	}
}

func TestNewFilter_Errors(t *testing.T) {
	_, err := NewFilter("", "05/01/2024", "", time.UTC)
	assert.Error(t, err)

	_, err = NewFilter("", "", "tomorrow", time.UTC)
	assert.Error(t, err)

	_, err = NewFilter("", "2024-05-02", "2024-05-01", time.UTC)
	assert.Error(t, err)

	f, err := NewFilter("", "2024-05-01", "2024-05-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, model.Lab(""), f.Lab)
	assert.Equal(t, time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), f.To)
}
