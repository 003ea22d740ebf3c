// Package report rolls history events up into per-window summaries.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/wire"
)

// TopN is the length of the ranked lists in a Window.
const TopN = 10

var (
	roomKeys    = []string{"room", "group", "grupo", "salon", "aula", "classroom", "course", "curso"}
	personKeys  = []string{"requester", "borrower", "person", "solicitante", "prestatario", "student", "alumno", "name"}
	returnWords = []string{"return", "returned", "devol"}
)

// Filter selects the events that enter a report.
type Filter struct {
	Lab  model.Lab // empty selects every lab
	From time.Time // inclusive, zero means unbounded
	To   time.Time // inclusive, zero means unbounded
}

// NewFilter builds a Filter from query values. Dates use model.DateLayout; from starts at
// 00:00:00 and to ends at 23:59:59 in loc.
func NewFilter(lab, from, to string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.Local
	}
	var f Filter
	if l, ok := model.ParseLabFilter(lab); ok {
		f.Lab = l
	}

	if s := strings.TrimSpace(from); s != "" {
		d, err := time.ParseInLocation(model.DateLayout, s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		f.From = d
	}
	if s := strings.TrimSpace(to); s != "" {
		d, err := time.ParseInLocation(model.DateLayout, s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		f.To = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	return f, nil
}

func (f Filter) bounded() bool { return !f.From.IsZero() || !f.To.IsZero() }

func (f Filter) contains(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

// Entry is one line of a ranked list.
type Entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Window is the computed rollup for one Filter.
type Window struct {
	Lab              string  `json:"lab"`
	From             string  `json:"from,omitempty"`
	To               string  `json:"to,omitempty"`
	Movements        int     `json:"movements"`
	LoansCreated     int     `json:"loansCreated"`
	LoansReturned    int     `json:"loansReturned"`
	PendingLoans     int     `json:"pendingLoans"`
	MostActiveModule string  `json:"mostActiveModule,omitempty"`
	Modules          []Entry `json:"modules"`
	TopRooms         []Entry `json:"topRooms"`
	TopPeople        []Entry `json:"topPeople"`
	Summary          string  `json:"summary"`
}

// Aggregate computes the Window for events under filter. Events are visited in
// chronological order; the input slice is not modified.
func Aggregate(events []model.HistoryEvent, filter Filter) Window {
	ordered := make([]model.HistoryEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	w := Window{Lab: "all"}
	if filter.Lab != "" {
		w.Lab = string(filter.Lab)
	}
	if !filter.From.IsZero() {
		w.From = filter.From.Format(model.DateLayout)
	}
	if !filter.To.IsZero() {
		w.To = filter.To.Format(model.DateLayout)
	}

	modules := newTally()
	rooms := newTally()
	people := newTally()
	lastSeen := make(map[string]string)

	for _, ev := range ordered {
		lab := model.NormalizeLab(string(ev.Lab))
		if filter.Lab != "" && lab != filter.Lab {
			continue
		}
		if ev.CreatedAt.IsZero() && filter.bounded() {
			continue
		}
		if !filter.contains(ev.CreatedAt) {
			continue
		}

		w.Movements++
		modules.add(string(lab))

		entity := strings.ToLower(ev.EntityType)
		action := strings.ToLower(ev.Action)
		if !strings.Contains(entity, "loan") {
			continue
		}

		id := ev.EntityID
		if id == "" {
			id = wire.String(ev.Data, "id")
		}

		switch {
		case strings.Contains(action, "create"):
			w.LoansCreated++
			rooms.add(wire.String(ev.Data, roomKeys...))
			person := wire.String(ev.Data, personKeys...)
			if person == "" {
				person = ev.User
			}
			people.add(person)
			if id != "" {
				lastSeen[id] = "out"
			}
		case containsAny(action, returnWords):
			w.LoansReturned++
			if id != "" {
				lastSeen[id] = "in"
			}
		}
	}

	for _, state := range lastSeen {
		if state == "out" {
			w.PendingLoans++
		}
	}

	w.Modules = modules.top(len(modules.order))
	if len(w.Modules) > 0 {
		w.MostActiveModule = w.Modules[0].Name
	}
	w.TopRooms = rooms.top(TopN)
	w.TopPeople = people.top(TopN)
	w.Summary = summarize(w)
	return w
}

func containsAny(s string, words []string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

// tally counts names and remembers the order in which they were first seen.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, seen := t.counts[name]; !seen {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

func (t *tally) top(n int) []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, name := range t.order {
		entries = append(entries, Entry{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func summarize(w Window) string {
	scope := "All labs"
	if w.Lab != "all" {
		scope = fmt.Sprintf("The %s lab", w.Lab)
	}

	var period string
	switch {
	case w.From != "" && w.To != "":
		period = fmt.Sprintf("between %s and %s", w.From, w.To)
	case w.From != "":
		period = "since " + w.From
	case w.To != "":
		period = "up to " + w.To
	default:
		period = "across the recorded history"
	}

	if w.Movements == 0 {
		return fmt.Sprintf("%s recorded no movements %s.", scope, period)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s recorded %d %s %s.", scope, w.Movements, plural(w.Movements, "movement", "movements"), period)
	fmt.Fprintf(&b, " %d %s created and %d returned, leaving an estimated %d pending.",
		w.LoansCreated, plural(w.LoansCreated, "loan was", "loans were"), w.LoansReturned, w.PendingLoans)
	if w.Lab == "all" && w.MostActiveModule != "" {
		fmt.Fprintf(&b, " The most active module was %s.", w.MostActiveModule)
	}
	if len(w.TopRooms) > 0 {
		top := w.TopRooms[0]
		fmt.Fprintf(&b, " %s borrowed the most (%d %s).", top.Name, top.Count, plural(top.Count, "loan", "loans"))
	}
	if len(w.TopPeople) > 0 {
		top := w.TopPeople[0]
		fmt.Fprintf(&b, " %s was the most frequent borrower (%d %s).", top.Name, top.Count, plural(top.Count, "loan", "loans"))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
