package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/remote"
	"lab-inventory-backend/internal/report"
)

var stdout io.Writer = os.Stdout

// remoteProblem describes why the server did not take a request.
func remoteProblem(err error) string {
	var se *remote.StatusError
	if errors.As(err, &se) && se.Unauthorized() {
		return "session rejected by the server, update session_cookie"
	}
	return fmt.Sprintf("server unreachable (%v)", err)
}

// loanError rewords loan API failures for the operator.
func loanError(id string, err error) error {
	switch {
	case remote.IsNotFound(err):
		return fmt.Errorf("no loan with id %s", id)
	case remote.IsConflict(err):
		return fmt.Errorf("loan %s is already returned", id)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReservations(rs []model.Reservation) error {
	if jsonOutput {
		return printJSON(rs)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLAB\tDATE\tTIME\tREQUESTER\tGROUP\tORIGIN")
	for _, r := range rs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Lab, r.DateKey(), r.TimeRange, r.Requester, r.Group, r.Origin)
	}
	return w.Flush()
}

func printLoans(loans []model.Loan) error {
	if jsonOutput {
		return printJSON(loans)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLAB\tITEM\tBORROWER\tROOM\tDUE\tSTATUS")
	for _, l := range loans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.Lab, l.Item, l.Borrower, l.Room, l.DueDate, l.Status)
	}
	return w.Flush()
}

func printHistory(events []model.HistoryEvent) error {
	if jsonOutput {
		return printJSON(events)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tLAB\tACTION\tENTITY\tID\tUSER")
	for _, ev := range events {
		when := ""
		if !ev.CreatedAt.IsZero() {
			when = ev.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", when, ev.Lab, ev.Action, ev.EntityType, ev.EntityID, ev.User)
	}
	return w.Flush()
}

func printWindow(win report.Window) error {
	if jsonOutput {
		return printJSON(win)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Lab:\t%s\n", win.Lab)
	if win.From != "" || win.To != "" {
		fmt.Fprintf(w, "Window:\t%s .. %s\n", win.From, win.To)
	}
	fmt.Fprintf(w, "Movements:\t%d\n", win.Movements)
	fmt.Fprintf(w, "Loans created:\t%d\n", win.LoansCreated)
	fmt.Fprintf(w, "Loans returned:\t%d\n", win.LoansReturned)
	fmt.Fprintf(w, "Pending loans:\t%d\n", win.PendingLoans)
	if win.MostActiveModule != "" {
		fmt.Fprintf(w, "Most active:\t%s\n", win.MostActiveModule)
	}
	printEntries(w, "Top rooms", win.TopRooms)
	printEntries(w, "Top people", win.TopPeople)
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "\n%s\n", win.Summary)
	return err
}

func printEntries(w io.Writer, title string, entries []report.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%d\n", e.Name, e.Count)
	}
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
