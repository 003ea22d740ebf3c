package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lab-inventory-backend/internal/booking"
	"lab-inventory-backend/internal/collision"
	"lab-inventory-backend/internal/model"
)

var (
	requester string
	group     string
	notes     string
)

func init() {
	reserveCmd := &cobra.Command{
		Use:     "reserve <lab> <date> <time range>",
		Aliases: []string{"book", "add"},
		Short:   "Reserve a lab",
		Long: `Reserve a lab for a time range on one day.

The lab accepts English or Spanish names (science, ciencias, computo,
biblioteca, ...). The date is YYYY-MM-DD and the time range HH:MM - HH:MM:

    labtrack reserve science 2024-05-01 "08:00 - 09:30" --requester Ana --group 3B

Reservations overlapping an existing one for the same lab and day are refused.
When the server is unreachable the reservation is saved locally.
`,
		Args: cobra.MinimumNArgs(3),
		RunE: reserve,
	}

	reserveCmd.Flags().StringVar(&requester, "requester", "", "Who is booking")
	reserveCmd.Flags().StringVar(&group, "group", "", "Class or group")
	reserveCmd.Flags().StringVar(&notes, "notes", "", "Notes")

	cancelCmd := &cobra.Command{
		Use:     "cancel <lab> <reservation id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Cancel a reservation",
		Args:    cobra.ExactArgs(2),
		RunE:    cancel,
	}

	listCmd := &cobra.Command{
		Use:     "reservations [lab]",
		Aliases: []string{"ls", "list"},
		Short:   "List reservations",
		Args:    cobra.MaximumNArgs(1),
		RunE:    listReservations,
	}

	RootCmd.AddCommand(reserveCmd, cancelCmd, listCmd)
}

func reserve(cmd *cobra.Command, args []string) error {
	ctx, done := current.context()
	defer done()

	res, err := current.svc.Reserve(ctx, booking.ReserveRequest{
		Lab:       args[0],
		Date:      args[1],
		TimeRange: strings.Join(args[2:], " "),
		Requester: requester,
		Group:     group,
		Notes:     notes,
	})
	var conflict *collision.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("blocked: %v", conflict)
	}
	if err != nil {
		return err
	}

	if res.Unchecked {
		fmt.Fprintf(os.Stderr, "warning: time range %q not understood, saved without a collision check\n", res.Reservation.TimeRange)
	}
	if res.RemoteErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %s, reservation saved on this machine only\n", remoteProblem(res.RemoteErr))
	}
	current.settle(res.Audit)

	if jsonOutput {
		return printJSON(res.Reservation)
	}
	fmt.Fprintf(stdout, "Reserved %s on %s %s (%s, id %s)\n",
		res.Reservation.Lab, res.Reservation.Date, res.Reservation.TimeRange, res.Reservation.Origin, res.Reservation.ID)
	return nil
}

func cancel(cmd *cobra.Command, args []string) error {
	lab := model.NormalizeLab(args[0])
	ctx, done := current.context()
	defer done()

	res, err := current.svc.Cancel(ctx, lab, args[1])
	if err != nil {
		return err
	}
	if res.RemoteErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %s, removed from this machine only\n", remoteProblem(res.RemoteErr))
	}
	current.settle(res.Audit)

	fmt.Fprintf(stdout, "Cancelled %s (%s on %s %s)\n", res.Reservation.ID, res.Reservation.Lab, res.Reservation.Date, res.Reservation.TimeRange)
	return nil
}

func listReservations(cmd *cobra.Command, args []string) error {
	var lab model.Lab
	if len(args) > 0 {
		lab, _ = model.ParseLabFilter(args[0])
	}
	ctx, done := current.context()
	defer done()

	res := current.svc.Reservations(ctx, lab)
	if res.Degraded() {
		fmt.Fprintf(os.Stderr, "warning: %s, showing the local copy\n", remoteProblem(res.RemoteErr))
	}
	return printReservations(res.Reservations)
}
