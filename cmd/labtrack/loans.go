package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lab-inventory-backend/internal/booking"
	"lab-inventory-backend/internal/model"
)

var (
	room    string
	dueDate string
	loanLab string
)

func init() {
	lendCmd := &cobra.Command{
		Use:   "lend <item> <borrower>",
		Short: "Lend a book or piece of equipment",
		Args:  cobra.ExactArgs(2),
		RunE:  lend,
	}
	lendCmd.Flags().StringVar(&loanLab, "lab", "library", "Lab the item belongs to")
	lendCmd.Flags().StringVar(&room, "room", "", "Borrower's room or group")
	lendCmd.Flags().StringVar(&dueDate, "due", "", "Due date (YYYY-MM-DD)")
	lendCmd.Flags().StringVar(&notes, "notes", "", "Notes")

	returnCmd := &cobra.Command{
		Use:   "return <loan id>",
		Short: "Mark a loan as returned",
		Args:  cobra.ExactArgs(1),
		RunE:  returnLoan,
	}

	loansCmd := &cobra.Command{
		Use:   "loans [lab]",
		Short: "List loans",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listLoans,
	}

	RootCmd.AddCommand(lendCmd, returnCmd, loansCmd)
}

func lend(cmd *cobra.Command, args []string) error {
	ctx, done := current.context()
	defer done()

	loan, task, err := current.svc.Lend(ctx, booking.LendRequest{
		Lab:      loanLab,
		Item:     args[0],
		Borrower: args[1],
		Room:     room,
		DueDate:  dueDate,
		Notes:    notes,
	})
	if err != nil {
		return err
	}
	current.settle(task)

	if jsonOutput {
		return printJSON(loan)
	}
	fmt.Fprintf(stdout, "Lent %q to %s (loan %s)\n", loan.Item, loan.Borrower, loan.ID)
	return nil
}

func returnLoan(cmd *cobra.Command, args []string) error {
	ctx, done := current.context()
	defer done()

	loan, task, err := current.svc.Return(ctx, args[0])
	if err != nil {
		return loanError(args[0], err)
	}
	current.settle(task)

	if jsonOutput {
		return printJSON(loan)
	}
	fmt.Fprintf(stdout, "Returned %q from %s at %s\n", loan.Item, loan.Borrower, localTimePtr(loan))
	return nil
}

func localTimePtr(l model.Loan) string {
	if l.ReturnedAt == nil {
		return "unknown time"
	}
	return localTime(*l.ReturnedAt)
}

func listLoans(cmd *cobra.Command, args []string) error {
	var lab model.Lab
	if len(args) > 0 {
		lab, _ = model.ParseLabFilter(args[0])
	}
	ctx, done := current.context()
	defer done()

	loans, err := current.svc.Loans(ctx, lab)
	if err != nil {
		return err
	}
	return printLoans(loans)
}
