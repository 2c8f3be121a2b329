package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage the book catalog"}

	var isbn, category string
	var copies int
	add := &cobra.Command{
		Use:   "add TITLE AUTHOR",
		Short: "Add a book with a number of copies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.mgr.AddBook(args[0], args[1], isbn, category, copies)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book %s (%d copies)\n", b.ID, b.TotalCopies)
			return nil
		},
	}
	add.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	add.Flags().StringVar(&category, "category", "", "category")
	add.Flags().IntVar(&copies, "copies", 1, "number of copies owned")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.mgr.GetBooks()
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search title, author, ISBN and category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.mgr.SearchBooks(strings.Join(args, " "))
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a book that has no copies on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.RemoveBook(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed book %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, search, remove)
	return cmd
}

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "member", Short: "Manage members"}

	add := &cobra.Command{
		Use:   "add NAME ROLL_NO DEPARTMENT EMAIL",
		Short: "Register a member",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr.AddMember(args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %s\n", m.Name, m.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := a.mgr.GetMembers()
			if err != nil {
				return err
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a member holding no books",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.RemoveMember(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed member %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func newIssueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issue BOOK_ID MEMBER_ID",
		Short: "Lend a copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := a.mgr.IssueBook(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issued loan %s, due %s\n", loan.ID, loan.DueDate.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return LOAN_ID",
		Short: "Return a loaned copy and settle its fine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := a.mgr.ReturnBook(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), receipt.Message)
			return nil
		},
	}
}

func newLoansCmd(a *app) *cobra.Command {
	var member string
	var active, overdue bool
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				loans []library.Loan
				err   error
			)
			switch {
			case member != "" && overdue:
				loans, err = a.mgr.OverdueLoansForMember(member)
			case member != "":
				loans, err = a.mgr.LoansForMember(member, active)
			case overdue:
				loans, err = a.mgr.OverdueLoans()
			case active:
				loans, err = a.mgr.ActiveLoans()
			default:
				loans, err = a.mgr.GetLoans()
			}
			if err != nil {
				return err
			}
			printLoans(cmd.OutOrStdout(), loans)
			return nil
		},
	}
	cmd.Flags().StringVar(&member, "member", "", "only loans of this member")
	cmd.Flags().BoolVar(&active, "active", false, "only loans still out")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only loans past their due date")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show circulation statistics and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.mgr.Stats()
			if err != nil {
				return err
			}
			loans, err := a.mgr.RecentActivity(recent)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), st)
			fmt.Fprintln(cmd.OutOrStdout(), "\nRecent activity:")
			printLoans(cmd.OutOrStdout(), loans)
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", library.DefaultRecentLimit, "number of recent loans to show")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check that availability counters match outstanding loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run := a.mgr.Audit
			if fix {
				run = a.mgr.Reconcile
			}
			found, err := run()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "All availability counters are consistent.")
				return nil
			}
			for _, d := range found {
				fmt.Fprintf(out, "%-36s %-30s stored=%d expected=%d\n", d.BookID, truncateString(d.Title, 30), d.Stored, d.Expected)
			}
			if fix {
				fmt.Fprintf(out, "Reconciled %d book(s).\n", len(found))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite diverging counters")
	return cmd
}

// ------------------ Output helpers ------------------

func printBooks(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in library.")
		return
	}
	fmt.Fprintf(w, "%-36s %-30s %-25s %s\n", "ID", "Title", "Author", "Available")
	fmt.Fprintln(w, strings.Repeat("-", 105))
	for _, b := range books {
		fmt.Fprintln(w, library.PrettyBook(b))
	}
}

func printMembers(w io.Writer, members []library.Member) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No members registered.")
		return
	}
	fmt.Fprintf(w, "%-36s %-25s %-12s %-20s %s\n", "ID", "Name", "Roll No", "Department", "Email")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, m := range members {
		fmt.Fprintf(w, "%-36s %-25s %-12s %-20s %s\n", m.ID, truncateString(m.Name, 25), truncateString(m.RollNo, 12), truncateString(m.Department, 20), m.Email)
	}
}

func printLoans(w io.Writer, loans []library.Loan) {
	if len(loans) == 0 {
		fmt.Fprintln(w, "No loans.")
		return
	}
	fmt.Fprintf(w, "%-36s %-36s %-10s %-10s %-8s %s\n", "Loan", "Book", "Issued", "Due", "Status", "Fine")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, l := range loans {
		fmt.Fprintf(w, "%-36s %-36s %-10s %-10s %-8s %d\n", l.ID, l.BookID,
			l.IssueDate.Format("2006-01-02"), l.DueDate.Format("2006-01-02"), l.Status, l.Fine)
	}
}

func printStats(w io.Writer, st library.Stats) {
	fmt.Fprintf(w, "Titles:           %d\n", st.TotalTitles)
	fmt.Fprintf(w, "Copies:           %d (%d available)\n", st.TotalCopies, st.AvailableCopies)
	fmt.Fprintf(w, "Issued:           %d\n", st.IssuedCount)
	fmt.Fprintf(w, "Overdue:          %d\n", st.OverdueCount)
	fmt.Fprintf(w, "Members:          %d\n", st.MemberCount)
	fmt.Fprintf(w, "Fines collected:  %d\n", st.FinesCollected)
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
