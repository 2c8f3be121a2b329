package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-circulation/library"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive circulation desk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			sh := &shell{
				mgr:         a.mgr,
				sc:          bufio.NewScanner(cmd.InOrStdin()),
				out:         cmd.OutOrStdout(),
				interactive: interactive,
			}
			sh.run()
			return nil
		},
	}
}

// shell is the prompt-driven desk. Prompts are printed only when stdin is a
// terminal, so scripted input produces clean output.
type shell struct {
	mgr         *library.LibraryManager
	sc          *bufio.Scanner
	out         io.Writer
	interactive bool
}

func (s *shell) run() {
	if s.interactive {
		fmt.Fprintln(s.out, "Welcome to the Library Circulation Desk!")
		fmt.Fprintln(s.out, "Available commands:")
		fmt.Fprintln(s.out, "  Books: add book, list books, search book, remove book")
		fmt.Fprintln(s.out, "  Members: add member, list members, remove member")
		fmt.Fprintln(s.out, "  Circulation: issue, return, list loans, overdue")
		fmt.Fprintln(s.out, "  Reports: stats, audit")
		fmt.Fprintln(s.out, "  System: exit")
	}

	for {
		s.prompt("\n> ")
		if !s.sc.Scan() {
			break
		}
		cmd := strings.TrimSpace(s.sc.Text())

		switch cmd {
		case "":
			continue
		case "add book":
			s.handleAddBook()
		case "add member":
			s.handleAddMember()
		case "list books":
			s.handleListBooks()
		case "list members":
			s.handleListMembers()
		case "search book":
			s.handleSearchBooks()
		case "remove book":
			s.handleRemove("Book ID: ", s.mgr.RemoveBook, "Book removed")
		case "remove member":
			s.handleRemove("Member ID: ", s.mgr.RemoveMember, "Member removed")
		case "issue":
			s.handleIssue()
		case "return":
			s.handleReturn()
		case "list loans":
			s.handleListLoans(s.mgr.ActiveLoans)
		case "overdue":
			s.handleListLoans(s.mgr.OverdueLoans)
		case "stats":
			s.handleStats()
		case "audit":
			s.handleAudit()
		case "exit":
			fmt.Fprintln(s.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(s.out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

func (s *shell) prompt(p string) {
	if s.interactive {
		fmt.Fprint(s.out, p)
	}
}

// ask prints the prompt and returns the next trimmed line; ok is false at end of input.
func (s *shell) ask(p string) (string, bool) {
	s.prompt(p)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// report prints the outcome of an operation the way the operator sees it.
func (s *shell) report(o library.Outcome) {
	if o.OK {
		fmt.Fprintln(s.out, o.Message)
		return
	}
	fmt.Fprintf(s.out, "Error: %s\n", o.Message)
}

func (s *shell) handleAddBook() {
	title, ok := s.ask("Title: ")
	if !ok {
		return
	}
	author, ok := s.ask("Author: ")
	if !ok {
		return
	}
	isbn, ok := s.ask("ISBN (optional): ")
	if !ok {
		return
	}
	category, ok := s.ask("Category (optional): ")
	if !ok {
		return
	}
	copiesStr, ok := s.ask("Copies: ")
	if !ok {
		return
	}
	copies, err := strconv.Atoi(copiesStr)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid number of copies: %s\n", copiesStr)
		return
	}

	b, err := s.mgr.AddBook(title, author, isbn, category, copies)
	s.report(library.NewOutcome(fmt.Sprintf("Added book ID %s with %d copies", b.ID, b.TotalCopies), err))
}

func (s *shell) handleAddMember() {
	var fields [4]string
	for i, p := range []string{"Name: ", "Roll No: ", "Department: ", "Email: "} {
		v, ok := s.ask(p)
		if !ok {
			return
		}
		fields[i] = v
	}
	m, err := s.mgr.AddMember(fields[0], fields[1], fields[2], fields[3])
	s.report(library.NewOutcome(fmt.Sprintf("Added member '%s' with ID %s", m.Name, m.ID), err))
}

func (s *shell) handleListBooks() {
	books, err := s.mgr.GetBooks()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printBooks(s.out, books)
}

func (s *shell) handleListMembers() {
	members, err := s.mgr.GetMembers()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printMembers(s.out, members)
}

func (s *shell) handleSearchBooks() {
	query, ok := s.ask("Query: ")
	if !ok {
		return
	}
	books, err := s.mgr.SearchBooks(query)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		fmt.Fprintf(s.out, "No books found matching '%s'.\n", query)
		return
	}
	fmt.Fprintf(s.out, "Found %d book(s) matching '%s':\n", len(books), query)
	printBooks(s.out, books)
}

func (s *shell) handleRemove(p string, remove func(string) error, done string) {
	id, ok := s.ask(p)
	if !ok {
		return
	}
	s.report(library.NewOutcome(done, remove(id)))
}

func (s *shell) handleIssue() {
	bookID, ok := s.ask("Book ID: ")
	if !ok {
		return
	}
	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	loan, err := s.mgr.IssueBook(bookID, memberID)
	s.report(library.NewOutcome(fmt.Sprintf("Issued loan %s, due %s", loan.ID, loan.DueDate.Format("2006-01-02")), err))
}

func (s *shell) handleReturn() {
	loanID, ok := s.ask("Loan ID: ")
	if !ok {
		return
	}
	receipt, err := s.mgr.ReturnBook(loanID)
	s.report(library.NewOutcome(receipt.Message, err))
}

func (s *shell) handleListLoans(list func() ([]library.Loan, error)) {
	loans, err := list()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printLoans(s.out, loans)
}

func (s *shell) handleStats() {
	st, err := s.mgr.Stats()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	printStats(s.out, st)
}

func (s *shell) handleAudit() {
	found, err := s.mgr.Audit()
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if len(found) == 0 {
		fmt.Fprintln(s.out, "All availability counters are consistent.")
		return
	}
	for _, d := range found {
		fmt.Fprintf(s.out, "%s %s: stored=%d expected=%d\n", d.BookID, d.Title, d.Stored, d.Expected)
	}
}
