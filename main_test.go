package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func execute(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", dbPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func firstID(t *testing.T, s string) string {
	t.Helper()
	id := uuidRe.FindString(s)
	require.NotEmpty(t, id, "no id in %q", s)
	return id
}

func TestCLICirculation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := execute(t, db, "", "book", "add", "Dune", "Frank Herbert", "--copies", "1")
	require.NoError(t, err)
	bookID := firstID(t, out)

	out, err = execute(t, db, "", "member", "add", "Alice", "R1", "CS", "alice@uni.edu")
	require.NoError(t, err)
	memberID := firstID(t, out)

	out, err = execute(t, db, "", "issue", bookID, memberID)
	require.NoError(t, err)
	loanID := firstID(t, out)

	_, err = execute(t, db, "", "issue", bookID, memberID)
	assert.ErrorContains(t, err, "no copies")

	out, err = execute(t, db, "", "return", loanID)
	require.NoError(t, err)
	assert.Contains(t, out, "no fine")

	out, err = execute(t, db, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Copies:           1 (1 available)")

	out, err = execute(t, db, "", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")
}

func TestCLIRemoveUnknownBook(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	_, err := execute(t, db, "", "book", "remove", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestShellScriptedSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shell.db")
	script := strings.Join([]string{
		"add book", "Emma", "Jane Austen", "", "classics", "2",
		"add member", "Bob", "R2", "English", "bob@uni.edu",
		"list books",
		"bogus",
		"add book", "Broken", "Someone", "", "", "zero",
		"exit",
	}, "\n")

	out, err := execute(t, db, script, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Added book ID")
	assert.Contains(t, out, "Added member 'Bob'")
	assert.Contains(t, out, "Emma")
	assert.Contains(t, out, "Unknown command")
	assert.Contains(t, out, "Invalid number of copies: zero")
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "> ", "prompts are suppressed for piped input")
}

func TestTruncateStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Dune", truncateString("Dune", 10))
	assert.Equal(t, "Crème b...", truncateString("Crème brûlée recipes", 10))
}
