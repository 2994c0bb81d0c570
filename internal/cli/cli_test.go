package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

type cliEnv struct {
	t    *testing.T
	base []string
}

func newCLIEnv(t *testing.T) *cliEnv {
	dir := t.TempDir()
	return &cliEnv{t: t, base: []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--db", filepath.Join(dir, "reminders.db"),
		"--log-level", "warn",
	}}
}

// mustRun executes args and returns the decoded data field.
func (e *cliEnv) mustRun(args ...string) any {
	e.t.Helper()
	stdout, stderr, err := runCLI(e.t, append(append([]string{}, e.base...), args...))
	if err != nil {
		e.t.Fatalf("command failed: reminders %v\nerr: %v\nstderr:\n%s", args, err, stderr)
	}
	var env map[string]any
	require.NoError(e.t, json.Unmarshal(stdout, &env), "stdout: %s", stdout)
	data, ok := env["data"]
	require.True(e.t, ok, "missing data key: %s", stdout)
	return data
}

func (e *cliEnv) mustFail(args ...string) string {
	e.t.Helper()
	_, stderr, err := runCLI(e.t, append(append([]string{}, e.base...), args...))
	require.Error(e.t, err, "expected reminders %v to fail", args)
	return string(stderr)
}

func field(v any, key string) any {
	m, _ := v.(map[string]any)
	return m[key]
}

func idOf(t *testing.T, v any) string {
	t.Helper()
	id, _ := field(v, "id").(string)
	require.NotEmpty(t, id, "no id in %#v", v)
	return id
}

func titlesOf(v any) []string {
	var out []string
	xs, _ := v.([]any)
	for _, x := range xs {
		s, _ := field(x, "title").(string)
		out = append(out, s)
	}
	return out
}

func TestCLIListsAndReminders(t *testing.T) {
	e := newCLIEnv(t)

	work := idOf(t, e.mustRun("lists", "add", "Work"))
	home := idOf(t, e.mustRun("lists", "add", "Home"))
	morning := idOf(t, e.mustRun("sections", "add", work, "Morning"))

	a := idOf(t, e.mustRun("add", "A", "--list", work, "--section", morning))
	e.mustRun("add", "B", "--list", work, "--section", morning)
	c := idOf(t, e.mustRun("add", "C", "--list", work, "--section", morning, "--priority", "3", "--tag", "urgent"))

	got := e.mustRun("ls", "--list", work, "--section", morning)
	assert.Equal(t, []string{"A", "B", "C"}, titlesOf(got))

	e.mustRun("mv", c, "--section", morning, "--index", "0")
	got = e.mustRun("ls", "--list", work, "--section", morning)
	assert.Equal(t, []string{"C", "A", "B"}, titlesOf(got))

	removed := e.mustRun("rm", a)
	assert.Equal(t, true, field(removed, "removed"))
	got = e.mustRun("ls", "--list", work, "--section", morning)
	assert.Equal(t, []string{"C", "B"}, titlesOf(got))

	moved := e.mustRun("mv", c, "--list", home)
	assert.Equal(t, home, field(moved, "list_id"))
	assert.Nil(t, field(moved, "subheading_id"))

	lists := e.mustRun("lists", "mv", home, "0")
	var names []string
	for _, l := range lists.([]any) {
		names = append(names, field(l, "name").(string))
	}
	assert.Equal(t, []string{"Home", "Work"}, names)
}

func TestCLICompletionAndSearch(t *testing.T) {
	e := newCLIEnv(t)

	r := idOf(t, e.mustRun("add", "Call", "plumber", "--priority", "2", "--start", "2026-05-01"))
	e.mustRun("add", "Buy milk")

	done := e.mustRun("done", r)
	assert.Equal(t, true, field(done, "is_completed"))
	assert.NotNil(t, field(done, "completed_at"))

	open := e.mustRun("ls", "--open")
	assert.Equal(t, []string{"Buy milk"}, titlesOf(open))

	undone := e.mustRun("undone", r)
	assert.Equal(t, false, field(undone, "is_completed"))

	found := e.mustRun("search", "plumber", "priority=2")
	assert.Equal(t, []string{"Call plumber"}, titlesOf(found))

	all := e.mustRun("search")
	assert.Len(t, all, 2)

	inbox := e.mustRun("ls", "--inbox")
	assert.Len(t, inbox, 2)
}

func TestCLIErrors(t *testing.T) {
	e := newCLIEnv(t)

	stderr := e.mustFail("add", " ")
	assert.Contains(t, stderr, "title")

	e.mustFail("search", "priority=9")
	e.mustFail("add", "x", "--start", "next tuesday")
	e.mustFail("lists", "mv", "missing", "0")
	e.mustFail("lists", "mv", "missing", "-1")
	e.mustFail("mv", "missing")
}

func TestCLIMergeAndSweep(t *testing.T) {
	e := newCLIEnv(t)

	first := idOf(t, e.mustRun("lists", "add", "Groceries"))
	second := idOf(t, e.mustRun("lists", "add", "Groceries"))
	e.mustRun("add", "milk", "--list", first)
	e.mustRun("add", "eggs", "--list", second)

	rep := e.mustRun("lists", "merge")
	assert.EqualValues(t, 1, field(rep, "ListsRemoved"))

	got := e.mustRun("ls", "--list", first)
	assert.Equal(t, []string{"milk", "eggs"}, titlesOf(got))

	swept := e.mustRun("sweep")
	assert.NotNil(t, field(swept, "sweep"))

	inbox := e.mustRun("lists", "inbox")
	assert.Equal(t, "Inbox", field(inbox, "name"))
	again := e.mustRun("lists", "inbox")
	assert.Equal(t, field(inbox, "id"), field(again, "id"))
}

func TestCLITextFormat(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("add", "Buy milk", "--priority", "1")

	stdout, _, err := runCLI(t, append(append([]string{}, e.base...), "ls", "--format", "text"))
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "Buy milk")
	assert.Contains(t, string(stdout), "[ ]")
}
