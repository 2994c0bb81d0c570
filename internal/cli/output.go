package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/internal/theme"
)

// writeOut prints v wrapped in a {"data": ...} envelope, or styled for a
// terminal with --format text.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "text" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), theme.Render(v, time.Now()))
		return err
	}
	env := map[string]any{"data": v}
	var b []byte
	var err error
	if app.PrettyJSON {
		b, err = json.MarshalIndent(env, "", "  ")
	} else {
		b, err = json.Marshal(env)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// dateLayouts are tried in order when parsing --start and --end.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseWhen(flag, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, store.Invalid(store.KindReminder, "", flag, fmt.Sprintf("cannot parse %q as a date", s))
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index %q: must be a non-negative integer", s)
	}
	return n, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
