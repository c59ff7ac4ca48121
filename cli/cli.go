// ABOUTME: Shared plumbing for CLI subcommands
// ABOUTME: Env carries the service, device state, and output writer to every command
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/crm"
)

// Env is what a command runs against.
type Env struct {
	Svc    *crm.Service
	State  *charm.State
	Config *config.Config
	Out    io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out(), format, args...)
}

func (e *Env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.out(), 0, 0, 2, ' ', 0)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// optString records whether a string flag was given, so empty values can clear fields.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

func (o *optString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
