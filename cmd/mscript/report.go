package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	mscript "github.com/funvibe/mscript/pkg/embed"
)

const (
	colorRed   = "\033[31m"
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

// reporter prints errors to stderr, colored when stderr is a terminal.
type reporter struct {
	out   io.Writer
	color bool
}

func newReporter() *reporter {
	fd := os.Stderr.Fd()
	return &reporter{
		out:   os.Stderr,
		color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (r *reporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// report prints err. Diagnostic lists are printed one entry per line.
func (r *reporter) report(prefix string, err error) {
	var diags mscript.Diagnostics
	if errors.As(err, &diags) {
		fmt.Fprintf(r.out, "%s (%d error(s)):\n", r.paint(colorBold, prefix), len(diags))
		for _, d := range diags {
			fmt.Fprintf(r.out, "  %s %s\n", r.paint(colorRed, "-"), d.Error())
		}
		return
	}
	fmt.Fprintf(r.out, "%s: %s\n", r.paint(colorBold, prefix), r.paint(colorRed, err.Error()))
}

// fail reports err and exits with status 1.
func (r *reporter) fail(prefix string, err error) {
	r.report(prefix, err)
	os.Exit(1)
}
