package cmd

import (
	"fmt"
	"io"
	"os"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout phenopick's CLI output.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  not found / missing
//   ~  neutral info / state change

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// printSection prints a top-level section header, e.g. "=== Fetch ===".
func printSection(title string) {
	fmt.Fprintf(stdout, "\n=== %s ===\n", title)
}

// printGroup prints a doctor group header, e.g. "[ sources ]".
func printGroup(title string) {
	fmt.Fprintf(stdout, "[ %s ]\n", title)
}

func printLine(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//
//	name = "" → "  ✓  msg"
//	name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine(stdout, "✓", name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) { printLine(stderr, "✗", name, msg) }

// printWarn prints a warning line.
func printWarn(name, msg string) { printLine(stdout, "⚠", name, msg) }

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) { printLine(stdout, "○", name, msg) }

// printMiss prints a not-found / missing line.
func printMiss(name, msg string) { printLine(stdout, "-", name, msg) }

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) { printLine(stdout, "~", name, msg) }
