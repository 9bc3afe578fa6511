// Command milton drives a resistive heating element through a
// solder-reflow thermal profile via a programmable DC power supply,
// closing the loop on a predicted hotplate-surface temperature
// (spec.md §1-§2).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brettski74/milton/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: milton <run|tune|version> [flags]")
		os.Exit(2)
	}

	subcommand := os.Args[1]
	rest := os.Args[2:]

	switch subcommand {
	case "run":
		runExit(rest)
	case "tune":
		tuneExit(rest)
	case "version":
		versionCommand()
	default:
		fmt.Fprintf(os.Stderr, "milton: unknown subcommand %q\n", subcommand)
		os.Exit(2)
	}
}

func runExit(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	g, err := parseGlobalFlags(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "milton run: %v\n", err)
		os.Exit(2)
	}

	if err := runCommand(g, searchPathFor(g)); err != nil {
		fmt.Fprintf(os.Stderr, "milton run: %v\n", err)
		os.Exit(1)
	}
}

func tuneExit(args []string) {
	fs := flag.NewFlagSet("tune", flag.ExitOnError)
	g, tf, err := parseTuneFlags(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "milton tune: %v\n", err)
		os.Exit(2)
	}

	if err := tuneCommand(g, tf, searchPathFor(g)); err != nil {
		fmt.Fprintf(os.Stderr, "milton tune: %v\n", err)
		os.Exit(1)
	}
}

// searchPathFor prepends any --library directories to the default config
// search path (spec.md §6).
func searchPathFor(g *globalFlags) []string {
	return append([]string(g.libraries), config.DefaultSearchPath()...)
}
