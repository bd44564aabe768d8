package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Ingest    *IngestCommand
	Status    *StatusCommand
	Dashboard *DashboardCommand
	Export    *ExportCommand
	Records   *RecordsCommand
	Add       *AddCommand
	Measure   *MeasureCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "greentab"
	parser.LongDescription = "Track time spent on browser tabs and estimate the energy and carbon cost of the pages you load."

	cmds := &commands{
		Ingest:    &IngestCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Dashboard: &DashboardCommand{globals: &globals, version: version},
		Export:    &ExportCommand{globals: &globals, version: version},
		Records:   &RecordsCommand{globals: &globals, version: version},
		Add:       &AddCommand{globals: &globals, version: version},
		Measure:   &MeasureCommand{globals: &globals, version: version},
	}

	parser.AddCommand("ingest", "Start the greentab daemon", "Start the local HTTP daemon that receives tab events and page sizes from the browser extension.", cmds.Ingest)
	parser.AddCommand("status", "Show store statistics", "Show record counts, database size and whether the daemon is running.", cmds.Status)
	parser.AddCommand("dashboard", "Open the terminal dashboard", "Open the live terminal dashboard, or print it once with --once.", cmds.Dashboard)
	parser.AddCommand("export", "Export records as CSV", "Write every stored record to a CSV file.", cmds.Export)
	parser.AddCommand("records", "List recent records", "List the most recent records, with optional filters.", cmds.Records)
	parser.AddCommand("add", "Manually add a record", "Append a record for a URL by hand, optionally with a page size.", cmds.Add)
	parser.AddCommand("measure", "Measure a page and report its size", "Load a page and its resources, total the transfer size and send it to the daemon.", cmds.Measure)

	return parser, &globals, cmds
}

// Run is the main entry point for the greentab CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("greentab %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
