// Command joinalign imports per-sample peak lists into a SQLite store and
// aligns their isotope patterns across samples.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/isoalign/internal/db"
	"github.com/banshee-data/isoalign/internal/version"
)

const defaultDBPath = "joinalign.db"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("joinalign: %v", err)
	}
}

// run parses the global flags and dispatches to a subcommand.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("joinalign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", defaultDBPath, "Path to the SQLite database")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "import":
		return cmdImport(rest, *dbPath, stdout, stderr)
	case "samples":
		return cmdSamples(rest, *dbPath, stdout, stderr)
	case "run":
		return cmdRun(ctx, rest, *dbPath, stdout, stderr)
	case "runs":
		return cmdRuns(rest, *dbPath, stdout, stderr)
	case "export":
		return cmdExport(rest, *dbPath, stdout, stderr)
	case "migrate":
		return db.RunMigrateCommand(rest, *dbPath, stdout)
	case "help":
		fs.Usage()
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, `Usage: joinalign [-db path] <command> [flags] [args]

Commands:
  import   Import peak list CSV files as samples
  samples  List or remove imported samples
  run      Align imported samples and record the run
  runs     List recorded alignment runs
  export   Write a recorded run's aligned table as CSV
  migrate  Manage the database schema

Global flags:
`)
	fs.PrintDefaults()
}

// openLocked opens the database and takes its exclusive lock.
func openLocked(path string) (*db.DB, error) {
	d, err := db.NewDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.Lock(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
