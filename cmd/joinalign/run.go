package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/banshee-data/isoalign/internal/align"
	"github.com/banshee-data/isoalign/internal/config"
	"github.com/banshee-data/isoalign/internal/db"
	"github.com/banshee-data/isoalign/internal/feature"
)

type runFlags struct {
	configPath string
	mz         float64
	rt         float64
	rtPercent  float64
	balance    float64
	samples    string
	csvPath    string
	rows       int
}

func cmdRun(ctx context.Context, args []string, dbPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f runFlags
	fs.StringVar(&f.configPath, "config", "", "Alignment config JSON file")
	fs.Float64Var(&f.mz, "mz", config.DefaultMZTolerance, "m/z tolerance")
	fs.Float64Var(&f.rt, "rt", config.DefaultRTToleranceAbsolute, "Absolute RT tolerance")
	fs.Float64Var(&f.rtPercent, "rt-percent", config.DefaultRTToleranceRelative*100, "Relative RT tolerance in percent of the mean RT")
	fs.Float64Var(&f.balance, "balance", config.DefaultMZRTBalance, "Weight of the m/z difference against the RT difference")
	fs.StringVar(&f.samples, "samples", "", "Comma-separated sample ids in alignment order (default all, in import order)")
	fs.StringVar(&f.csvPath, "csv", "", "Write the aligned table to this CSV file")
	fs.IntVar(&f.rows, "rows", 0, "Print the first N aligned rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	params, err := buildParams(f, set)
	if err != nil {
		return err
	}

	d, err := openLocked(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	lists, err := d.LoadPeakLists(parseSampleIDs(f.samples))
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return fmt.Errorf("no samples to align; import peak lists first")
	}

	task, err := align.NewTask(lists, params, feature.GroupingExtractor{})
	if err != nil {
		return err
	}
	samples := make([]feature.SampleID, len(lists))
	for i, l := range lists {
		samples[i] = l.Sample
	}

	manager := db.NewRunManager(d)
	runID, err := manager.StartRun(task, samples)
	if err != nil {
		return err
	}
	log.Printf("[run] %s: %s (mz %g, rt %s, balance %g)",
		runID, task.Description(), params.MZTolerance, params.RT, params.MZRTBalance)

	runErr := task.Run(ctx)
	if err := manager.Finish(task); err != nil {
		log.Printf("[run] failed to record outcome of %s: %v", runID, err)
	}

	switch task.Status() {
	case align.StatusCanceled:
		return fmt.Errorf("run %s canceled", runID)
	case align.StatusError:
		return fmt.Errorf("run %s failed: %w", runID, runErr)
	}

	res, _ := task.Result()
	rows := rowsFromResult(res)
	fmt.Fprintf(stdout, "%s (run %s)\n", res.Name, runID)
	printSummary(stdout, res.Summary)
	if f.rows > 0 {
		fmt.Fprintln(stdout, renderAlignedRows(res.Samples, rows, f.rows))
	}
	if f.csvPath != "" {
		if err := writeCSVTo(f.csvPath, stdout, res.Samples, rows); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %d rows to %s\n", len(rows), f.csvPath)
	}
	return nil
}

// buildParams layers explicitly set flags over the config file, or over
// the defaults when there is none.
func buildParams(f runFlags, set map[string]bool) (align.Params, error) {
	if set["rt"] && set["rt-percent"] {
		return align.Params{}, fmt.Errorf("-rt and -rt-percent are mutually exclusive")
	}

	cfg := config.EmptyAlignConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadAlignConfig(f.configPath); err != nil {
			return align.Params{}, err
		}
	}
	if set["mz"] {
		cfg.SetMZTolerance(f.mz)
	}
	if set["rt"] {
		cfg.SetRTAbsolute(f.rt)
	}
	if set["rt-percent"] {
		cfg.SetRTPercent(f.rtPercent)
	}
	if set["balance"] {
		cfg.SetMZRTBalance(f.balance)
	}
	return align.ParamsFromConfig(cfg)
}

func parseSampleIDs(s string) []feature.SampleID {
	var ids []feature.SampleID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, feature.SampleID(part))
		}
	}
	return ids
}

func printSummary(w io.Writer, s align.Summary) {
	overview := [][]string{
		{"Samples", strconv.Itoa(s.Samples)},
		{"Isotope patterns", strconv.Itoa(s.Patterns)},
		{"Master rows", strconv.Itoa(s.MasterRows)},
		{"Output rows", strconv.Itoa(s.OutputRows)},
		{"Rows in one sample", strconv.Itoa(s.SingletonRows)},
		{"Rows in every sample", strconv.Itoa(s.CompleteRows)},
		{"Samples per row", fmt.Sprintf("%.2f", s.MeanSamplesPerRow)},
		{"m/z deviation", fmt.Sprintf("%.5f ± %.5f", s.MZDeviationMean, s.MZDeviationStdDev)},
		{"RT deviation", fmt.Sprintf("%.3f ± %.3f", s.RTDeviationMean, s.RTDeviationStdDev)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, overview, 1))

	coverage := make([][]string, 0, len(s.Coverage))
	for _, c := range s.Coverage {
		coverage = append(coverage, []string{
			string(c.Sample),
			strconv.Itoa(c.Rows),
			fmt.Sprintf("%.1f%%", c.Fraction*100),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Sample", "Rows", "Coverage"}, coverage, 1, 2))
}
