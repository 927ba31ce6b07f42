package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/isoalign/internal/db"
	"github.com/banshee-data/isoalign/internal/feature"
)

func cmdImport(args []string, dbPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sample := fs.String("sample", "", "Sample id (single file only; default is the file name without extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return fmt.Errorf("usage: joinalign import [-sample id] file.csv...")
	}
	if *sample != "" && len(files) > 1 {
		return fmt.Errorf("-sample applies to a single file")
	}

	d, err := openLocked(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	for _, path := range files {
		id := feature.SampleID(*sample)
		if id == "" {
			id = sampleIDFromPath(path)
		}
		list, err := readPeakListFile(path, id)
		if err != nil {
			return err
		}
		if err := d.ImportPeakList(list, path); err != nil {
			return err
		}
		log.Printf("[import] %s: %d peaks from %s", id, len(list.Peaks), path)
		fmt.Fprintf(stdout, "imported %s (%d peaks)\n", id, len(list.Peaks))
	}
	return nil
}

func sampleIDFromPath(path string) feature.SampleID {
	base := filepath.Base(path)
	return feature.SampleID(strings.TrimSuffix(base, filepath.Ext(base)))
}

func readPeakListFile(path string, id feature.SampleID) (*feature.PeakList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return feature.ReadPeakListCSV(f, id)
}

func cmdSamples(args []string, dbPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("samples", flag.ContinueOnError)
	fs.SetOutput(stderr)
	remove := fs.String("rm", "", "Remove the sample with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *remove != "" {
		d, err := openLocked(dbPath)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.DeleteSample(feature.SampleID(*remove)); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "removed %s\n", *remove)
		return nil
	}

	d, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	recs, err := d.ListSamples()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(stdout, "no samples imported")
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			strconv.Itoa(r.Position),
			string(r.ID),
			strconv.Itoa(r.PeakCount),
			r.ImportedAt.Format("2006-01-02 15:04:05"),
			r.SourcePath,
		})
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"#", "Sample", "Peaks", "Imported", "Source"},
		rows,
		0, 2,
	))
	return nil
}

func cmdRuns(args []string, dbPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	runs, err := d.ListRuns(*limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			string(r.Status),
			strconv.Itoa(len(r.SampleIDs)),
			strconv.Itoa(r.MasterRows),
			strconv.Itoa(r.OutputRows),
			fmt.Sprintf("%.2fs", r.DurationSecs),
			r.ErrorMessage,
		})
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"Run", "Created", "Status", "Samples", "Master rows", "Rows", "Duration", "Error"},
		rows,
		3, 4, 5, 6,
	))
	return nil
}

func cmdExport(args []string, dbPath string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outPath := fs.String("o", "", "Output CSV file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: joinalign export [-o file.csv] <run-id>")
	}

	d, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	run, err := d.GetRun(fs.Arg(0))
	if err != nil {
		return err
	}
	if run.Status != db.RunCompleted {
		return fmt.Errorf("run %s is %s, only completed runs can be exported", run.RunID, run.Status)
	}
	stored, err := d.LoadRunRows(run.RunID)
	if err != nil {
		return err
	}
	return writeCSVTo(*outPath, stdout, run.SampleIDs, rowsFromStore(stored))
}

// writeCSVTo writes the aligned table to path, or to stdout when path is
// empty.
func writeCSVTo(path string, stdout io.Writer, samples []feature.SampleID, rows []alignedRow) error {
	if path == "" {
		return writeAlignedCSV(stdout, samples, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeAlignedCSV(f, samples, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
