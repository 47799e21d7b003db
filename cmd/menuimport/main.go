// Command menuimport runs one CSV menu import: it loads a job config,
// parses the CSV, feeds the rows through the import pipeline, renders the
// progress stream, prints an imported/skipped summary, and optionally
// persists the result through a configured storage backend.
//
// Ctrl-C requests cooperative cancellation; the run settles within the
// configured grace period either way.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/config"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/csvutil"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/metrics"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/metrics/datadog"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/metrics/prompush"
	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage"

	// register all storage backends with the factory.
	_ "github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage/all"
)

func main() {
	var (
		cfgPath     string
		validate    bool
		dryRun      bool
		showSkipped bool
	)
	flag.StringVar(&cfgPath, "config", "job.json", "job config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "run the import but skip persistence")
	flag.BoolVar(&showSkipped, "skipped", false, "list every skipped row with its reason")
	flag.Parse()

	job, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidateJob(job)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		log.Printf("configuration is valid: %s", cfgPath)
		return
	}

	if err := setupMetrics(job.Metrics); err != nil {
		fatalf("metrics: %v", err)
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics flush: %v", err)
		}
	}()

	rows, err := readRows(job.Source.Path)
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("%s: read %d rows from %s", job.Job, len(rows), job.Source.Path)

	imp := importer.NewImporter(importer.Options{
		ChunkSize:   job.Runtime.ChunkSize,
		CancelGrace: time.Duration(job.Runtime.CancelGraceMS) * time.Millisecond,
	})
	run, err := imp.Start(importer.Request{
		Rows:               rows,
		ColumnMapping:      job.Mapping,
		Mode:               job.Mode,
		ExistingShelves:    job.Shelves,
		AllowCreateShelves: job.AllowCreateShelves,
	})
	if err != nil {
		fatalf("start import: %v", err)
	}

	// First Ctrl-C cancels the run; a second one kills the process.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("cancellation requested")
		run.Cancel()
		<-sigCh
		os.Exit(1)
	}()

	res, err := renderAndWait(run, len(rows))
	if err != nil {
		if errors.Is(err, importer.ErrCancelled) {
			log.Printf("%s: import cancelled", job.Job)
			os.Exit(2)
		}
		fatalf("import failed: %v", err)
	}

	printSummary(job.Job, res, showSkipped)

	if job.Storage.Kind != "" && !dryRun {
		if err := persist(job, res); err != nil {
			fatalf("persist: %v", err)
		}
		log.Printf("%s: result saved to %s storage", job.Job, job.Storage.Kind)
	}
}

// readRows opens the CSV and parses it into header-keyed rows. The kernel is
// told the read is sequential to keep large menu exports fast.
func readRows(path string) ([]importer.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)

	_, raw, err := csvutil.ReadRows(f)
	if err != nil {
		return nil, err
	}
	rows := make([]importer.RawRow, len(raw))
	for i, r := range raw {
		rows[i] = importer.RawRow(r)
	}
	return rows, nil
}

// renderAndWait polls the run's progress into a terminal bar until the run
// settles.
func renderAndWait(run *importer.Run, total int) (*importer.RunResult, error) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
	_ = bar.RenderBlank()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			_ = bar.Set(run.Progress().Processed)
		case <-run.Done():
			res, err := run.Wait(context.Background())
			if err == nil {
				_ = bar.Set(run.Progress().Processed)
			}
			fmt.Fprint(os.Stderr, "\n")
			return res, err
		}
	}
}

func printSummary(job string, res *importer.RunResult, showSkipped bool) {
	log.Printf(
		"%s: imported=%d skipped=%d shelves_created=%d shake=%d flower=%d",
		job, res.Stats.TotalProcessed, res.Stats.TotalSkipped,
		len(res.CreatedShelves), res.Stats.ShakeCount, res.Stats.FlowerCount,
	)

	if res.Stats.TotalSkipped == 0 {
		return
	}
	reasons := map[string]int{}
	for _, s := range res.SkippedRows {
		reasons[s.Reason]++
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("%s: skipped %dx: %s", job, reasons[k], k)
	}
	if showSkipped {
		for _, s := range res.SkippedRows {
			log.Printf("%s: row %d skipped: %s", job, s.RowIndex, s.Reason)
		}
	}
}

func persist(job config.Job, res *importer.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := storage.New(ctx, storage.Config{
		Kind:        job.Storage.Kind,
		DSN:         job.Storage.DB.DSN,
		TablePrefix: job.Storage.DB.TablePrefix,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.SaveRun(ctx, job.Job, res)
}

func setupMetrics(m config.Metrics) error {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		b, err := prompush.NewBackend("menu_import", m.PushgatewayURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: m.DogstatsdAddr, Namespace: "menuimport."})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	default:
		return fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
	return nil
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
