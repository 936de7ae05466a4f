package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sort"
	"syscall"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/ml"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/pipeline"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/report"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/pkg/config"
)

func main() {
	cfg := config.Load()

	device := flag.String("device", "", "Device type, e.g. \"Garage Door\" (see -list)")
	in := flag.String("in", "", "Path to the CSV log to classify")
	out := flag.String("out", ".", "Directory to write the results CSV into")
	modelDir := flag.String("models", cfg.ModelDir, "Directory holding the model artifacts")
	verify := flag.Bool("verify", false, "Read the written results back and check them")
	list := flag.Bool("list", false, "List supported devices and exit")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})
	log := logging.Component("detect")

	reg := registry.New(*modelDir)
	if *list {
		for _, p := range reg.Devices() {
			fmt.Printf("%-12s %s\n", p.Slug, p.Name)
		}
		return
	}

	if *device == "" || *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("failed to read input")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := pipeline.New(reg, ml.FileLoader{})
	res, err := detector.Detect(ctx, *device, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pipeline.Kind(err), err)
		os.Exit(1)
	}

	path := filepath.Join(*out, res.FileName)
	if err := os.WriteFile(path, res.CSV, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to write results")
	}

	if *verify {
		written, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to re-read results")
		}
		rows, err := report.Parse(written)
		if err != nil {
			log.Fatal().Err(err).Msg("results file is not valid")
		}
		if len(rows) != len(res.Rows) || (len(rows) > 0 && !reflect.DeepEqual(rows, res.Rows)) {
			log.Fatal().Int("written", len(rows)).Int("expected", len(res.Rows)).Msg("results file does not match detection")
		}
	}

	counts := report.Summarize(res.Rows)
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Printf("%s: %d rows -> %s\n", res.Device, len(res.Rows), path)
	for _, label := range labels {
		fmt.Printf("  %-16s %d\n", label, counts[label])
	}
}
