package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/reader"
)

func main() {
	file := flag.String("file", "", "Path to a zstd-compressed IR stream")
	levels := flag.String("levels", "", "Comma-separated level names to filter by (e.g. ERROR,WARN)")
	begin := flag.Int("begin", 0, "First event index to decode (inclusive)")
	end := flag.Int("end", -1, "Last event index to decode (exclusive, -1 = all)")
	verbose := flag.Bool("v", false, "Enable debug diagnostics")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := hclog.Warn
	if *verbose {
		logLevel = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "irview",
		Level:  logLevel,
		Output: os.Stderr,
	})

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	r, err := reader.Open(data, logger)
	if err != nil {
		log.Fatalf("Failed to open stream: %v", err)
	}

	valid, invalid, err := r.Build()
	if err != nil {
		log.Fatalf("Failed to build event store: %v", err)
	}
	fmt.Fprintf(os.Stderr, "%d events decoded (%d invalid)\n", valid, invalid)

	useFilter := false
	if *levels != "" {
		allowed, err := parseLevels(*levels)
		if err != nil {
			log.Fatalf("Invalid -levels: %v", err)
		}
		r.FilterLogEvents(allowed)
		useFilter = true
	}

	viewLen := r.NumEventsBuffered()
	if useFilter {
		viewLen = len(r.FilteredLogEventMap())
	}
	last := viewLen
	if *end >= 0 && *end < last {
		last = *end
	}

	events := r.DecodeRange(*begin, last, useFilter)
	if events == nil && *begin < last {
		log.Fatalf("Invalid range [%d, %d)", *begin, last)
	}
	for _, ev := range events {
		fmt.Printf("%d\t%d\t%s\t%s\n", ev.SequenceNumber, ev.Timestamp, ir.LevelNames[ev.LogLevel], ev.Message)
	}
}

// parseLevels maps comma-separated level names to their indices.
func parseLevels(s string) ([]int, error) {
	var allowed []int
	for _, name := range strings.Split(s, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		lvl, ok := ir.LevelByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown level %q", name)
		}
		allowed = append(allowed, lvl)
	}
	return allowed, nil
}
