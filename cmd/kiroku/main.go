// Command kiroku inspects a local kiroku event store.
//
//	kiroku tail  [-db events.db] [-event generation_event] [-n 20]
//	kiroku stats [-db events.db]
//
// The store is the SQLite sink from github.com/ashita-ai/kiroku/store;
// point an application at it with store.Open and every ended unit shows up
// here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/kiroku/store"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("KIROKU_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, os.Args[1:]); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	// Load .env file if present (non-fatal).
	_ = godotenv.Load()

	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "tail":
		return tailCommand(ctx, logger, args[1:])
	case "stats":
		return statsCommand(ctx, logger, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: kiroku <command> [flags]

commands:
  tail    print recent events as JSON lines
  stats   print event counts and recent subjects
  version print the build version`)
}

func defaultDBPath() string {
	if v := os.Getenv("KIROKU_DB"); v != "" {
		return v
	}
	return "kiroku.db"
}

func tailCommand(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath(), "path to the event store")
	eventName := fs.String("event", "", "filter by event name")
	limit := fs.Int("n", 20, "number of events to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*dbPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	events, err := s.Recent(ctx, *eventName, *limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, ev := range events {
		line := map[string]any{
			"captured_at": ev.CapturedAt,
			"subject_id":  ev.SubjectID,
			"event":       ev.Name,
			"properties":  ev.Properties,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode event %d: %w", ev.ID, err)
		}
	}
	return nil
}

func statsCommand(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath(), "path to the event store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*dbPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	counts, err := s.CountByEvent(ctx)
	if err != nil {
		return err
	}
	subjects, err := s.Subjects(ctx, 10)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-20s %d\n", name, counts[name])
	}
	if len(subjects) > 0 {
		fmt.Printf("recent subjects: %v\n", subjects)
	}
	return nil
}
