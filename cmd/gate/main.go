// gate is the command-line stand-in for a gate camera: it reports vehicles
// to the parking API and can follow the live count.
//
//	gate [-api URL] entry PLATE [ZONE]
//	gate [-api URL] exit PLATE [ZONE]
//	gate [-api URL] snapshot ZONE IMAGE_FILE
//	gate [-api URL] stats
//	gate [-api URL] history [LIMIT]
//	gate [-api URL] watch
//	gate [-api URL] reset
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/gateclient"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/telemetry"
)

func main() {
	apiURL := flag.String("api", envOr("BACKEND_URL", "http://localhost:5000"), "Parking API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	logger := telemetry.NewLogger(os.Stderr, "text", envOr("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := gateclient.New(*apiURL, gateclient.WithTimeout(*timeout))
	if err := run(ctx, client, logger, flag.Args()); err != nil {
		logger.Error("gate command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: gate [-api URL] entry|exit PLATE [ZONE] | snapshot ZONE FILE | stats | history [LIMIT] | watch | reset")

func run(ctx context.Context, client *gateclient.Client, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "entry", "exit":
		if len(args) < 2 {
			return errUsage
		}
		zone := ""
		if len(args) > 2 {
			zone = args[2]
		}
		record := client.Entry
		if args[0] == "exit" {
			record = client.Exit
		}
		res, err := record(ctx, args[1], zone)
		if err != nil {
			return err
		}
		if !res.Recorded() {
			logger.Warn("backend did not record event", slog.String("status", res.Status), slog.String("message", res.Message))
		} else {
			logger.Info("event reported", slog.String("type", args[0]), slog.String("plate", args[1]))
		}
		return printJSON(res)

	case "snapshot":
		if len(args) < 3 {
			return errUsage
		}
		image, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		ack, err := client.Snapshot(ctx, args[1], image)
		if err != nil {
			return err
		}
		return printJSON(ack)

	case "stats":
		stats, err := client.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)

	case "history":
		limit := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("limit: %w", err)
			}
			limit = n
		}
		events, err := client.History(ctx, limit)
		if err != nil {
			return err
		}
		return printJSON(events)

	case "reset":
		res, err := client.Reset(ctx)
		if err != nil {
			return err
		}
		if !res.Recorded() {
			logger.Warn("backend did not reset the count", slog.String("status", res.Status), slog.String("message", res.Message))
		}
		return printJSON(res)

	case "watch":
		err := client.Watch(ctx, func(st gateclient.LiveState) error {
			switch {
			case st.Loading:
				fmt.Println("loading...")
			case st.Error != "":
				fmt.Println("error:", st.Error)
			default:
				fmt.Printf("occupied %d/%d, %d free\n", st.CurrentOccupied, st.TotalCapacity, st.AvailableSlots)
			}
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err

	default:
		return errUsage
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
