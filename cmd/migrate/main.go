// migrate applies the embedded Postgres schema; run it before starting the
// API with STORE_DRIVER=postgres.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/config"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/migrations"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	if err := migrations.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrations.ErrNoChange) {
			fmt.Println("schema already up to date")
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrations applied (%s)\n", *direction)
}
