// fleet-status-sweep applies the scheduled -> in_progress -> completed
// transitions once and exits. Meant for cron when the in-process sweep
// worker is disabled.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/workflow"
)

func main() {
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := workflow.RefreshFleetStatuses(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("fleet status sweep completed")
}
