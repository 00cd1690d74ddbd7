// mail-dispatch-once drains one batch of the outbound mail queue and
// exits. Useful for debugging delivery without the poll loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/workflow"
)

func main() {
	batchSize := flag.Int("batch-size", 20, "Max mails to claim in this run")
	flag.Parse()

	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	dispatcher := workflow.NewMailDispatcher(db, config.GetLogger())
	if *batchSize > 0 {
		dispatcher.BatchSize = *batchSize
	}
	dispatcher.DispatchOnce(ctx)
	fmt.Println("mail dispatch completed")
}
