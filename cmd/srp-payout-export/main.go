// srp-payout-export writes the approved/paid SRP payout report for a
// date window to an xlsx file.
//
// Usage:
//   DB_* env vars set, then:
//   go run ./cmd/srp-payout-export --from 2025-01-01 --to 2025-02-01 --out payouts.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models/reports"
)

func main() {
	fromArg := flag.String("from", "", "Required: window start (YYYY-MM-DD, inclusive)")
	toArg := flag.String("to", "", "Required: window end (YYYY-MM-DD, exclusive)")
	outArg := flag.String("out", "srp-payouts.xlsx", "Output file path")
	flag.Parse()

	from, err := time.Parse("2006-01-02", *fromArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--from must be YYYY-MM-DD")
		os.Exit(1)
	}
	to, err := time.Parse("2006-01-02", *toArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "--to must be YYYY-MM-DD")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	summary, err := reports.GetSRPPayoutReport(context.Background(), from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", *outArg, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := reports.WritePayoutReportExcel(f, summary); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d rows (total %s ISK) to %s\n", summary.RequestCount, summary.TotalPayout.StringFixed(2), *outArg)
}
