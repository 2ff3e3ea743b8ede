// Command session-report renders offline reports from a tracking journal.
//
// Usage:
//
//	go run ./cmd/tools/session-report [flags]
//
// Flags:
//
//	-journal  Path to the journal database (default: journal.db)
//	-session  Session ID to report on (default: newest session)
//	-html     Write the interactive HTML report to this path
//	-png      Write the deviation chart PNG to this path
//	-units    Display units: metric or imperial (default: metric)
//	-tz       IANA timezone for timestamps (default: UTC)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/report"
	"github.com/bakitorunoglu/TrackRadar/internal/units"
)

func main() {
	journalPath := flag.String("journal", "journal.db", "Path to the journal database")
	sessionID := flag.String("session", "", "Session ID to report on (default: newest session)")
	htmlPath := flag.String("html", "", "Write the interactive HTML report to this path")
	pngPath := flag.String("png", "", "Write the deviation chart PNG to this path")
	unitSystem := flag.String("units", units.Metric, "Display units: metric or imperial")
	tz := flag.String("tz", "UTC", "IANA timezone for timestamps")
	flag.Parse()

	if !units.IsValid(*unitSystem) {
		log.Fatalf("Invalid units %q: valid values are %s", *unitSystem, units.GetValidSystemsString())
	}
	if !units.IsTimezoneValid(*tz) {
		log.Fatalf("Invalid timezone %q", *tz)
	}

	db, err := journal.Open(*journalPath)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer db.Close()

	id := *sessionID
	if id == "" {
		latest, err := db.LatestSession()
		if err != nil {
			log.Fatalf("Failed to find newest session: %v", err)
		}
		id = latest.ID
	}

	session, err := db.Session(id)
	if err != nil {
		log.Fatalf("Failed to load session %s: %v", id, err)
	}
	fixes, err := db.Fixes(id)
	if err != nil {
		log.Fatalf("Failed to load fixes: %v", err)
	}
	alarms, err := db.Alarms(id)
	if err != nil {
		log.Fatalf("Failed to load alarms: %v", err)
	}

	printSessionHeader(session, *tz)

	summary := report.Summarize(session, fixes, alarms)
	if err := report.WriteText(os.Stdout, summary, *unitSystem); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *htmlPath, err)
		}
		if err := report.RenderHTML(f, summary, fixes); err != nil {
			f.Close()
			log.Fatalf("Failed to render HTML report: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to close %s: %v", *htmlPath, err)
		}
		log.Printf("Wrote HTML report to %s", *htmlPath)
	}

	if *pngPath != "" {
		if err := report.RenderPNG(*pngPath, summary, fixes); err != nil {
			log.Fatalf("Failed to render deviation chart: %v", err)
		}
		log.Printf("Wrote deviation chart to %s", *pngPath)
	}
}

func printSessionHeader(session *journal.Session, tz string) {
	started, err := units.ConvertTime(session.StartedAt, tz)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	fmt.Printf("Started: %s\n", started.Format(time.RFC1123))

	if session.EndedAt != nil {
		ended, err := units.ConvertTime(*session.EndedAt, tz)
		if err != nil {
			log.Printf("Warning: %v", err)
		}
		fmt.Printf("Ended:   %s\n", ended.Format(time.RFC1123))
	} else {
		fmt.Printf("Ended:   (still recording)\n")
	}
	fmt.Println()
}
