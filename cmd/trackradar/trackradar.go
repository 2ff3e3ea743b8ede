package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/alarm"
	"github.com/bakitorunoglu/TrackRadar/internal/api"
	"github.com/bakitorunoglu/TrackRadar/internal/config"
	"github.com/bakitorunoglu/TrackRadar/internal/engine"
	"github.com/bakitorunoglu/TrackRadar/internal/geo"
	"github.com/bakitorunoglu/TrackRadar/internal/gpsmux"
	"github.com/bakitorunoglu/TrackRadar/internal/httputil"
	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/monitoring"
	"github.com/bakitorunoglu/TrackRadar/internal/track"
	"github.com/bakitorunoglu/TrackRadar/internal/version"
)

var (
	listen         = flag.String("listen", ":8080", "Listen address")
	port           = flag.String("port", "/dev/ttyACM0", "GPS receiver serial port")
	baud           = flag.Int("baud", 9600, "GPS receiver baud rate")
	routeFile      = flag.String("route", "", "Route file (JSON) to guard against")
	settingsFile   = flag.String("settings", "", "Settings file (JSON); built-in defaults apply when omitted")
	journalPath    = flag.String("journal", "journal.db", "Path to the session journal database")
	replayFile     = flag.String("replay", "", "Replay NMEA sentences from a file instead of a device")
	replayInterval = flag.Duration("replay-interval", time.Second, "Delay between replayed sentences")
	disableGPS     = flag.Bool("disable-gps", false, "Run without a receiver (API and journal only)")
)

// handleSentence feeds one NMEA sentence through the decision engine
// and journals the resulting fix. Sentences without a position solution
// are skipped silently.
func handleSentence(eng *engine.Engine, db *journal.DB, cfg config.Source, sessionID, payload string) error {
	fix, err := gpsmux.ParseFix(payload)
	if err != nil {
		if errors.Is(err, gpsmux.ErrUnsupportedSentence) || errors.Is(err, gpsmux.ErrNoFix) {
			return nil
		}
		return fmt.Errorf("parse sentence: %w", err)
	}

	point := eng.Stamp(geo.Point{Lat: fix.Lat, Lon: fix.Lon})
	accuracy := fix.AccuracyMeters(cfg.Current().GetGPSBaseErrorMeters())
	dist := eng.IngestFix(point, accuracy)

	if err := db.RecordFix(journal.Fix{
		SessionID: sessionID,
		At:        time.Now(),
		Lat:       fix.Lat,
		Lon:       fix.Lon,
		AccuracyM: accuracy,
		DistanceM: math.Abs(dist),
		OnTrack:   dist <= 0,
	}); err != nil {
		return fmt.Errorf("record fix: %w", err)
	}
	return nil
}

// Main
func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(os.Args[2:])
			return
		case "healthcheck":
			runHealthcheck(os.Args[2:])
			return
		case "version":
			fmt.Println(version.String())
			return
		}
	}

	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *routeFile == "" && !*disableGPS {
		log.Fatal("Route file is required (or pass -disable-gps to browse the journal only)")
	}

	settings := config.EmptySettings()
	if *settingsFile != "" {
		var err error
		settings, err = config.LoadSettings(*settingsFile)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}
	store := config.NewStore(settings)

	var route *track.Route
	if *routeFile != "" {
		var err error
		route, err = track.LoadRoute(*routeFile)
		if err != nil {
			log.Fatalf("Failed to load route: %v", err)
		}
		log.Printf("Loaded route %q with %d arcs", route.Name, route.PairCount())
	}

	var mux gpsmux.MuxInterface
	switch {
	case *disableGPS:
		mux = gpsmux.NewDisabledMux()
	case *replayFile != "":
		m, err := gpsmux.NewReplayMux(*replayFile, *replayInterval)
		if err != nil {
			log.Fatalf("Failed to open replay file: %v", err)
		}
		mux = m
	default:
		m, err := gpsmux.NewDeviceMux(*port, gpsmux.PortOptions{BaudRate: *baud})
		if err != nil {
			log.Fatalf("Failed to open GPS port: %v", err)
		}
		mux = m
	}
	defer mux.Close()

	db, err := journal.Open(*journalPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Journal schema check failed: %v", err)
	}

	routeName := ""
	if route != nil {
		routeName = route.Name
	}
	session, err := db.StartSession(routeName, time.Now())
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	log.Printf("Recording session %s", session.ID)

	// Alarms go to the journal first, then to the log annunciator.
	sink := journal.NewAlarmRecorder(db, session.ID, alarm.LogSink{})
	eng, err := engine.New(route, engine.Options{
		Config: store,
		Sink:   sink,
		Logger: monitoring.LogLogger{Min: monitoring.LevelInfo},
	})
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	// Create a wait group for the HTTP server, receiver monitor, and
	// sentence handler routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the receiver port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor GPS port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to the receiver sentences and pass them to the engine
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := mux.Subscribe()
		defer mux.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				if err := handleSentence(eng, db, store, session.ID, payload); err != nil {
					log.Printf("error handling sentence: %v", err)
				}
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		// create a new API server instance over the engine and journal
		// and mount the API handlers
		httpMux := api.NewServer(eng, db, store, session.ID).ServeMux()

		mux.AttachAdminRoutes(httpMux)
		db.AttachAdminRoutes(httpMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(httpMux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()

	if err := eng.Close(); err != nil {
		log.Printf("engine close error: %v", err)
	}
	if err := db.EndSession(session.ID, time.Now()); err != nil {
		log.Printf("Failed to end session: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// runMigrate dispatches the migrate subcommand. The action verb comes
// first; the -journal flag may follow it.
func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	path := fs.String("journal", "journal.db", "Path to journal database file")

	var verbs []string
	rest := args
	for len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		verbs = append(verbs, rest[0])
		rest = rest[1:]
	}
	if err := fs.Parse(rest); err != nil {
		os.Exit(2)
	}

	journal.RunMigrateCommand(verbs, *path)
}

// runHealthcheck probes a running instance and exits non-zero when it
// is unreachable or unhealthy.
func runHealthcheck(args []string) {
	fs := flag.NewFlagSet("healthcheck", flag.ExitOnError)
	baseURL := fs.String("url", "http://localhost:8080", "Base URL of the running instance")
	timeout := fs.Duration("timeout", 5*time.Second, "Probe timeout")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	client := httputil.NewStandardClient(&http.Client{Timeout: *timeout})
	status, err := api.CheckHealth(client, *baseURL)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("status: ok\n")
	fmt.Printf("session: %s\n", status.SessionID)
	fmt.Printf("signal: %v\n", status.HasSignal)
	fmt.Printf("uptime: %.0fs\n", status.UptimeSeconds)
	fmt.Printf("version: %s\n", status.Version)
}
