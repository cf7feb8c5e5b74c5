package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/shuttle.report/internal/api"
	"github.com/banshee-data/shuttle.report/internal/config"
	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/fsutil"
	"github.com/banshee-data/shuttle.report/internal/media"
	"github.com/banshee-data/shuttle.report/internal/radargun"
	"github.com/banshee-data/shuttle.report/internal/serialmux"
	"github.com/banshee-data/shuttle.report/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "Listen address")
	dbPathFlag   = flag.String("db-path", "shuttle.db", "Path to the results database")
	configFile   = flag.String("config", config.DefaultConfigPath, "Path to the JSON config file")
	port         = flag.String("port", "/dev/ttyUSB0", "Serial port of the reference radar")
	baudRate     = flag.Int("baud", serialmux.DefaultBaudRate, "Reference radar baud rate")
	frame        = flag.String("frame", serialmux.DefaultFrame, "Reference radar data bits, parity and stop bits")
	disableRadar = flag.Bool("disable-radar", false, "Run without the reference radar")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Println("shuttle", version.String())
		return
	}

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPathFlag, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.NewDB(*dbPathFlag)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	mediaStore, err := media.NewStore(fsutil.OSFileSystem{}, cfg.GetMediaDir(), cfg.GetMaxUploadBytes())
	if err != nil {
		log.Fatalf("Failed to create media store: %v", err)
	}

	portOpts, err := serialmux.ParseFrame(*frame, *baudRate)
	if err != nil {
		log.Fatalf("Invalid serial settings: %v", err)
	}
	radarSerial, err := serialmux.Open(*port, portOpts, *disableRadar)
	if err != nil {
		log.Fatalf("Failed to open reference radar: %v", err)
	}
	if !*disableRadar {
		log.Printf("reference radar on %s at %s", *port, portOpts)
	}
	defer radarSerial.Close()

	var tracker *radargun.Tracker
	if !*disableRadar {
		if err := radarSerial.Initialize(); err != nil {
			log.Fatalf("Failed to initialize reference radar: %v", err)
		}
		tracker = radargun.NewTracker(radarSerial, nil, 0)
	}

	server, err := api.NewServer(api.Options{
		Config: cfg,
		DB:     database,
		Media:  mediaStore,
		Radar:  tracker,
	})
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// serial IO and the tracker only run with a radar attached
	if tracker != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := radarSerial.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("failed to monitor serial port: %v", err)
			}
			log.Print("monitor routine terminated")
		}()
		go func() {
			defer wg.Done()
			if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("reference tracker stopped: %v", err)
			}
			log.Print("tracker routine terminated")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := server.ServeMux()
		database.AttachAdminRoutes(mux)
		radarSerial.AttachAdminRoutes(mux)

		httpServer := &http.Server{
			Addr:              *listen,
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Printf("shuttle %s listening on %s", version.Version, *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		server.Close()
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags]\n       %s [flags] migrate <action>\n\nFlags:\n", os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintln(out)
	db.PrintMigrateHelp(out)
}
