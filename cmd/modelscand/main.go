package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modelscan/internal/common/fsutil"
	"modelscan/internal/config"
	"modelscan/internal/httpapi"
	"modelscan/internal/manager"
	"modelscan/internal/scan"
	"modelscan/internal/store"
	"modelscan/internal/vram"
	"modelscan/pkg/types"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("MODELSCAN_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultLocal := "~/ComfyUI/models"
	if v := os.Getenv("MODELSCAN_LOCAL_ROOTS"); v != "" {
		defaultLocal = v
	}
	defaultWarehouse := os.Getenv("MODELSCAN_WAREHOUSE_ROOTS")

	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	localRoots := flag.String("local-roots", defaultLocal, "Comma-separated fast-storage directories to scan")
	warehouseRoots := flag.String("warehouse-roots", defaultWarehouse, "Comma-separated bulk-storage directories to scan")
	configPath := flag.String("config", os.Getenv("MODELSCAN_CONFIG"), "Optional config file (.yaml/.json/.toml); flags override")
	workers := flag.Int("scan-workers", 0, "Concurrent scan workers (0=default)")
	fullDigest := flag.Bool("full-digest", false, "Compute full SHA-256 digests during scans")
	gpuClassGB := flag.Float64("gpu-class-gb", 0, "Target GPU memory in GB for fit warnings (0=report all common classes)")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	flag.Parse()

	var fileCfg config.Config
	if *configPath != "" {
		var err error
		fileCfg, err = config.Load(*configPath)
		if err != nil {
			errLog := zerolog.New(os.Stderr)
			errLog.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
	}
	if fileCfg.Addr != "" && *addr == defaultAddr {
		*addr = fileCfg.Addr
	}
	if fileCfg.LogLevel != "" && *logLevel == "info" {
		*logLevel = fileCfg.LogLevel
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)

	local := splitCSV(*localRoots)
	warehouse := splitCSV(*warehouseRoots)
	if len(fileCfg.LocalRoots) > 0 && *localRoots == defaultLocal {
		local = fileCfg.LocalRoots
	}
	if len(fileCfg.WarehouseRoots) > 0 && *warehouseRoots == defaultWarehouse {
		warehouse = fileCfg.WarehouseRoots
	}
	local, err = fsutil.ExpandHomeAll(local)
	if err != nil {
		log.Fatal().Err(err).Msg("bad local roots")
	}
	warehouse, err = fsutil.ExpandHomeAll(warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("bad warehouse roots")
	}
	if len(local) == 0 && len(warehouse) == 0 {
		log.Fatal().Msg("no scan roots configured")
	}

	nWorkers := *workers
	if nWorkers == 0 {
		nWorkers = fileCfg.ScanWorkers
	}
	doFull := *fullDigest || fileCfg.FullDigest
	if *gpuClassGB == 0 {
		*gpuClassGB = fileCfg.GPUClassGB
	}
	vram.SetTargetClassGB(*gpuClassGB)

	st := store.NewMemory()
	scanner := scan.New(st,
		scan.WithWorkers(nWorkers),
		scan.WithFullDigest(doFull),
		scan.WithLogger(log),
	)
	roots := []scan.Roots{
		{Tier: types.TierLocal, Paths: local},
		{Tier: types.TierWarehouse, Paths: warehouse},
	}
	mgr := manager.New(st, scanner, roots, log)

	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"})
	}

	// First inventory pass runs in the background; /readyz flips once it
	// completes.
	go func() {
		if _, err := mgr.Scan(baseCtx); err != nil {
			log.Error().Err(err).Msg("initial scan failed")
		}
	}()

	srv := &http.Server{Addr: *addr, Handler: httpapi.NewMux(mgr)}

	go func() {
		log.Info().Str("addr", *addr).Strs("local", local).Strs("warehouse", warehouse).Msg("modelscand listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

// splitCSV splits a comma-separated flag value, trimming spaces and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
