package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"botbridge.gg/internal/config"
	"botbridge.gg/internal/persistence/history"
	"botbridge.gg/internal/persistence/indexdb"
	"botbridge.gg/internal/server"
	"botbridge.gg/internal/sim"
	"botbridge.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		configPath = flag.String("config", "./configs/server.yaml", "server settings path")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		secret     = flag.String("secret", "", "session secret (overrides config and BB_SESSION_SECRET)")
		disableDB  = flag.Bool("disable_db", false, "disable the saved-history index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	settings, err := config.Load(configFileOrEmpty(*configPath))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		settings.ListenAddr = *addr
	}
	if *dataDir != "" {
		settings.DataDir = *dataDir
	}
	if *disableDB {
		settings.DisableDB = true
	}
	sessionSecret := strings.TrimSpace(*secret)
	if sessionSecret == "" {
		sessionSecret = strings.TrimSpace(os.Getenv("BB_SESSION_SECRET"))
	}
	if sessionSecret == "" {
		sessionSecret = settings.SessionSecret
	}
	if sessionSecret == "" {
		logger.Fatalf("no session secret configured (flag -secret, env BB_SESSION_SECRET, or config session_secret)")
	}

	_ = os.MkdirAll(settings.DataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !settings.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(settings.DataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open history index: %v", err)
		}
		defer idx.Close()
	} else {
		logger.Printf("history index disabled")
	}

	recorder := history.NewRecorder(filepath.Join(settings.DataDir, "histories"), idx, logger)

	scene := sim.NewScene(settings.SceneID)
	overlay := &sim.Entity{ID: -1, Name: "overlay", Type: "Overlay"}
	scene.Add(overlay)

	core := server.New(server.Config{
		TickRate:      settings.TickRate,
		StepInterval:  time.Duration(settings.StepMs) * time.Millisecond,
		SessionSecret: sessionSecret,
	}, server.Options{
		Log:      logger,
		Scene:    scene,
		Overlay:  overlay,
		History:  recorder,
		Recorder: recorder,
	})
	spawner := sim.NewBasicSpawnManager(scene, core, logger)
	core.SetSpawner(spawner)
	core.StartGame()

	ctx, cancel := signalContext()
	defer cancel()

	go core.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := core.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP botbridge_tick Current simulation step count.\n")
		fmt.Fprintf(rw, "# TYPE botbridge_tick gauge\n")
		fmt.Fprintf(rw, "botbridge_tick{scene=%q} %d\n", settings.SceneID, m.Tick)

		fmt.Fprintf(rw, "# HELP botbridge_clients Admitted bot clients.\n")
		fmt.Fprintf(rw, "# TYPE botbridge_clients gauge\n")
		fmt.Fprintf(rw, "botbridge_clients{scene=%q} %d\n", settings.SceneID, m.Clients)

		fmt.Fprintf(rw, "# HELP botbridge_pending_tasks Queued tasks awaiting the simulation thread.\n")
		fmt.Fprintf(rw, "# TYPE botbridge_pending_tasks gauge\n")
		fmt.Fprintf(rw, "botbridge_pending_tasks{scene=%q} %d\n", settings.SceneID, m.PendingTasks)

		fmt.Fprintf(rw, "# HELP botbridge_step_ms Last simulation step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE botbridge_step_ms gauge\n")
		fmt.Fprintf(rw, "botbridge_step_ms{scene=%q} %.3f\n", settings.SceneID, float64(m.LastStepNanos)/1e6)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(core, logger).Handler())

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", settings.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// configFileOrEmpty tolerates a missing default config file; an explicitly
// broken one still fails in Load.
func configFileOrEmpty(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
