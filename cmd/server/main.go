package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/Ko-stant/estate-visibility-engine/internal/config"
	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
	"github.com/Ko-stant/estate-visibility-engine/internal/project"
	"github.com/Ko-stant/estate-visibility-engine/internal/visibility"
	"github.com/Ko-stant/estate-visibility-engine/internal/web/views"
	"github.com/Ko-stant/estate-visibility-engine/internal/ws"
)

// catalogDocs are the shared documents; any other .json is a project.
var catalogDocs = map[string]bool{"blocks.json": true, "projects.json": true, "school.json": true}

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := NewLogger()
	StartProfiling(GetProfilingConfigFromEnv())

	policy, preset, err := newPolicy(cfg)
	if err != nil {
		log.Fatalf("visibility bands: %v", err)
	}
	logger.Printf("visibility bands: %s", preset)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := project.NewSource(cfg.ProjectSource)
	var catalog atomic.Pointer[project.Catalog]
	catalog.Store(project.LoadCatalog(ctx, src, logger))

	loader := func(ctx context.Context, name string) (*geometry.Project, bool) {
		return project.LoadOrFallback(ctx, src, name, cfg.DefaultCenter, logger)
	}

	hub := ws.NewHub()
	sessions := NewSessionManager()

	if cfg.WatchSource {
		if fs, ok := src.(*project.FileSource); ok {
			go func() {
				err := fs.Watch(ctx, logger, func(doc string) {
					if catalogDocs[doc] {
						cat := project.LoadCatalog(ctx, src, logger)
						catalog.Store(cat)
						sessions.ReloadCatalog(cat, logger)
						return
					}
					name := strings.TrimSuffix(doc, ".json")
					if n := sessions.ReloadProject(ctx, name, loader, logger); n > 0 {
						logger.Printf("reloaded %s in %d sessions", name, n)
					}
				})
				if err != nil {
					logger.Printf("project watch stopped: %v", err)
				}
			}()
		} else {
			logger.Printf("PROJECT_WATCH ignored: %s is not a directory source", cfg.ProjectSource)
		}
	}

	mux := http.NewServeMux()
	fileServer := http.FileServer(http.Dir("internal/web/static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		id := hub.Add(conn)
		sink := NewSessionSink(hub, id, NewSequenceGenerator())
		ctrl := NewSceneController(ControllerDeps{
			Policy:     policy,
			Preset:     preset,
			Catalog:    catalog.Load(),
			Status:     cfg.StatusFilter,
			Stabilizer: cfg.Stabilizer,
			Sink:       sink,
			Logger:     logger,
		})
		handlers := NewIntentHandlers(NewInstrumentedSceneEngine(ctrl), loader, sink, logger)
		sessions.Add(&Session{ID: id, Controller: ctrl, Handlers: handlers})
		logger.Printf("session %s connected", id)

		go func(c *websocket.Conn) {
			defer hub.Remove(id)
			defer sessions.Remove(id)
			defer c.Close(websocket.StatusNormalClosure, "")
			for {
				_, data, err := c.Read(ctx)
				if err != nil {
					logger.Printf("session %s closed: %v", id, err)
					return
				}
				if err := handlers.HandleWebSocketMessage(ctx, data); err != nil {
					logger.Printf("session %s: %v", id, err)
				}
			}
		}(conn)
	})

	NewDebugSystem(cfg.Debug, sessions, catalog.Load, policy, logger).RegisterDebugRoutes(mux)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		zoom, _ := strconv.ParseFloat(r.URL.Query().Get("zoom"), 64)
		page := views.IndexData{
			Project:    r.URL.Query().Get("project"),
			Preset:     preset,
			StreamPath: "/stream",
			Zoom:       zoom,
		}
		if err := views.IndexPage(page).Render(r.Context(), w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on :%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// newPolicy builds the policy from VISIBILITY_BANDS_FILE when set, else
// from the named preset.
func newPolicy(cfg *config.Config) (*visibility.Policy, string, error) {
	name := cfg.Preset
	var bands visibility.Bands
	var err error
	if cfg.BandsFile != "" {
		name = cfg.BandsFile
		bands, err = visibility.LoadBandsFile(cfg.BandsFile)
	} else {
		bands, err = visibility.Preset(cfg.Preset)
	}
	if err != nil {
		return nil, "", err
	}
	policy, err := visibility.NewPolicy(bands)
	if err != nil {
		return nil, "", err
	}
	return policy, name, nil
}
