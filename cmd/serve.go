package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/county-atlas/internal/geo"
	"github.com/sells-group/county-atlas/internal/layout"
	"github.com/sells-group/county-atlas/internal/render"
	"github.com/sells-group/county-atlas/internal/table"
	"github.com/sells-group/county-atlas/internal/viz"
)

var (
	serveDataPath string
	serveGeoPath  string
	servePort     int
)

// atlasServer wraps the single-threaded viz session for concurrent HTTP
// access. The session itself owns one classification at a time; the mutex
// serializes entry points exactly as UI events would.
type atlasServer struct {
	mu       sync.Mutex
	tbl      *table.Table
	regions  []geo.Region
	session  *viz.Session
	renderer *render.SVGRenderer
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification and rendering API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serveDataPath == "" || serveGeoPath == "" {
			return eris.New("--data and --geo are required")
		}

		tbl, err := table.LoadFile(serveDataPath, cfg.Data.KeyColumn)
		if err != nil {
			return err
		}
		regions, err := loadRegions(serveGeoPath)
		if err != nil {
			return err
		}

		renderer := render.New(cfg.Render.Width, cfg.Render.Height)
		engine := layout.NewEngine(cfg.Layout.Iterations, cfg.Layout.CollisionRadius, cfg.Layout.Attraction)
		srv := &atlasServer{
			tbl:      tbl,
			regions:  regions,
			session:  viz.NewSession(tbl, regions, engine, renderer, nil),
			renderer: renderer,
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE"},
		}))
		r.Use(rateLimit(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/fields", srv.handleFields)
		r.Get("/classify", srv.handleClassify)
		r.Get("/map.svg", srv.handleMap)
		r.Post("/highlight", srv.handleHighlight)
		r.Delete("/highlight", srv.handleClearHighlight)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			_ = httpSrv.Close()
		}()

		zap.L().Info("serving", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func (s *atlasServer) handleFields(w http.ResponseWriter, req *http.Request) {
	fields := table.EligibleFields(s.tbl, cfg.Data.ReservedColumns)
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (s *atlasServer) handleClassify(w http.ResponseWriter, req *http.Request) {
	field := req.URL.Query().Get("field")
	if field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field is required"})
		return
	}

	s.mu.Lock()
	result, err := s.session.SelectField(field)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *atlasServer) handleMap(w http.ResponseWriter, req *http.Request) {
	field := req.URL.Query().Get("field")
	if field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.session.SelectField(field)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	var labels []layout.PlacedLabel
	if hl := req.URL.Query().Get("highlight"); hl != "" {
		breakValue, err := strconv.ParseFloat(hl, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid highlight value"})
			return
		}
		labels, err = s.session.OnSelectBreak(breakValue)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.renderer.RenderMap(s.regions, result, labels)))
}

func (s *atlasServer) handleHighlight(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Break float64 `json:"break"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	labels, err := s.session.OnSelectBreak(body.Break)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

func (s *atlasServer) handleClearHighlight(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	s.session.OnClearSelection()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// rateLimit applies a shared token bucket to every request.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().StringVar(&serveDataPath, "data", "", "dataset file (.csv or .xlsx)")
	serveCmd.Flags().StringVar(&serveGeoPath, "geo", "", "county geometry file (.shp or .geojson)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
