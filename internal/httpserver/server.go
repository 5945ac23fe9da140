package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/fitcoach/diet-hub/internal/auth"
	"github.com/fitcoach/diet-hub/internal/blob"
	"github.com/fitcoach/diet-hub/internal/config"
	"github.com/fitcoach/diet-hub/internal/dietprogress"
	"github.com/fitcoach/diet-hub/internal/diettracker"
	"github.com/fitcoach/diet-hub/internal/reports"
	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/fitcoach/diet-hub/internal/storage/memory"
	"github.com/fitcoach/diet-hub/internal/storage/postgres"
	"github.com/fitcoach/diet-hub/internal/userctx"
	"github.com/google/uuid"
)

// Server wires storage, services and routes.
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	authMiddleware *auth.Middleware
}

func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	s.initStorage()
	s.routes()
	return s
}

// NewWithStorage builds a server over a prepared storage backend (tests).
func NewWithStorage(cfg *config.Config, st storage.Storage) *Server {
	s := &Server{
		config:  cfg,
		mux:     http.NewServeMux(),
		storage: st,
	}

	s.routes()
	return s
}

func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("INFO storage: using in-memory backend")
		s.storage = memory.New()
		return
	}

	log.Println("INFO storage: connecting to PostgreSQL")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("WARN storage: PostgreSQL connection failed: %v", err)
		log.Println("WARN storage: falling back to in-memory backend")
		s.storage = memory.New()
		return
	}
	s.storage = pgStorage
}

// Storage exposes the active backend (seeding, shutdown).
func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	authService := auth.NewService(s.config)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)
	if s.config.AuthMode == "dev" {
		authHandler := auth.NewHandlers(authService)
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}

	// Clients API
	s.mux.HandleFunc("GET /v1/clients", s.handleListClients)
	s.mux.HandleFunc("POST /v1/clients", s.handleCreateClient)

	plansStorage := s.getPlansStorage()
	trackingStorage := s.getTrackingStorage()
	historyStorage := s.getHistoryStorage()
	summariesStorage := s.getSummariesStorage()

	// Diet progress API
	progressService := dietprogress.NewService(trackingStorage, trackingStorage, summariesStorage)
	progressHandler := dietprogress.NewHandler(progressService, summariesStorage)

	s.mux.HandleFunc("GET /v1/diet-progress", progressHandler.HandleGet)

	// Diet tracker API
	trackerService := diettracker.NewService(
		trackingStorage,
		plansStorage,
		trackingStorage,
		trackingStorage,
		trackingStorage,
		historyStorage,
		progressService,
	)
	trackerHandler := diettracker.NewHandler(trackerService)

	s.mux.HandleFunc("GET /v1/diet-tracker", trackerHandler.HandleGet)
	s.mux.HandleFunc("POST /v1/diet-tracker", trackerHandler.HandlePost)
	s.mux.HandleFunc("GET /v1/diet-tracker/history", trackerHandler.HandleGetHistory)
	s.mux.HandleFunc("GET /v1/diet-tracker/meals", trackerHandler.HandleGetMeals)
	s.mux.HandleFunc("POST /v1/diet-tracker/meals", trackerHandler.HandlePostMeals)
	s.mux.HandleFunc("PATCH /v1/diet-tracker/meals", trackerHandler.HandlePatchMeals)
	s.mux.HandleFunc("DELETE /v1/diet-tracker/meals", trackerHandler.HandleDeleteMeals)

	// Reports API
	blobStore, blobMode, err := blob.NewBlobStore(*s.config, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: %v", err)
	}
	log.Printf("INFO blob: reports blob mode: %s", blobMode)

	reportsGenerator := reports.NewGenerator(trackingStorage, plansStorage, trackingStorage, progressService)
	reportsService := reports.NewService(
		s.getReportsStorage(),
		reportsGenerator,
		blobStore,
		s.config.S3.PresignTTLSeconds,
	)
	reportsHandler := reports.NewHandlers(reportsService, s.config.ReportsMaxPageSize)

	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

type trackingStorageBundle interface {
	storage.PlanAssignmentsStorage
	storage.DailyLogsStorage
	storage.MealLogsStorage
	storage.SnackLogsStorage
}

func (s *Server) getPlansStorage() storage.NutritionPlansStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetPlansStorage()
	case *postgres.PostgresStorage:
		return st.GetPlansStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getTrackingStorage() trackingStorageBundle {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetTrackingStorage()
	case *postgres.PostgresStorage:
		return st.GetTrackingStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getHistoryStorage() storage.CustomMealHistoryStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetHistoryStorage()
	case *postgres.PostgresStorage:
		return st.GetHistoryStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getSummariesStorage() storage.ProgressSummariesStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetSummariesStorage()
	case *postgres.PostgresStorage:
		return st.GetSummariesStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) getReportsStorage() storage.ReportsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetReportsStorage()
	case *postgres.PostgresStorage:
		return st.GetReportsStorage()
	default:
		log.Fatal("unknown storage type")
		return nil
	}
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	owner := userctx.OwnerID(r.Context())
	clients, err := s.storage.ListClients(r.Context(), owner)
	if err != nil {
		log.Printf("ERROR clients: list: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list clients")
		return
	}

	type clientDTO struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	dtos := make([]clientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = clientDTO{ID: c.ID, Name: c.Name}
	}

	writeJSON(w, http.StatusOK, map[string]any{"clients": dtos})
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	client := &storage.Client{
		ID:          uuid.New(),
		OwnerUserID: userctx.OwnerID(r.Context()),
		Name:        req.Name,
	}
	if err := s.storage.CreateClient(r.Context(), client); err != nil {
		log.Printf("ERROR clients: create: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": client.ID, "name": client.Name})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the full middleware chain: CORS, rate limit, auth, router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != "none" {
		if s.config.AuthRequired {
			handler = s.authMiddleware.RequireAuth(handler)
		} else {
			handler = s.authMiddleware.OptionalAuth(handler)
		}
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	log.Printf("Server listening on http://localhost%s", addr)
	log.Printf("Health check: http://localhost%s/healthz", addr)

	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
