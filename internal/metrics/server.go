package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Pinger: то, что умеет проверить живость БД (pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server обслуживает служебные ручки /metrics и /healthz.
type Server struct {
	httpServer *http.Server
}

// NewRouter собирает маршруты служебного сервера.
func NewRouter(db Pinger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.WithError(err).Warn("healthz: БД недоступна")
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewServer создаёт сервер на адресе addr (например, ":9090").
func NewServer(addr string, db Pinger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(db),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start запускает сервер в отдельной горутине.
func (s *Server) Start() {
	go func() {
		log.Infof("Сервер метрик слушает %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Ошибка сервера метрик")
		}
	}()
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
