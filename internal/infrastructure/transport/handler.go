package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Matrix-Ledger/smart-contract-generator-api/app/usecase"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

const internalServerError = "Internal Server Error"

type ContractHandler struct {
	generator   usecase.ContractGenerator
	generations usecase.GenerationsUseCase // nil when history is disabled
	schemas     *validator.SchemaValidator
	logger      *slog.Logger
	upgrader    websocket.Upgrader

	// metrics
	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

func NewContractHandler(
	generator usecase.ContractGenerator,
	generations usecase.GenerationsUseCase,
	schemas *validator.SchemaValidator,
	logger *slog.Logger,
	reg prometheus.Registerer,
) *ContractHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqCount, errCount)

	return &ContractHandler{
		generator:   generator,
		generations: generations,
		schemas:     schemas,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

// withMetrics records request count, duration and error status per route template.
func (h *ContractHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := routeTemplate(r)
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

// withRecovery turns a panic in a handler into a generic 500 response.
func (h *ContractHandler) withRecovery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("handler panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
			}
		}()
		next(w, r)
	}
}

func (h *ContractHandler) wrap(next http.HandlerFunc) http.HandlerFunc {
	return h.withMetrics(h.withRecovery(next))
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over connections that pass through withMetrics.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *ContractHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generateRust", h.wrap(h.handleGenerate)).Methods(http.MethodPost)

	r.HandleFunc("/handleSimpleTextRequest", h.wrap(h.handleSimpleTextRequest)).Methods(http.MethodPost)
	r.HandleFunc("/handleJsonBody", h.wrap(h.handleJSONBody)).Methods(http.MethodPost)
	r.HandleFunc("/handleQueryParams", h.wrap(h.handleQueryParams)).Methods(http.MethodGet)
	r.HandleFunc("/handleMultipartData", h.wrap(h.handleMultipartData)).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/generate/ws", h.wrap(h.handleGenerateWS)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.wrap(h.handleHealth)).Methods(http.MethodGet)
	if h.generations != nil {
		api.HandleFunc("/generations", h.wrap(h.handleListGenerations)).Methods(http.MethodGet)
		api.HandleFunc("/generations/{id}", h.wrap(h.handleGetGeneration)).Methods(http.MethodGet)
	}

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeErrorMessage(w, code, err.Error())
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// GET /api/v1/health
func (h *ContractHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
