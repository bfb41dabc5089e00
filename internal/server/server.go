package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/query"
)

// MaxPageSize caps the page_size a client may ask for.
const MaxPageSize = 250

// Server is the card search HTTP server.
type Server struct {
	store  db.Store
	mux    *http.ServeMux
	config Config
}

// New creates a new Server with the given store and config.
func New(store db.Store, cfg Config) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = query.DefaultPageSize
	}
	s := &Server{
		store:  store,
		mux:    http.NewServeMux(),
		config: cfg,
	}
	s.registerRoutes()
	s.registerWebUIRoutes()
	return s
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(s.authMiddleware(s.mux))
}

// ListenAndServe starts the server. Uses TLS if configured.
func (s *Server) ListenAndServe() error {
	addr := s.config.Addr()
	handler := s.Handler()

	if s.config.HasTLS() {
		log.Printf("surveilrise listening on https://%s", addr)
		return http.ListenAndServeTLS(addr, s.config.TLSCert, s.config.TLSKey, handler)
	}

	log.Printf("surveilrise listening on http://%s", addr)
	return http.ListenAndServe(addr, handler)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/parse", s.handleParse)
	s.mux.HandleFunc("GET /api/cards/{id}", s.handleGetCard)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Status ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.store.Status()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// --- Search ---

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.searchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := query.Execute(s.store, opts)
	if err != nil {
		writeError(w, searchErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) searchOptions(r *http.Request) (query.SearchOptions, error) {
	params := r.URL.Query()
	opts := query.SearchOptions{Query: params.Get("q"), Page: 1, PageSize: s.config.PageSize}

	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New("page must be a positive integer")
		}
		opts.Page = n
	}
	if v := params.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			return opts, errors.New("page_size must be between 1 and " + strconv.Itoa(MaxPageSize))
		}
		opts.PageSize = n
	}
	return opts, nil
}

// searchErrorStatus maps a search failure to a status code: bad queries are
// the client's fault, anything else is ours.
func searchErrorStatus(err error) int {
	switch {
	case errors.Is(err, query.ErrMissingQuery),
		errors.Is(err, query.ErrInvalidSearch),
		errors.Is(err, query.ErrInvalidExpression):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, query.ErrMissingQuery.Error())
		return
	}
	compiled, err := query.Compile(q)
	if err != nil {
		writeError(w, searchErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, compiled)
}

// --- Cards ---

// cardDetail is a card with everything the detail view shows.
type cardDetail struct {
	*db.Card
	LatestPrinting *db.Printing  `json:"latest_printing,omitempty"`
	Legalities     []db.Legality `json:"legalities"`
}

func (s *Server) loadCard(id string) (*cardDetail, error) {
	card, err := s.store.GetCard(id)
	if err != nil {
		return nil, err
	}
	printings, err := s.store.GetPrintings(id, 0)
	if err != nil {
		return nil, err
	}
	legalities, err := s.store.GetLegalities(id)
	if err != nil {
		return nil, err
	}

	card.Printings = printings
	detail := &cardDetail{Card: card, Legalities: legalities}
	if len(printings) > 0 {
		detail.LatestPrinting = printings[0]
		card.ImageURL = printings[0].ImageURL
	}
	if detail.Legalities == nil {
		detail.Legalities = []db.Legality{}
	}
	return detail, nil
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	detail, err := s.loadCard(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
