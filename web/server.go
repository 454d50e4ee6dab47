package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/status"
)

type Server struct {
	Pack     *pack.Pack
	Sessions *Sessions
	Status   *status.Broadcaster
	// actor name to model path for stage scenes
	Actors map[string]string
}

func NewServer(p *pack.Pack, actors map[string]string) *Server {
	return &Server{
		Pack:     p,
		Sessions: NewSessions(DEFAULT_SESSION_LIMIT),
		Status:   status.Default,
		Actors:   actors,
	}
}

func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/pack", s.HandlerAjaxPack)
	r.HandleFunc("/json/pack/{path:.*}", s.HandlerAjaxPack)
	r.HandleFunc("/action/{action}/{path:.*}", s.HandlerActionPackFile)
	r.HandleFunc("/dump/pack/{path:.*}", s.HandlerDumpPackFile)
	r.HandleFunc("/upload/{path:.*}", s.HandlerUploadPackFile).Methods(http.MethodPost)
	r.Handle("/ws/status", s.Status)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath)))
	}
	return r
}

func (s *Server) Handler(webPath string) http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router(webPath))
	return handlers.LoggingHandler(os.Stdout, h)
}

// Invalidate drops decoded instances and render sessions under path
func (s *Server) Invalidate(p string) {
	n := s.Pack.Cache.Invalidate(p)
	m := s.Sessions.Invalidate(p)
	if n != 0 || m != 0 {
		log.Printf("[web] Invalidated %q: %d instances, %d sessions", p, n, m)
	}
}

func (s *Server) ListenAndServe(addr, webPath string) error {
	log.Printf("[web] Starting server %v", addr)
	return http.ListenAndServe(addr, s.Handler(webPath))
}
