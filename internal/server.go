package internal

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"it-inventory-manager/internal/config"
	"it-inventory-manager/internal/controller"
	"it-inventory-manager/internal/handlers"
	"it-inventory-manager/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Server renders the inventory window and routes its actions to the
// controller. Actions run one at a time.
type Server struct {
	Router     *chi.Mux
	Store      *store.Store
	Controller *controller.Controller
	Metrics    *Metrics
	Imports    *handlers.ImportsHandler
	Log        logrus.FieldLogger

	mu      sync.Mutex
	pending []dialog
	confirm *dialog
	// asset id whose deletion awaits an answer, 0 when none
	awaiting int64
}

// NewServer builds the window over an initialized store and loads the list.
func NewServer(ctx context.Context, cfg *config.Config, st *store.Store, metrics *Metrics, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		Router:     chi.NewRouter(),
		Store:      st,
		Controller: controller.New(st, log),
		Metrics:    metrics,
		Imports:    handlers.NewImportsHandler(st, cfg.MaxUploadBytes, cfg.MappingPath, log),
		Log:        log,
	}
	if err := s.Controller.LoadList(ctx); err != nil {
		return nil, errors.Wrap(err, "load asset list")
	}

	// Mount metrics if enabled; refused requests are counted too
	withMetrics := cfg.EnableMetrics && metrics != nil
	if withMetrics {
		s.Router.Use(metrics.Middleware())
	}
	s.Router.Use(s.localOnly(cfg.Addr))
	if withMetrics {
		s.Router.Get("/metrics", metrics.Handler().ServeHTTP)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	s.Router.Get("/", s.window)
	s.Router.Get("/exports/excel", s.exportExcel)

	s.Router.Group(func(r chi.Router) {
		r.Use(s.sameOrigin)
		r.Post("/add", s.action(s.add))
		r.Post("/edit", s.action(s.edit))
		r.Post("/save", s.action(s.save))
		r.Post("/delete", s.action(s.remove))
		r.Post("/imports/excel", s.importExcel)
	})

	return s, nil
}

// Close releases the store
func (s *Server) Close(ctx context.Context) error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

func (s *Server) window(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := newWindowData(s.Controller.Snapshot(), s.pending, s.confirm)
	s.pending, s.confirm = nil, nil
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "window.html", data); err != nil {
		s.Log.WithError(err).Error("render window")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.Log.WithError(err).Debug("write window")
	}
}

type actionFunc func(ctx context.Context, d *webDialogs, r *http.Request) error

// action wraps a form post: it records the typed values and the chosen row,
// runs fn, queues its dialogs and redirects back to the window. Validation
// and selection errors were already shown as warnings; anything else ends
// the action with a 500. A confirmation answer counts only when the previous
// action asked about the same row.
func (s *Server) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.Controller.SetForm(formAsset(r))
		if id, ok := formSelection(r); ok {
			if err := s.Controller.Select(id); err != nil {
				s.Controller.ClearSelection()
			}
		} else {
			s.Controller.ClearSelection()
		}

		selected, _ := s.Controller.Selected()
		answer := r.PostFormValue("answer")
		if s.awaiting == 0 || s.awaiting != selected {
			answer = ""
		}
		s.awaiting = 0

		d := &webDialogs{answer: answer}
		err := fn(r.Context(), d, r)
		switch {
		case err == nil,
			errors.Is(err, controller.ErrValidation),
			errors.Is(err, controller.ErrNoSelection):
			if err != nil {
				s.Log.WithError(err).WithField("path", r.URL.Path).Debug("action refused")
			}
			s.pending = append(s.pending, d.shown...)
			s.confirm = d.confirm
			if d.confirm != nil {
				s.awaiting = selected
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		default:
			s.Log.WithError(err).WithField("path", r.URL.Path).Error("action failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func (s *Server) add(ctx context.Context, d *webDialogs, r *http.Request) error {
	return s.Controller.Add(ctx, d, formAsset(r))
}

func (s *Server) edit(ctx context.Context, d *webDialogs, _ *http.Request) error {
	return s.Controller.LoadForEdit(ctx, d)
}

func (s *Server) save(ctx context.Context, d *webDialogs, r *http.Request) error {
	if s.Controller.State() != controller.Editing {
		// the button is disabled while idle
		return nil
	}
	return s.Controller.Save(ctx, d, formAsset(r))
}

func (s *Server) remove(ctx context.Context, d *webDialogs, _ *http.Request) error {
	return s.Controller.Delete(ctx, d)
}

func (s *Server) importExcel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = 0

	sum, err := s.Imports.Import(w, r)
	var reqErr *handlers.RequestError
	switch {
	case errors.As(err, &reqErr):
		s.pending = append(s.pending, dialog{Kind: "warn", Title: "Import Error", Message: reqErr.Message})
	case err != nil:
		s.Log.WithError(err).Warn("excel import failed")
		s.pending = append(s.pending, dialog{Kind: "warn", Title: "Import Error", Message: err.Error()})
	default:
		s.pending = append(s.pending, dialog{Kind: "info", Title: "Import Complete", Message: handlers.Summary(sum)})
	}

	if err := s.Controller.LoadList(r.Context()); err != nil {
		s.Log.WithError(err).Error("reload asset list")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) exportExcel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Imports.ExportExcel(w, r)
}
