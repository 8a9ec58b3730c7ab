package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/karjudev/dbgm/docpipe"
	"github.com/karjudev/dbgm/docstore"
	"github.com/karjudev/dbgm/kit"
	"github.com/karjudev/dbgm/pipeline"
	"github.com/karjudev/dbgm/searchindex"
)

type api struct {
	svc    *pipeline.Service
	docs   *docstore.Store
	index  *searchindex.Index
	cfg    *Config
	logger *slog.Logger
}

func newAPI(svc *pipeline.Service, docs *docstore.Store, index *searchindex.Index, cfg *Config, logger *slog.Logger) *api {
	return &api{svc: svc, docs: docs, index: index, cfg: cfg, logger: logger}
}

func (a *api) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealth)
	r.Get("/search", a.handleSearch)
	r.Get("/count", a.handleCount)
	r.Get("/keywords", a.handleListKeywords)
	r.Get("/ordinances/{id}", a.handleGetOrdinance)

	r.Group(func(r chi.Router) {
		r.Use(a.basicAuth)
		r.Post("/ordinances", a.handleUpload)
		r.Get("/ordinances", a.handleListMine)
		r.Delete("/ordinances/{id}", a.handleDelete)
		r.Get("/documents/{id}", a.handleGetDocument)
		r.Put("/dates/{id}", a.handleUpdateDate)
	})

	return r
}

// basicAuth authenticates against the configured users with bcrypt
// hashes and records the uploader identity in the request context.
func (a *api) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, pass, ok := r.BasicAuth()
		if ok {
			for _, u := range a.cfg.Users {
				if u.Name != name {
					continue
				}
				if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pass)) == nil {
					ctx := kit.WithUserID(r.Context(), name)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				break
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="dbgm"`)
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload runs the full pipeline on one uploaded file. Multipart
// fields: file (required), institution, court, measures (JSON array of
// {measure, outcome}), publication_date (YYYY-MM-DD, optional).
func (a *api) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, a.cfg.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	var measures []searchindex.Measure
	if raw := r.FormValue("measures"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &measures); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parse measures: %w", err))
			return
		}
	}

	res, err := a.svc.Process(r.Context(), pipeline.Request{
		Filename:        header.Filename,
		Data:            data,
		Uploader:        kit.GetUserID(r.Context()),
		Institution:     searchindex.Institution(r.FormValue("institution")),
		Court:           r.FormValue("court"),
		Measures:        measures,
		PublicationDate: r.FormValue("publication_date"),
	})
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var outcome *bool
	if s := q.Get("outcome"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("outcome: %w", err))
			return
		}
		outcome = &v
	}

	results, err := a.index.Search(r.Context(), searchindex.Query{
		Text:        q.Get("text"),
		Institution: q.Get("institution"),
		Courts:      q["court"],
		Measures:    q["measure"],
		Outcome:     outcome,
		Keywords:    q["keyword"],
		DateFrom:    q.Get("date_from"),
		DateTo:      q.Get("date_to"),
		Offset:      queryInt(r, "offset", 0),
		Limit:       queryInt(r, "limit", 20),
	})
	if err != nil {
		a.writeIndexError(w, err)
		return
	}
	if results == nil {
		results = []searchindex.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *api) handleCount(w http.ResponseWriter, r *http.Request) {
	stats, err := a.index.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleListKeywords lists every distinct keyword in the published
// corpus, for populating search filter choices.
func (a *api) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	kws, err := a.index.ListKeywords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if kws == nil {
		kws = []string{}
	}
	writeJSON(w, http.StatusOK, kws)
}

func (a *api) handleGetOrdinance(w http.ResponseWriter, r *http.Request) {
	ord, err := a.index.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeIndexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// handleListMine lists the documents committed by the authenticated
// uploader, newest first.
func (a *api) handleListMine(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.docs.ListByUploader(r.Context(), kit.GetUserID(r.Context()),
		queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summaries == nil {
		summaries = []docstore.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleGetDocument returns the stored document with originals and
// annotations. Auth-only: this is the audit view, not the public one.
func (a *api) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := a.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *api) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, searchindex.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleUpdateDate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PublicationDate string `json:"publication_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse body: %w", err))
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.index.UpdatePublicationDate(r.Context(), id, body.PublicationDate); err != nil {
		a.writeIndexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "publication_date": body.PublicationDate})
}

// writePipelineError maps a pipeline failure to a status by stage:
// client mistakes on extract, upstream failures on recognize and
// publish, conflicts on commit.
func (a *api) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docpipe.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, docpipe.ErrNoText):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, searchindex.ErrInvalidInstitution),
		errors.Is(err, searchindex.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, docstore.ErrAlreadyExists), errors.Is(err, searchindex.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err)
	default:
		switch pipeline.StageOf(err) {
		case pipeline.StageExtract:
			writeError(w, http.StatusBadRequest, err)
		case pipeline.StageRecognize, pipeline.StagePublish:
			writeError(w, http.StatusBadGateway, err)
		default:
			a.logger.Error("upload failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
	}
}

func (a *api) writeIndexError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, searchindex.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, searchindex.ErrInvalidInstitution),
		errors.Is(err, searchindex.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
