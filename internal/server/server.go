// Package server exposes a retile engine over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maax3v3/retile"
	"github.com/maax3v3/retile/internal/imaging"
)

// MaxUploadBytes caps the size of a reconstruct request body.
const MaxUploadBytes = 64 << 20

// MaxPixels caps the dimensions a reconstruct request may declare.
const MaxPixels = 1 << 25

const defaultStatsN = 10

type handler struct {
	eng *retile.Engine
	log *slog.Logger
}

// New returns the API router for eng.
func New(eng *retile.Engine, log *slog.Logger) http.Handler {
	h := &handler{eng: eng, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Post("/reconstruct", h.reconstruct)
	r.Get("/stats", h.stats)
	r.Delete("/stats", h.resetStats)
	return r
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (h *handler) reconstruct(w http.ResponseWriter, r *http.Request) {
	blend := h.eng.Options().Blend
	if v := r.URL.Query().Get("blend"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid blend parameter", http.StatusBadRequest)
			return
		}
		blend = b
	}

	img, err := imaging.DecodeBounded(http.MaxBytesReader(w, r.Body, MaxUploadBytes), MaxPixels)
	var tooBig *http.MaxBytesError
	if errors.Is(err, imaging.ErrTooLarge) || errors.As(err, &tooBig) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	out, err := h.eng.ReconstructBlend(r.Context(), img, blend)
	if errors.Is(err, retile.ErrTargetTooSmall) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("reconstruct failed", "err", err)
		http.Error(w, "reconstruction failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		h.log.Error("encoding response", "err", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	h.log.Debug("reconstructed", "width", out.Bounds().Dx(), "height", out.Bounds().Dy(),
		"blend", blend, "elapsed", time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	n := defaultStatsN
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid n parameter", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	rep, err := h.eng.Stats(n)
	if err != nil {
		h.log.Error("stats failed", "err", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		h.log.Error("encoding stats", "err", err)
	}
}

func (h *handler) resetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.ResetStats(); err != nil {
		h.log.Error("resetting stats failed", "err", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
