package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipframe/clipframe-agent/internal/config"
	"github.com/clipframe/clipframe-agent/internal/export"
	"github.com/clipframe/clipframe-agent/internal/session"
	"github.com/clipframe/clipframe-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/project", projectHandler(cfg))

		r.Post("/assets", addAssetHandler(cfg))
		r.Post("/overlays", addOverlayHandler(cfg))
		r.Patch("/overlays/{id}", patchOverlayHandler(cfg))
		r.Delete("/overlays/{id}", deleteOverlayHandler(cfg))
		r.Post("/overlays/{id}/duplicate", duplicateHandler(cfg))
		r.Post("/overlays/{id}/split", splitHandler(cfg))
		r.Delete("/rows/{row}", deleteRowHandler(cfg))

		r.Put("/selection", selectionHandler(cfg))
		r.Put("/aspect-ratio", aspectRatioHandler(cfg))
		r.Put("/playback", playbackHandler(cfg))
		r.Put("/background", backgroundHandler(cfg))

		r.Get("/export/edl", exportEDLHandler(cfg))

		r.Post("/render", startRenderHandler(cfg))
		r.Get("/render", renderStatusHandler(cfg))
		r.Delete("/render", resetRenderHandler(cfg))

		r.Post("/autosaves", saveNowHandler(cfg))
		r.Get("/autosaves", listAutosavesHandler(cfg))
		r.Get("/autosaves/{id}", getAutosaveHandler(cfg))
		r.Post("/autosaves/{id}/restore", restoreHandler(cfg))
		r.Delete("/autosaves/{id}", deleteAutosaveHandler(cfg))
		r.Delete("/autosaves", clearAutosavesHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Version:   config.Version,
			UptimeS:   uptime,
			ProjectID: cfg.Controller.ProjectID(),
		})
	}
}

func projectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func addAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		kind := timeline.Kind(req.Kind)
		if !kind.Valid() {
			WriteError(w, http.StatusBadRequest, "unknown overlay kind: "+req.Kind, "BAD_REQUEST")
			return
		}

		id := cfg.Controller.AddAsset(session.AssetDescriptor{
			Kind:            kind,
			DurationSeconds: req.DurationSeconds,
			Src:             req.Src,
			Content:         req.Content,
		})
		WriteJSON(w, http.StatusCreated, OverlayCreatedResponse{ID: id})
	}
}

func addOverlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddOverlayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if !req.Overlay.Kind.Valid() {
			WriteError(w, http.StatusBadRequest, "unknown overlay kind", "BAD_REQUEST")
			return
		}
		if req.Overlay.DurationInFrames <= 0 {
			WriteError(w, http.StatusBadRequest, "durationInFrames must be positive", "BAD_REQUEST")
			return
		}

		id := cfg.Controller.AddOverlay(&req.Overlay)
		WriteJSON(w, http.StatusCreated, OverlayCreatedResponse{ID: id})
	}
}

func patchOverlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := overlayID(w, r)
		if !ok {
			return
		}

		var req PatchOverlayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cfg.Controller.PatchOverlay(id, req.Patch)
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func deleteOverlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := overlayID(w, r)
		if !ok {
			return
		}

		cfg.Controller.DeleteOverlay(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func duplicateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := overlayID(w, r)
		if !ok {
			return
		}

		newID := cfg.Controller.Duplicate(id)
		if newID == 0 {
			WriteError(w, http.StatusNotFound, "overlay not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusCreated, DuplicateResponse{ID: newID})
	}
}

func splitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := overlayID(w, r)
		if !ok {
			return
		}

		var req SplitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		// A cut outside the overlay is a no-op, not an error: the client
		// gets restId 0 and an unchanged snapshot.
		restID := cfg.Controller.Split(id, req.Frame)
		WriteJSON(w, http.StatusOK, SplitResponse{RestID: restID, Project: cfg.Controller.Snapshot()})
	}
}

func deleteRowHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := strconv.Atoi(chi.URLParam(r, "row"))
		if err != nil || row < 0 {
			WriteError(w, http.StatusBadRequest, "invalid row", "BAD_REQUEST")
			return
		}

		cfg.Controller.ClearRow(row)
		w.WriteHeader(http.StatusNoContent)
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cfg.Controller.Select(req.IDs)
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func aspectRatioHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AspectRatioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Controller.SetAspectRatio(timeline.AspectRatio(req.AspectRatio)); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaybackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cfg.Controller.SetPlayback(session.PlaybackState{
			Frame:   req.Frame,
			Playing: req.Playing,
			Rate:    req.Rate,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func backgroundHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BackgroundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Color == "" {
			WriteError(w, http.StatusBadRequest, "color is required", "BAD_REQUEST")
			return
		}

		cfg.Controller.SetBackgroundColor(req.Color)
		w.WriteHeader(http.StatusNoContent)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := cfg.Controller.Snapshot()

		title := r.URL.Query().Get("title")
		if title == "" {
			title = snap.ProjectID
		}

		edl := export.GenerateEDL(snap.Overlays, title, snap.FPS)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func startRenderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accepted := cfg.Controller.StartRender()
		if !accepted {
			WriteJSON(w, http.StatusConflict, RenderStartedResponse{Accepted: false})
			return
		}
		WriteJSON(w, http.StatusAccepted, RenderStartedResponse{Accepted: true})
	}
}

func renderStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Controller.RenderStatus())
	}
}

func resetRenderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.ResetRender()
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveNowHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Controller.Autosave(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, cfg.Controller.Snapshot())
	}
}

func listAutosavesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}

		records, err := cfg.Controller.Autosaves(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list autosaves", "INTERNAL_ERROR")
			return
		}

		resp := AutosavesResponse{Autosaves: make([]AutosaveSummary, len(records))}
		for i, rec := range records {
			resp.Autosaves[i] = AutosaveToSummary(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getAutosaveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "autosave id required", "BAD_REQUEST")
			return
		}

		rec, err := cfg.Controller.GetAutosave(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "autosave not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, rec)
	}
}

func restoreHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "autosave id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Controller.Restore(r.Context(), id); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "autosave not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func deleteAutosaveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "autosave id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Controller.DeleteAutosave(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clearAutosavesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Controller.ClearAutosaves(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func overlayID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid overlay id", "BAD_REQUEST")
		return 0, false
	}
	return id, true
}
