package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/profile"
	"github.com/sells-group/property-profile/internal/store"
	"github.com/sells-group/property-profile/pkg/geocode"
)

// parseQuery reads the profile query parameters. An absent radius takes the
// default; a present but malformed one is rejected.
func parseQuery(r *http.Request) (model.AddressQuery, error) {
	v := r.URL.Query()
	q := model.AddressQuery{
		Text:     v.Get("address"),
		Radius:   model.DefaultRadius,
		Language: v.Get("language"),
	}
	if raw := v.Get("radius"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, &profile.ValidationError{Field: "radius", Message: "radius must be an integer"}
		}
		q.Radius = n
	}
	if raw := v.Get("bypass_cache"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &profile.ValidationError{Field: "bypass_cache", Message: "bypass_cache must be a boolean"}
		}
		q.BypassCache = b
	}
	return q, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeBuildError(w, r, err)
		return
	}

	res, err := s.builder.Build(r.Context(), q)
	if err != nil {
		s.writeBuildError(w, r, err)
		return
	}

	if res.CacheHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, res.Profile)
}

func (s *Server) writeBuildError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, verr.Message)
	case errors.Is(err, geocode.ErrAddressNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, CodeAddressNotFound, "address could not be geocoded")
	case errors.Is(err, geocode.ErrGeocoderUnavailable):
		writeError(w, r, http.StatusBadGateway, CodeGeocoderUnavailable, "geocoding service unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		zap.L().Info("api: request ended before the profile was built",
			zap.String("address", r.URL.Query().Get("address")),
			zap.Error(err),
		)
		writeError(w, r, http.StatusGatewayTimeout, CodeTimeout, "request did not complete in time")
	default:
		zap.L().Error("api: build profile",
			zap.String("address", r.URL.Query().Get("address")),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "profile storage is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, CodeNotFound, "profile not found")
			return
		}
		zap.L().Error("api: get profile", zap.String("id", id), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "profile storage is disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, CodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.store.ListProfiles(r.Context(), limit)
	if err != nil {
		zap.L().Error("api: list profiles", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": list})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.cache != nil {
		body["cache"] = s.cache.Stats()
	}
	if s.breakers != nil {
		body["breakers"] = s.breakers.States()
	}
	writeJSON(w, http.StatusOK, body)
}
