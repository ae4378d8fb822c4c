package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"taq-bars/internal/domain"
	"taq-bars/internal/export"
	"taq-bars/internal/sampling"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleResample resamples the trades in the request body.
func (s *Server) handleResample(w http.ResponseWriter, r *http.Request) {
	var req ResampleRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("%w: body exceeds %d bytes", errTooManyTrades, tooLarge.Limit))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	resp, err := s.resample(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Store {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, resp)
}

// resample validates req, runs the policy and optionally stores the series.
func (s *Server) resample(ctx context.Context, req *ResampleRequest) (*BarsResponse, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if s.maxTrades > 0 && len(req.Trades) > s.maxTrades {
		return nil, fmt.Errorf("%w: %d trades, limit %d", errTooManyTrades, len(req.Trades), s.maxTrades)
	}
	if req.Store && s.barStore == nil {
		return nil, errStoreNotEnabled
	}

	kind := domain.PolicyKind(req.Policy)
	cfg, err := req.Params.apply(kind, s.defaults)
	if err != nil {
		return nil, err
	}

	res, err := sampling.Resample(sampling.InLocation(req.trades(), s.location), kind, cfg)
	if err != nil {
		return nil, err
	}
	series := res.Series(req.Symbol, s.clock().UnixMilli())

	if req.Store {
		if err := s.barStore.InsertSeries(ctx, series, res.Bars); err != nil {
			return nil, fmt.Errorf("store series %s: %w", series.SeriesID, err)
		}
		s.logger.InfoContext(ctx, "series stored", "symbol", series.Symbol, "policy", series.Policy, "series_id", series.SeriesID)
	}

	return &BarsResponse{
		Series: toSeriesResponse(series),
		Bars:   export.Rows(series, res.Bars),
	}, nil
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	if s.barStore == nil {
		s.writeError(w, r, errStoreNotEnabled)
		return
	}
	series, err := s.barStore.GetSeries(r.Context(), chi.URLParam(r, "seriesID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toSeriesResponse(series))
}

func (s *Server) handleGetBars(w http.ResponseWriter, r *http.Request) {
	if s.barStore == nil {
		s.writeError(w, r, errStoreNotEnabled)
		return
	}
	ctx := r.Context()
	seriesID := chi.URLParam(r, "seriesID")

	series, err := s.barStore.GetSeries(ctx, seriesID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bars, err := s.barStore.GetBars(ctx, seriesID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, BarsResponse{Series: toSeriesResponse(series), Bars: export.Rows(series, bars)})
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	if s.barStore == nil {
		s.writeError(w, r, errStoreNotEnabled)
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	list, err := s.barStore.ListSeriesBySymbol(r.Context(), symbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, seriesList(list))
}

// handleRunSymbol resamples a stored symbol under every configured policy.
func (s *Server) handleRunSymbol(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.writeError(w, r, errStoreNotEnabled)
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	list, err := s.engine.RunSymbol(r.Context(), symbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, seriesList(list))
}

func seriesList(list []*domain.BarSeries) []SeriesResponse {
	out := make([]SeriesResponse, len(list))
	for i, s := range list {
		out[i] = toSeriesResponse(s)
	}
	return out
}
