package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
)

// Querier runs key stats queries
type Querier interface {
	Query(ctx context.Context, interval keystat.Interval, instrumentURLs []string) ([]keystat.KeyStat, error)
}

// InstrumentHandler serves the instruments endpoint
type InstrumentHandler struct {
	querier Querier
	log     zerolog.Logger
}

// NewInstrumentHandler creates a new instrument handler
func NewInstrumentHandler(q Querier, log zerolog.Logger) *InstrumentHandler {
	return &InstrumentHandler{querier: q, log: log}
}

// GetInstruments returns key stats of the given instruments
// GET /instruments/?date_interval=2015-03-01/2015-03-15&url=...&url=...&format=csv
func (h *InstrumentHandler) GetInstruments(w http.ResponseWriter, r *http.Request) {
	format, err := negotiate(r)
	if err != nil {
		respondError(w, format, http.StatusNotAcceptable, err.Error())
		return
	}

	query := r.URL.Query()

	intervalText := query.Get("date_interval")
	if intervalText == "" {
		respondError(w, format, http.StatusBadRequest, "date_interval is required")
		return
	}
	interval, err := keystat.ParseInterval(intervalText)
	if err != nil {
		respondError(w, format, http.StatusBadRequest, err.Error())
		return
	}

	urls := query["url"]
	for _, u := range urls {
		if err := validateURL(u); err != nil {
			respondError(w, format, http.StatusBadRequest, err.Error())
			return
		}
	}
	if len(urls) == 0 {
		respondError(w, format, http.StatusNotFound, "No instruments given as input")
		return
	}

	stats, err := h.querier.Query(r.Context(), interval, urls)
	if err != nil {
		status := statusFor(err)
		h.log.Error().
			Err(err).
			Str("interval", interval.String()).
			Strs("urls", urls).
			Int("status", status).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Msg("query failed")
		respondError(w, format, status, http.StatusText(status)+": "+err.Error())
		return
	}
	if len(stats) == 0 {
		respondError(w, format, http.StatusNotFound, "Could not find instrument(s)")
		return
	}

	respond(w, format, http.StatusOK, stats)
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url: %q is not a valid URL", raw)
	}
	return nil
}

func statusFor(err error) int {
	var fe *fetcher.FetchError
	switch {
	case errors.Is(err, keystat.ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		if fe.Type == fetcher.ErrorTypeTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
