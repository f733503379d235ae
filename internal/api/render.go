package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"financehistory/internal/keystat"
)

// Representation formats selectable with ?format=
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var formatMediaTypes = map[string]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv",
}

var errNotAcceptable = errors.New("not acceptable")

// negotiate picks the representation. An explicit format parameter wins over
// the Accept header.
func negotiate(r *http.Request) (string, error) {
	if format := r.URL.Query().Get("format"); format != "" {
		if _, ok := formatMediaTypes[format]; !ok {
			return FormatJSON, fmt.Errorf("%w: format %q", errNotAcceptable, format)
		}
		return format, nil
	}
	if strings.Contains(r.Header.Get("Accept"), formatMediaTypes[FormatCSV]) {
		return FormatCSV, nil
	}
	return FormatJSON, nil
}

// keyStatRecord is the wire form of a key stat
type keyStatRecord struct {
	InstrumentURL string  `json:"instrument_url"`
	Value         float64 `json:"value"`
	ValueDate     string  `json:"value_date"`
}

func toRecords(stats []keystat.KeyStat) []keyStatRecord {
	records := make([]keyStatRecord, len(stats))
	for i, s := range stats {
		records[i] = keyStatRecord{
			InstrumentURL: s.InstrumentURL,
			Value:         s.Value,
			ValueDate:     s.ValueDate.Format(keystat.DateLayout),
		}
	}
	return records
}

func respond(w http.ResponseWriter, format string, status int, stats []keystat.KeyStat) {
	if format == FormatCSV {
		w.Header().Set("Content-Type", formatMediaTypes[FormatCSV])
		w.WriteHeader(status)
		WriteCSV(w, stats)
		return
	}
	respondJSON(w, status, toRecords(stats))
}

// Write renders stats in the given format
func Write(w io.Writer, format string, stats []keystat.KeyStat) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, stats)
	case FormatJSON:
		return json.NewEncoder(w).Encode(toRecords(stats))
	default:
		return fmt.Errorf("%w: format %q", errNotAcceptable, format)
	}
}

// WriteCSV renders stats as CSV with an instrument_url,value,value_date header
func WriteCSV(w io.Writer, stats []keystat.KeyStat) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"instrument_url", "value", "value_date"})
	for _, s := range stats {
		cw.Write([]string{
			s.InstrumentURL,
			strconv.FormatFloat(s.Value, 'f', -1, 64),
			s.ValueDate.Format(keystat.DateLayout),
		})
	}
	cw.Flush()
	return cw.Error()
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", formatMediaTypes[FormatJSON])
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, format string, status int, message string) {
	if format == FormatCSV {
		w.Header().Set("Content-Type", formatMediaTypes[FormatCSV])
		w.WriteHeader(status)
		fmt.Fprintf(w, "Exception (%d): message: %s", status, message)
		return
	}
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}
