package domain

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultBrightnessK is used when a feed carries no brightness column at all.
const DefaultBrightnessK = 300.0

// FIRMS column names.
const (
	colLatitude   = "latitude"
	colLongitude  = "longitude"
	colBrightness = "brightness"
	colBrightTI4  = "bright_ti4"
	colAcqDate    = "acq_date"
	colAcqTime    = "acq_time"
	colConfidence = "confidence"
	colSatellite  = "satellite"
)

var (
	errMissingColumn = errors.New("column not present in header")
	errNonFinite     = errors.New("value is not a finite number")
)

// satelliteNames translates FIRMS satellite codes to display names.
var satelliteNames = map[string]string{
	"T": "Terra",
	"A": "Aqua",
	"N": "VIIRS",
}

// NormalizeStats counts what happened to each data row of a feed.
type NormalizeStats struct {
	Rows               int
	Accepted           int
	ShortRows          int
	Malformed          int
	OutOfRegion        int
	TimestampFallbacks int
}

// Normalized is the outcome of normalizing one feed.
type Normalized struct {
	Hotspots []Hotspot
	Stats    NormalizeStats
}

// NormalizeFeed parses a FIRMS CSV body into hotspots inside the region's
// bounding box. Malformed rows are dropped and counted; an empty body yields
// an empty result.
func NormalizeFeed(raw []byte, region Region, src Source, logger *slog.Logger) Normalized {
	out := Normalized{Hotspots: []Hotspot{}}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logger.Warn("unreadable feed header", "source", src.Name, "error", err)
		}
		return out
	}
	cols := indexHeader(header)
	brightCol := colBrightness
	if _, ok := cols[colBrightness]; !ok {
		brightCol = colBrightTI4
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				out.Stats.Rows++
				out.Stats.Malformed++
				logger.Debug("dropping malformed row", "source", src.Name, "error", err)
				continue
			}
			logger.Warn("feed read aborted", "source", src.Name, "error", err)
			break
		}
		out.Stats.Rows++
		line, _ := r.FieldPos(0)

		if len(rec) < len(header) {
			out.Stats.ShortRows++
			continue
		}

		row := fieldReader{cols: cols, rec: rec, line: line}
		h, fellBack, err := row.hotspot(region.Bounds, src, brightCol)
		if err != nil {
			out.Stats.Malformed++
			logger.Debug("dropping row", "source", src.Name, "error", err)
			continue
		}
		if h == nil {
			out.Stats.OutOfRegion++
			continue
		}
		if fellBack {
			out.Stats.TimestampFallbacks++
		}
		out.Hotspots = append(out.Hotspots, *h)
	}

	out.Stats.Accepted = len(out.Hotspots)
	return out
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

type fieldReader struct {
	cols map[string]int
	rec  []string
	line int
}

func (f fieldReader) get(name string) (string, bool) {
	i, ok := f.cols[name]
	if !ok || i >= len(f.rec) {
		return "", false
	}
	return strings.TrimSpace(f.rec[i]), true
}

func (f fieldReader) float(name string) (float64, error) {
	v, ok := f.get(name)
	if !ok {
		return 0, &RowParseError{Line: f.line, Field: name, Err: errMissingColumn}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &RowParseError{Line: f.line, Field: name, Value: v, Err: err}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, &RowParseError{Line: f.line, Field: name, Value: v, Err: errNonFinite}
	}
	return n, nil
}

// hotspot converts the row. It returns a nil hotspot and nil error when the
// row lies outside bounds. The bool reports a timestamp fallback.
func (f fieldReader) hotspot(bounds BoundingBox, src Source, brightCol string) (*Hotspot, bool, error) {
	lat, err := f.float(colLatitude)
	if err != nil {
		return nil, false, err
	}
	lon, err := f.float(colLongitude)
	if err != nil {
		return nil, false, err
	}
	if !bounds.Contains(lat, lon) {
		return nil, false, nil
	}

	brightness := DefaultBrightnessK
	if _, ok := f.cols[brightCol]; ok {
		if brightness, err = f.float(brightCol); err != nil {
			return nil, false, err
		}
	}

	date, _ := f.get(colAcqDate)
	hhmm, ok := f.get(colAcqTime)
	if !ok {
		hhmm = "0000"
	}
	acquired, err := ParseAcquisition(date, hhmm)
	fellBack := err != nil
	if fellBack {
		acquired = Now()
	}

	conf, _ := f.get(colConfidence)
	sat, _ := f.get(colSatellite)

	return &Hotspot{
		Lat:        lat,
		Lon:        lon,
		Brightness: brightness,
		AcquiredAt: acquired,
		Confidence: ClassifyConfidence(conf),
		Satellite:  SatelliteName(sat, src.SatellitePrefix),
		Source:     src.Name,
	}, fellBack, nil
}

// ParseAcquisition combines a FIRMS acq_date (YYYY-MM-DD) and acq_time (HHMM,
// possibly without leading zeros) into a UTC timestamp.
func ParseAcquisition(date, hhmm string) (time.Time, error) {
	date = strings.TrimSpace(date)
	hhmm = strings.TrimSpace(hhmm)
	if date == "" || hhmm == "" {
		return time.Time{}, errors.New("missing acquisition date or time")
	}
	if len(hhmm) < 4 {
		hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm
	}
	t, err := time.ParseInLocation("2006-01-02 1504", date+" "+hhmm, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse acquisition time: %w", err)
	}
	return t, nil
}

// ClassifyConfidence buckets a raw FIRMS confidence value. Anything that is
// not a finite number, including the VIIRS letters, is nominal.
func ClassifyConfidence(raw string) Confidence {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return ConfidenceNominal
	}
	switch {
	case v >= 80:
		return ConfidenceHigh
	case v >= 50:
		return ConfidenceNominal
	default:
		return ConfidenceLow
	}
}

// SatelliteName maps a FIRMS satellite code to its display name. Unmapped
// codes become "<prefix>-<code>".
func SatelliteName(code, prefix string) string {
	code = strings.TrimSpace(code)
	if name, ok := satelliteNames[code]; ok {
		return name
	}
	if code == "" {
		code = "Unknown"
	}
	if prefix == "" {
		return code
	}
	return prefix + "-" + code
}
