package points

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is one raw row handed over by the data layer, keyed by column name.
// Numeric values may arrive as any Go number type, json.Number or a numeric
// string.
type Record map[string]any

// Record keys understood by Ingest.
const (
	KeyLat       = "lat"
	KeyLon       = "lon"
	KeyDepth     = "depth"
	KeyTime      = "time"
	KeyDirection = "direction"
	KeySpeed     = "speed"
	KeyU         = "u"
	KeyV         = "v"
	KeyWindDir   = "ndirection"
	KeyWindSpeed = "nspeed"
	keyLatitude  = "latitude"
	keyLongitude = "longitude"
	keyTimestamp = "timestamp"
)

var (
	// ErrMalformedPoint is returned for records with missing or non-numeric
	// coordinates.
	ErrMalformedPoint = errors.New("malformed point")
	// ErrOutOfRange is returned for coordinates outside geographic bounds.
	ErrOutOfRange = errors.New("coordinate out of range")
)

// IngestStats counts what a batch ingestion kept and skipped.
type IngestStats struct {
	Accepted   int
	Malformed  int
	OutOfRange int
}

// Skipped returns the number of rejected records.
func (s IngestStats) Skipped() int { return s.Malformed + s.OutOfRange }

// Ingest converts a single record into a DataPoint, tagging its vector kind
// and resolving its vector. A record carrying wind keys is tagged as wind even
// when it also carries current keys.
func Ingest(rec Record) (DataPoint, error) {
	lat, ok := numberAt(rec, KeyLat, keyLatitude)
	if !ok {
		return DataPoint{}, fmt.Errorf("%w: missing or non-numeric lat", ErrMalformedPoint)
	}
	lon, ok := numberAt(rec, KeyLon, keyLongitude)
	if !ok {
		return DataPoint{}, fmt.Errorf("%w: missing or non-numeric lon", ErrMalformedPoint)
	}
	if !ValidCoordinate(lat, lon) {
		return DataPoint{}, fmt.Errorf("%w: lat=%g lon=%g", ErrOutOfRange, lat, lon)
	}

	p := DataPoint{Lat: lat, Lon: lon}
	if d, ok := numberAt(rec, KeyDepth); ok {
		p.Depth, p.HasDepth = d, true
	}
	if ts, ok := timeAt(rec, KeyTime, keyTimestamp); ok {
		p.Timestamp = ts
	}

	for _, name := range ScalarFields {
		if v, ok := numberAt(rec, name); ok {
			if p.Scalars == nil {
				p.Scalars = make(map[string]float64, len(ScalarFields))
			}
			p.Scalars[name] = v
		}
	}
	ssh, hasSSH := p.Scalar(FieldSSH)

	wind := rawAt(rec, KeyWindDir, KeyWindSpeed, "", "")
	current := rawAt(rec, KeyDirection, KeySpeed, KeyU, KeyV)
	switch {
	case !wind.IsEmpty():
		p.Kind = VectorWind
		p.Vector = ResolveVector(wind, lat, lon, ssh, hasSSH)
	case !current.IsEmpty():
		p.Kind = VectorCurrent
		p.Vector = ResolveVector(current, lat, lon, ssh, hasSSH)
	}
	return p, nil
}

// IngestAll converts a batch, skipping bad records rather than failing the
// batch. One bad row never aborts a frame.
func IngestAll(records []Record) ([]DataPoint, IngestStats) {
	var stats IngestStats
	out := make([]DataPoint, 0, len(records))
	for _, rec := range records {
		p, err := Ingest(rec)
		switch {
		case err == nil:
			out = append(out, p)
			stats.Accepted++
		case errors.Is(err, ErrOutOfRange):
			stats.OutOfRange++
		default:
			stats.Malformed++
		}
	}
	return out, stats
}

// RecordTime returns the record's observation time, if it has a parseable
// one.
func RecordTime(rec Record) (time.Time, bool) {
	return timeAt(rec, KeyTime, keyTimestamp)
}

func rawAt(rec Record, dirKey, speedKey, uKey, vKey string) RawVector {
	var r RawVector
	r.Direction, r.HasDirection = numberAt(rec, dirKey)
	r.Speed, r.HasSpeed = numberAt(rec, speedKey)
	if uKey != "" {
		r.U, r.HasU = numberAt(rec, uKey)
	}
	if vKey != "" {
		r.V, r.HasV = numberAt(rec, vKey)
	}
	return r
}

// numberAt returns the first key that holds a finite number.
func numberAt(rec Record, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok || raw == nil {
			continue
		}
		if v, ok := toFloat(raw); ok {
			return v, true
		}
	}
	return 0, false
}

func toFloat(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// timeAt accepts time.Time, RFC 3339 strings and unix seconds.
func timeAt(rec Record, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		switch t := rec[k].(type) {
		case time.Time:
			return t.UTC(), true
		case string:
			if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t)); err == nil {
				return parsed.UTC(), true
			}
			if secs, ok := toFloat(t); ok {
				return unixSeconds(secs), true
			}
		case nil:
			continue
		default:
			if secs, ok := toFloat(t); ok {
				return unixSeconds(secs), true
			}
		}
	}
	return time.Time{}, false
}

func unixSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
