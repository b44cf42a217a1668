package points

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Identity is a content fingerprint distinguishing one frame's dataset from
// another. Two frames with equal index but different datasets never share
// an Identity.
type Identity uint64

// Frame is an ordered set of points sharing one timestamp. Frames are
// replaced wholesale when the dataset changes and are never mutated.
type Frame struct {
	Index     int
	Dataset   string
	Timestamp time.Time
	Points    []DataPoint

	identity Identity
}

// NewFrame builds a frame and computes its identity once.
func NewFrame(index int, dataset string, ts time.Time, pts []DataPoint) *Frame {
	return &Frame{
		Index:     index,
		Dataset:   dataset,
		Timestamp: ts,
		Points:    pts,
		identity:  Fingerprint(dataset, ts, pts),
	}
}

// Identity returns the frame's data identity token.
func (f *Frame) Identity() Identity {
	if f == nil {
		return 0
	}
	return f.identity
}

// Len returns the number of points in the frame.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Points)
}

// Fingerprint hashes the dataset tag, point count, first and last
// coordinates and the timestamp.
func Fingerprint(dataset string, ts time.Time, pts []DataPoint) Identity {
	d := xxhash.New()
	_, _ = d.WriteString(dataset)

	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	put(uint64(len(pts)))
	if n := len(pts); n > 0 {
		put(math.Float64bits(pts[0].Lat))
		put(math.Float64bits(pts[0].Lon))
		put(math.Float64bits(pts[n-1].Lat))
		put(math.Float64bits(pts[n-1].Lon))
	}
	if !ts.IsZero() {
		put(uint64(ts.UnixNano()))
	}
	return Identity(d.Sum64())
}
