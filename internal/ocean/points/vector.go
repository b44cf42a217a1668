package points

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Bounds for the sea-surface-height derived speed.
const (
	minSyntheticSpeed = 0.05
	maxSyntheticSpeed = 2.0
	sshJitterSpan     = 0.1
)

// Vector is a resolved flow vector. Direction is in degrees clockwise from
// north; U is the eastward and V the northward component.
type Vector struct {
	Direction float64
	Speed     float64
	U         float64
	V         float64

	HasDirection bool
	HasSpeed     bool
	HasUV        bool
}

// Usable reports whether the vector has both a direction and a magnitude.
func (v Vector) Usable() bool {
	return v.HasDirection && v.HasSpeed
}

// RawVector is the partially populated vector read from a record, before the
// fallback policy runs.
type RawVector struct {
	Direction, Speed, U, V float64
	HasDirection, HasSpeed bool
	HasU, HasV             bool
}

// IsEmpty reports whether the record carried no vector keys at all.
func (r RawVector) IsEmpty() bool {
	return !r.HasDirection && !r.HasSpeed && !r.HasU && !r.HasV
}

// ResolveVector applies the derivation fallback policy:
//
//  1. speed absent or zero, u and v present: speed = hypot(u, v)
//  2. speed still absent or zero, ssh present: speed synthesised from |ssh|
//     plus a coordinate-keyed jitter
//  3. direction absent, u and v present: direction from (u, v)
//  4. u, v absent, direction and speed present: u, v from the polar form
func ResolveVector(raw RawVector, lat, lon float64, ssh float64, hasSSH bool) Vector {
	out := Vector{
		Direction:    raw.Direction,
		Speed:        raw.Speed,
		HasDirection: raw.HasDirection,
		HasSpeed:     raw.HasSpeed,
	}
	hasUV := raw.HasU && raw.HasV
	if hasUV {
		out.U, out.V, out.HasUV = raw.U, raw.V, true
	}

	if (!out.HasSpeed || out.Speed == 0) && hasUV {
		out.Speed = math.Hypot(raw.U, raw.V)
		out.HasSpeed = true
	}
	if (!out.HasSpeed || out.Speed == 0) && hasSSH {
		out.Speed = SyntheticSpeed(ssh, lat, lon)
		out.HasSpeed = true
	}
	if !out.HasDirection && hasUV {
		out.Direction = DirectionFromUV(raw.U, raw.V)
		out.HasDirection = true
	}
	if !out.HasUV && out.Usable() {
		out.U, out.V = UVFromPolar(out.Direction, out.Speed)
		out.HasUV = true
	}
	return out
}

// DirectionFromUV returns the bearing of (u, v) in degrees clockwise from
// north, normalised to [0, 360). It is the inverse of UVFromPolar.
func DirectionFromUV(u, v float64) float64 {
	d := math.Atan2(u, v) * radToDeg
	if d < 0 {
		d += 360
	}
	return d
}

// UVFromPolar converts a bearing and magnitude to eastward/northward
// components: u = speed·sin(dir), v = speed·cos(dir).
func UVFromPolar(directionDeg, speed float64) (u, v float64) {
	rad := directionDeg * degToRad
	return speed * math.Sin(rad), speed * math.Cos(rad)
}

// SyntheticSpeed derives a flow magnitude from sea-surface height:
// 0.1 + clamp(|ssh|, 0, 2)·0.7 plus SSHJitter, clamped to [0.05, 2.0].
func SyntheticSpeed(ssh, lat, lon float64) float64 {
	base := 0.1 + clamp(math.Abs(ssh), 0, 2)*0.7
	return clamp(base+SSHJitter(lat, lon), minSyntheticSpeed, maxSyntheticSpeed)
}

// SSHJitter is a reproducible offset in [-0.1, 0.1] hashed from the
// coordinate bits. The same point jitters identically on every render.
func SSHJitter(lat, lon float64) float64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(lat))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(lon))
	h := xxhash.Sum64(buf[:])
	unit := float64(h%2001)/1000.0 - 1.0 // [-1, 1]
	return unit * sshJitterSpan
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
