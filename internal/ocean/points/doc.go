// Package points owns the raw observation model of the visualization engine.
//
// Responsibilities: record ingestion and validation, vector tagging
// (current vs wind), the vector derivation fallback policy, and frame
// identity fingerprints.
// Key types: DataPoint, Vector, Frame, Record.
//
// Dependency rule: points depends on nothing else under internal/ocean.
// Every other ocean package consumes its types.
package points
