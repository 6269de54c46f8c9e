package storage

import "time"

// Meta describes a stored index.
type Meta struct {
	// Name is the lookup key; one index per name.
	Name string `json:"name"`

	// Kind is "cosine" or "content".
	Kind string `json:"kind"`

	// Dim is the number of items (rows) in the index.
	Dim int `json:"dim"`

	// BuildID uniquely identifies the build that produced the index.
	BuildID string `json:"build_id"`

	// Threshold is the popularity threshold used for cosine builds, or the
	// item cap used for content builds.
	Threshold int `json:"threshold"`

	// CreatedAt is when the index was saved.
	CreatedAt time.Time `json:"created_at"`
}
