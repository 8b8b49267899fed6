package domain

import (
	"time"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dataset is an uploaded point file and its parsed metadata.
// The raw upload stays on disk at StoragePath; points are re-parsed
// from it on demand rather than persisted row by row.
type Dataset struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Filename    string       `json:"filename"`
	FileType    string       `json:"file_type"` // "csv" | "geojson"
	StoragePath string       `json:"-"`
	NumPoints   int          `json:"n_points"`
	BBox        *BoundingBox `json:"bbox,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AnalysisRun is a persisted analysis invocation: the parameters used and
// the full result, both stored as JSON documents.
type AnalysisRun struct {
	ID         string    `json:"id"`
	DatasetID  string    `json:"dataset_id"`
	UserID     string    `json:"user_id"`
	ParamsJSON []byte    `json:"params_json"`
	ResultJSON []byte    `json:"result_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// Place is a user-saved point of interest.
type Place struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Location  GeoPoint  `json:"location"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Distance  *float64  `json:"distance,omitempty"` // computed field
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsightUsage records one billable AI action, for rolling-window limits.
type InsightUsage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"` // currently always "insight"
	CreatedAt time.Time `json:"created_at"`
}

// Insight is the narration produced for an analysis result.
type Insight struct {
	Text       string         `json:"text"`
	Highlights []string       `json:"highlights"`
	Meta       map[string]any `json:"meta"`
}

// InsightContext is optional caller-supplied framing for the narration.
type InsightContext struct {
	CityName     string         `json:"city_name,omitempty"`
	ViewportBBox *BoundingBox   `json:"viewport_bbox,omitempty"`
	Filters      map[string]any `json:"filters,omitempty"`
}
