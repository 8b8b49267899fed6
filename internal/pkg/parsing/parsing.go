// Package parsing turns uploaded CSV and GeoJSON files into point sets.
// Rows with unparseable or out-of-range coordinates are skipped rather than
// failing the whole upload.
package parsing

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mgoiri/geolens/internal/core/domain"
)

var (
	// ErrNoHeader means the CSV body has no header row.
	ErrNoHeader = errors.New("csv has no header")
	// ErrNoCoordinateColumns means no recognizable lat/lon columns exist.
	ErrNoCoordinateColumns = errors.New("csv must contain latitude and longitude columns")
	// ErrInvalidGeoJSON covers unparseable or non-FeatureCollection payloads.
	ErrInvalidGeoJSON = errors.New("invalid geojson")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	latAliases = map[string]bool{"lat": true, "latitude": true, "y": true}
	lonAliases = map[string]bool{"lon": true, "lng": true, "long": true, "longitude": true, "x": true}
)

// ParseCSV reads points from a CSV stream. The first column whose normalized
// header matches a latitude alias becomes lat, likewise for lon; every other
// column lands in the point's attributes as a string.
func ParseCSV(r io.Reader) ([]domain.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrNoHeader
	}

	latIdx, lonIdx := -1, -1
	for i, name := range header {
		n := strings.ToLower(strings.TrimSpace(name))
		if latIdx < 0 && latAliases[n] {
			latIdx = i
		}
		if lonIdx < 0 && lonAliases[n] {
			lonIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 {
		return nil, ErrNoCoordinateColumns
	}

	var points []domain.Point
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if latIdx >= len(row) || lonIdx >= len(row) {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(row[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(row[lonIdx]), 64)
		if errLat != nil || errLon != nil || !validCoordinate(lat, lon) {
			continue
		}

		attrs := make(map[string]any)
		for i, field := range header {
			if i == latIdx || i == lonIdx || i >= len(row) {
				continue
			}
			attrs[field] = row[i]
		}
		points = append(points, domain.Point{Lat: lat, Lon: lon, Attributes: attrs})
	}
	return points, nil
}

type geojsonGeometry struct {
	Type        string            `json:"type"`
	Coordinates []json.RawMessage `json:"coordinates"`
}

type geojsonFeature struct {
	Geometry   *geojsonGeometry `json:"geometry"`
	Properties map[string]any   `json:"properties"`
}

type geojsonCollection struct {
	Type     string           `json:"type"`
	Features []geojsonFeature `json:"features"`
}

// ParseGeoJSON reads Point features from a FeatureCollection. Non-point
// geometries and malformed coordinates are skipped; feature properties become
// the point's attributes.
func ParseGeoJSON(r io.Reader) ([]domain.Point, error) {
	var fc geojsonCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, ErrInvalidGeoJSON
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: only FeatureCollection is supported", ErrInvalidGeoJSON)
	}

	var points []domain.Point
	for _, feat := range fc.Features {
		if feat.Geometry == nil || feat.Geometry.Type != "Point" || len(feat.Geometry.Coordinates) < 2 {
			continue
		}
		var lon, lat float64
		if json.Unmarshal(feat.Geometry.Coordinates[0], &lon) != nil {
			continue
		}
		if json.Unmarshal(feat.Geometry.Coordinates[1], &lat) != nil {
			continue
		}
		if !validCoordinate(lat, lon) {
			continue
		}
		attrs := feat.Properties
		if attrs == nil {
			attrs = map[string]any{}
		}
		points = append(points, domain.Point{Lat: lat, Lon: lon, Attributes: attrs})
	}
	return points, nil
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
