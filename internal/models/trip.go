package models

// TripRecord is one accepted row of the OD input file
type TripRecord struct {
	OriginLon float64 `json:"origin_lon"`
	OriginLat float64 `json:"origin_lat"`
	DestLon   float64 `json:"dest_lon"`
	DestLat   float64 `json:"dest_lat"`
	Quantity  float64 `json:"quantity"` // Trip count, finite and > 0
	Hour      int     `json:"hour"`     // Hour of day 0-23
}

// HoursPerDay is the number of hourly buckets in a flow histogram
const HoursPerDay = 24

// IngestStats summarizes one ingestion pass
type IngestStats struct {
	RowsRead     int `json:"rows_read"`
	RowsAccepted int `json:"rows_accepted"`
	RowsSkipped  int `json:"rows_skipped"`
}
