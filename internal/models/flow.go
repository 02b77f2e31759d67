package models

// Node is an origin location
type Node struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Destination is a destination location with its accumulated inbound volume
type Destination struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Inbound float64 `json:"inbound"`
	Height  float64 `json:"height"` // Visual column height
}

// FlowKey identifies a flow by origin and destination id
type FlowKey struct {
	O string
	D string
}

// Flow is the aggregated movement volume between one origin and one destination
type Flow struct {
	O     string     `json:"o"`
	D     string     `json:"d"`
	Total float64    `json:"total"`
	Bins  [4]float64 `json:"bins"` // Totals for hours [0,6) [6,12) [12,18) [18,24)
	Cuts  [3]float64 `json:"cuts"` // Cumulative band boundaries, non-decreasing, <= 0.99
	W     float64    `json:"w"`    // Visual weight 0~1

	// Hourly histogram, only populated during ingestion and in the SQLite mirror
	Hourly [HoursPerDay]float64 `json:"-"`
}

// Key returns the flow identity
func (f Flow) Key() FlowKey {
	return FlowKey{O: f.O, D: f.D}
}

// HourlyFrame holds the flows active in one hour of the day
type HourlyFrame struct {
	Hour  int    `json:"hour"`
	Flows []Flow `json:"flows"`
}

// HourlyFrames is the flows-hourly.json document
type HourlyFrames struct {
	Hours  []int         `json:"hours"`
	Frames []HourlyFrame `json:"frames"`
}

// Bounds is the projected extent of all nodes and destinations
type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// Meta is the meta.json document
type Meta struct {
	Source           string     `json:"source"`
	CreatedAt        string     `json:"createdAt"` // RFC3339 with sub-second precision
	RunID            string     `json:"runId"`
	Bounds           Bounds     `json:"bounds"`
	Center           [2]float64 `json:"center"` // [lon, lat]
	Scale            float64    `json:"scale"`
	ExtentKm         float64    `json:"extentKm"`
	NodeCount        int        `json:"nodeCount"`
	DestinationCount int        `json:"destinationCount"`
	FlowCount        int        `json:"flowCount"`
	RowsRead         int        `json:"rowsRead"`
	RowsAccepted     int        `json:"rowsAccepted"`
}
