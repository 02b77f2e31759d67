package models

// PlaybackFilter represents query parameters for a playback frame
type PlaybackFilter struct {
	Hour        float64 `form:"hour"`        // Continuous hour-of-day position, wrapped mod 24
	GridSpacing float64 `form:"gridSpacing"` // Retention grid spacing in projected units
	Session     string  `form:"session"`     // Owner of the smoothing state
	Geometry    string  `form:"geometry"`    // ribbon, particles, none
	Limit       int     `form:"limit"`       // Max flows to return
}

// Geometry modes
const (
	GeometryNone      = "none"
	GeometryRibbon    = "ribbon"
	GeometryParticles = "particles"
)

// FlowFilter represents query parameters for listing flows
type FlowFilter struct {
	Limit    int     `form:"limit"`
	MinTotal float64 `form:"minTotal"`
	Origin   string  `form:"o"`
	Dest     string  `form:"d"`
}
