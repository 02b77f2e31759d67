package temporal

import (
	"github.com/weipengdeng/flowmap/internal/models"
)

// BuildFrames emits one frame per hour 0-23 holding only the flows active that hour.
// Every frame flow is re-derived from its single hour value and re-weighted against
// that hour's own range. Hours without volume yield an empty frame.
func BuildFrames(flows []models.Flow) []models.HourlyFrame {
	frames := make([]models.HourlyFrame, models.HoursPerDay)
	for h := 0; h < models.HoursPerDay; h++ {
		active := []models.Flow{}
		for _, f := range flows {
			if f.Hourly[h] > 0 {
				active = append(active, FrameFlow(f, h))
			}
		}
		NormalizeWeights(active)
		SortFlows(active)
		frames[h] = models.HourlyFrame{Hour: h, Flows: active}
	}
	return frames
}

// FrameFlow returns f restricted to one hour
func FrameFlow(f models.Flow, hour int) models.Flow {
	v := f.Hourly[hour]
	out := models.Flow{O: f.O, D: f.D, Total: v}
	out.Hourly[hour] = v
	Derive(&out)
	return out
}
