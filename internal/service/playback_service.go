package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/weipengdeng/flowmap/internal/analysis/retention"
	"github.com/weipengdeng/flowmap/internal/analysis/temporal"
	"github.com/weipengdeng/flowmap/internal/geometry"
	"github.com/weipengdeng/flowmap/internal/models"
)

// DefaultSession owns the smoothing state of requests without a session id
const DefaultSession = "default"

const (
	// SessionIdleTTL drops sessions not seen for this long
	SessionIdleTTL = 10 * time.Minute
	// MaxSessions caps live sessions; the least recently seen is evicted
	MaxSessions = 1024
)

// seedsPerFlow is the seed index stride between consecutive flows
const seedsPerFlow = geometry.MaxParticlesPerFlow * 3

// ErrInvalidGeometry is returned for an unknown geometry mode
var ErrInvalidGeometry = errors.New("geometry must be one of none, ribbon, particles")

// FlowRibbon is the ribbon mesh of one flow
type FlowRibbon struct {
	O      string          `json:"o"`
	D      string          `json:"d"`
	W      float64         `json:"w"`
	Width  float32         `json:"width"`
	Ribbon geometry.Ribbon `json:"ribbon"`
}

// FlowParticles is the particle set of one flow
type FlowParticles struct {
	O string  `json:"o"`
	D string  `json:"d"`
	W float64 `json:"w"`
	geometry.ParticleSet
}

// PlaybackFrame is everything a renderer needs for one hour position
type PlaybackFrame struct {
	Hour        float64                  `json:"hour"`
	LowerHour   int                      `json:"lowerHour"`
	UpperHour   int                      `json:"upperHour"`
	Blend       float64                  `json:"blend"`
	Generation  uint64                   `json:"generation"`
	Session     string                   `json:"session"`
	GridSpacing float64                  `json:"gridSpacing"`
	Flows       []models.Flow            `json:"flows"`
	Retention   models.RetentionSnapshot `json:"retention"`
	Ribbons     []FlowRibbon             `json:"ribbons,omitempty"`
	Particles   []FlowParticles          `json:"particles,omitempty"`
}

type session struct {
	mu         sync.Mutex
	state      *retention.State
	generation uint64
	lastSeen   time.Time // Guarded by PlaybackService.mu
}

// PlaybackService interpolates frames and keeps per-session retention smoothing
type PlaybackService struct {
	datasets       *DatasetService
	defaultSpacing float64

	mu          sync.Mutex
	sessions    map[string]*session
	idle        time.Duration
	maxSessions int
	lastSweep   time.Time
	now         func() time.Time
}

// NewPlaybackService creates a playback service
func NewPlaybackService(datasets *DatasetService, defaultSpacing float64) *PlaybackService {
	return &PlaybackService{
		datasets:       datasets,
		defaultSpacing: defaultSpacing,
		sessions:       make(map[string]*session),
		idle:           SessionIdleTTL,
		maxSessions:    MaxSessions,
		now:            time.Now,
	}
}

// session returns the state holder for id, creating it if needed. Idle
// sessions are swept before a new one is added.
func (s *PlaybackService) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		if now.Sub(s.lastSweep) >= s.idle/4 || len(s.sessions) >= s.maxSessions {
			s.sweepIdle(now)
		}
		if len(s.sessions) >= s.maxSessions {
			s.evictOldest()
		}
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	return sess
}

// sweepIdle removes sessions unused for longer than the idle TTL.
// Callers hold s.mu.
func (s *PlaybackService) sweepIdle(now time.Time) {
	s.lastSweep = now
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idle {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Printf("[PlaybackService] Dropped %d idle sessions", n)
	}
}

// evictOldest removes the least recently seen session. Callers hold s.mu.
func (s *PlaybackService) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, sess := range s.sessions {
		if !found || sess.lastSeen.Before(oldest) {
			oldestID, oldest, found = id, sess.lastSeen, true
		}
	}
	if found {
		delete(s.sessions, oldestID)
	}
}

// ResetSession drops the smoothing state of one session
func (s *PlaybackService) ResetSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// ResetAll drops every session's smoothing state
func (s *PlaybackService) ResetAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions)
	s.sessions = make(map[string]*session)
	log.Printf("[PlaybackService] Reset %d sessions", n)
	return n
}

// SessionCount returns the number of live sessions
func (s *PlaybackService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Frame interpolates the flow set at filter.Hour, advances the session's
// retention smoothing by one step and optionally builds flow geometry.
func (s *PlaybackService) Frame(filter models.PlaybackFilter) (*PlaybackFrame, error) {
	geom := filter.Geometry
	if geom == "" {
		geom = models.GeometryNone
	}
	if geom != models.GeometryNone && geom != models.GeometryRibbon && geom != models.GeometryParticles {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGeometry, filter.Geometry)
	}
	spacing := filter.GridSpacing
	if !(spacing > 0) {
		spacing = s.defaultSpacing
	}
	sessionID := filter.Session
	if sessionID == "" {
		sessionID = DefaultSession
	}

	l, err := s.datasets.Current()
	if err != nil {
		return nil, err
	}

	flows := l.Interpolator.At(filter.Hour)
	lower, upper, blend := temporal.Position(filter.Hour)

	sess := s.session(sessionID)
	sess.mu.Lock()
	if sess.state == nil || sess.generation != l.Generation {
		sess.state = retention.NewState(spacing)
		sess.generation = l.Generation
	}
	snapshot := retention.Aggregate(sess.state, flows, l.Dataset, spacing)
	sess.mu.Unlock()

	shown := flows
	if filter.Limit > 0 && len(shown) > filter.Limit {
		shown = shown[:filter.Limit]
	}

	frame := &PlaybackFrame{
		Hour:        temporal.WrapHour(filter.Hour),
		LowerHour:   lower,
		UpperHour:   upper,
		Blend:       blend,
		Generation:  l.Generation,
		Session:     sessionID,
		GridSpacing: spacing,
		Flows:       shown,
		Retention:   snapshot,
	}

	switch geom {
	case models.GeometryRibbon:
		frame.Ribbons = buildRibbons(l, shown)
	case models.GeometryParticles:
		frame.Particles = buildParticles(l, shown)
	}
	return frame, nil
}

func arcOf(l *Loaded, f models.Flow) (geometry.Curve, bool) {
	o, ok := l.Dataset.Node(f.O)
	if !ok {
		return geometry.Curve{}, false
	}
	d, ok := l.Dataset.Destination(f.D)
	if !ok {
		return geometry.Curve{}, false
	}
	return geometry.NewArc(float32(o.X), float32(o.Y), float32(d.X), float32(d.Y), float32(d.Height)), true
}

func buildRibbons(l *Loaded, flows []models.Flow) []FlowRibbon {
	ribbons := make([]FlowRibbon, 0, len(flows))
	for _, f := range flows {
		c, ok := arcOf(l, f)
		if !ok {
			continue
		}
		width := geometry.RibbonWidth(f.W)
		ribbons = append(ribbons, FlowRibbon{
			O:      f.O,
			D:      f.D,
			W:      f.W,
			Width:  width,
			Ribbon: geometry.BuildRibbon(c, width, geometry.RibbonSegments),
		})
	}
	return ribbons
}

func buildParticles(l *Loaded, flows []models.Flow) []FlowParticles {
	sets := make([]FlowParticles, 0, len(flows))
	for i, f := range flows {
		c, ok := arcOf(l, f)
		if !ok {
			continue
		}
		sets = append(sets, FlowParticles{
			O:           f.O,
			D:           f.D,
			W:           f.W,
			ParticleSet: geometry.BuildParticles(c, f.W, i*seedsPerFlow),
		})
	}
	return sets
}
