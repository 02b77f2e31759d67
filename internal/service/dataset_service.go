package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/weipengdeng/flowmap/internal/analysis/temporal"
	"github.com/weipengdeng/flowmap/internal/dataset"
	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/repository"
	"github.com/weipengdeng/flowmap/internal/spatial"
	"github.com/weipengdeng/flowmap/internal/stats"
)

var (
	// ErrNotLoaded is returned before any dataset has been installed
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrNotFound is returned for unknown ids
	ErrNotFound = errors.New("not found")
	// ErrInvalidHour is returned for frame hours outside 0-23
	ErrInvalidHour = errors.New("hour must be an integer in [0, 23]")
)

// Loaded is one installed dataset generation
type Loaded struct {
	Dataset      *dataset.Dataset
	Interpolator *temporal.Interpolator
	Generation   uint64
}

// FlowDetail is a flow with its endpoints resolved
type FlowDetail struct {
	models.Flow
	Origin         models.Node        `json:"origin"`
	Destination    models.Destination `json:"destination"`
	DistanceKm     float64            `json:"distanceKm"`
	BearingDeg     float64            `json:"bearingDeg"`
	PercentileRank float64            `json:"percentileRank"` // Among all flow totals
}

// DatasetService owns the currently served dataset
type DatasetService struct {
	dataDir string
	repo    *repository.DatasetRepository // Optional SQLite mirror

	mu      sync.RWMutex
	current *Loaded
	gen     uint64
}

// NewDatasetService creates a dataset service. repo may be nil.
func NewDatasetService(dataDir string, repo *repository.DatasetRepository) *DatasetService {
	return &DatasetService{dataDir: dataDir, repo: repo}
}

// Reload reads the dataset from the SQLite mirror and the artifact
// directory and installs the one with the later createdAt. The mirror
// wins ties.
func (s *DatasetService) Reload(ctx context.Context) (*Loaded, error) {
	var mirrored *dataset.Dataset
	if s.repo != nil {
		ds, err := s.repo.LoadDataset(ctx)
		if err != nil && !errors.Is(err, repository.ErrNoDataset) {
			return nil, fmt.Errorf("failed to load dataset from database: %w", err)
		}
		mirrored = ds
	}

	ds, err := dataset.Load(s.dataDir)
	if err != nil {
		if mirrored == nil {
			return nil, fmt.Errorf("failed to load dataset from %s: %w", s.dataDir, err)
		}
		log.Printf("[DatasetService] Artifacts unavailable, serving database mirror: %v", err)
		return s.Install(mirrored), nil
	}

	if mirrored != nil && !createdAfter(ds.Meta, mirrored.Meta) {
		return s.Install(mirrored), nil
	}
	if mirrored != nil {
		log.Printf("[DatasetService] Database mirror (run %s) is older than %s, serving artifacts", mirrored.Meta.RunID, s.dataDir)
	}
	return s.Install(ds), nil
}

// createdAfter reports whether a was built strictly later than b.
// Unparseable timestamps never count as later.
func createdAfter(a, b models.Meta) bool {
	ta, err := time.Parse(time.RFC3339Nano, a.CreatedAt)
	if err != nil {
		return false
	}
	tb, err := time.Parse(time.RFC3339Nano, b.CreatedAt)
	if err != nil {
		return true
	}
	return ta.After(tb)
}

// Install makes ds the served dataset and starts a new generation
func (s *DatasetService) Install(ds *dataset.Dataset) *Loaded {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.current = &Loaded{
		Dataset:      ds,
		Interpolator: temporal.NewInterpolator(ds.Frames),
		Generation:   s.gen,
	}
	log.Printf("[DatasetService] Installed generation %d (run %s, %d flows)", s.gen, ds.Meta.RunID, len(ds.Flows))
	return s.current
}

// Current returns the served dataset
func (s *DatasetService) Current() (*Loaded, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotLoaded
	}
	return s.current, nil
}

// Meta returns meta.json
func (s *DatasetService) Meta() (models.Meta, error) {
	l, err := s.Current()
	if err != nil {
		return models.Meta{}, err
	}
	return l.Dataset.Meta, nil
}

// Nodes returns all origin nodes
func (s *DatasetService) Nodes() ([]models.Node, error) {
	l, err := s.Current()
	if err != nil {
		return nil, err
	}
	return l.Dataset.Nodes, nil
}

// Destinations returns all destinations
func (s *DatasetService) Destinations() ([]models.Destination, error) {
	l, err := s.Current()
	if err != nil {
		return nil, err
	}
	return l.Dataset.Destinations, nil
}

// ListFlows returns flows matching filter, in descending total order
func (s *DatasetService) ListFlows(filter models.FlowFilter) ([]models.Flow, error) {
	l, err := s.Current()
	if err != nil {
		return nil, err
	}

	flows := make([]models.Flow, 0)
	for _, f := range l.Dataset.Flows {
		if filter.Origin != "" && f.O != filter.Origin {
			continue
		}
		if filter.Dest != "" && f.D != filter.Dest {
			continue
		}
		if f.Total < filter.MinTotal {
			continue
		}
		flows = append(flows, f)
		if filter.Limit > 0 && len(flows) == filter.Limit {
			break
		}
	}
	return flows, nil
}

// GetFlow returns one flow with its endpoints and great-circle length
func (s *DatasetService) GetFlow(o, d string) (*FlowDetail, error) {
	l, err := s.Current()
	if err != nil {
		return nil, err
	}
	ds := l.Dataset

	f, ok := ds.Flow(o, d)
	if !ok {
		return nil, fmt.Errorf("flow %s->%s: %w", o, d, ErrNotFound)
	}
	origin, ok := ds.Node(o)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", o, ErrNotFound)
	}
	dest, ok := ds.Destination(d)
	if !ok {
		return nil, fmt.Errorf("destination %s: %w", d, ErrNotFound)
	}

	proj := ds.Projection()
	oLon, oLat := proj.Unproject(origin.X, origin.Y)
	dLon, dLat := proj.Unproject(dest.X, dest.Y)
	meters := spatial.HaversineDistance(oLat, oLon, dLat, dLon)

	totals := make([]float64, len(ds.Flows))
	for i, other := range ds.Flows {
		totals[i] = other.Total
	}

	return &FlowDetail{
		Flow:           f,
		Origin:         origin,
		Destination:    dest,
		DistanceKm:     stats.Round(meters/1000, 3),
		BearingDeg:     stats.Round(spatial.Bearing(origin.X, origin.Y, dest.X, dest.Y), 2),
		PercentileRank: stats.Round(stats.PercentileRank(totals, f.Total), 2),
	}, nil
}

// topDestinationCount bounds the busiest destination list of Summary
const topDestinationCount = 5

// Summary describes the flow distribution of the served dataset
func (s *DatasetService) Summary() (*models.Summary, error) {
	l, err := s.Current()
	if err != nil {
		return nil, err
	}
	ds := l.Dataset

	sum := &models.Summary{TopDestinations: []models.DestinationRank{}}
	totals := make([]float64, 0, len(ds.Flows))
	bearings := make([]float64, 0, len(ds.Flows))
	weights := make([]float64, 0, len(ds.Flows))
	for _, f := range ds.Flows {
		totals = append(totals, f.Total)
		for h, v := range f.Hourly {
			sum.HourlyTotals[h] += v
		}
		o, ok1 := ds.Node(f.O)
		d, ok2 := ds.Destination(f.D)
		if ok1 && ok2 && (o.X != d.X || o.Y != d.Y) {
			bearings = append(bearings, spatial.Bearing(o.X, o.Y, d.X, d.Y))
			weights = append(weights, f.Total)
		}
	}

	sum.TotalTrips = stats.Sum(totals)
	sum.FlowTotals = stats.FiveNumberSummary(totals)
	sum.HourlySpread = stats.Round(stats.NormalizedEntropy(sum.HourlyTotals[:]), 4)
	for h, v := range sum.HourlyTotals {
		if v > sum.HourlyTotals[sum.PeakHour] {
			sum.PeakHour = h
		}
	}
	sum.MeanBearing = stats.Round(spatial.CircularMeanDegrees(bearings, weights), 2)
	sum.BearingStrength = stats.Round(spatial.MeanResultantLength(bearings, weights), 4)

	ranked := make([]models.Destination, len(ds.Destinations))
	copy(ranked, ds.Destinations)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Inbound > ranked[j].Inbound })
	for i := 0; i < len(ranked) && i < topDestinationCount; i++ {
		share := 0.0
		if sum.TotalTrips > 0 {
			share = stats.Round(ranked[i].Inbound/sum.TotalTrips, 4)
		}
		sum.TopDestinations = append(sum.TopDestinations, models.DestinationRank{
			ID:      ranked[i].ID,
			Inbound: ranked[i].Inbound,
			Share:   share,
		})
	}
	return sum, nil
}

// Frame returns the precomputed frame of an integer hour
func (s *DatasetService) Frame(hour int) (models.HourlyFrame, error) {
	l, err := s.Current()
	if err != nil {
		return models.HourlyFrame{}, err
	}
	if hour < 0 || hour >= len(l.Dataset.Frames) {
		return models.HourlyFrame{}, ErrInvalidHour
	}
	return l.Dataset.Frames[hour], nil
}
