// Package predict validates price requests, encodes them and runs the
// loaded model.
package predict

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"homeprice/ml"
	"homeprice/monitoring"
)

const DefaultCacheSize = 1024

// ChangeDetector reports whether the loaded artifacts changed on disk.
type ChangeDetector interface {
	Changed() bool
}

// Inputs echoes the normalized request back to the client.
type Inputs struct {
	TotalSqft     float64 `json:"total_sqft"`
	BHK           int     `json:"bhk"`
	Bath          int     `json:"bath"`
	Location      string  `json:"location"`
	LocationKnown bool    `json:"location_known"`
}

// Estimate is a successful prediction. EstimatedPrice is the raw model output
// in rupees and may be negative for degenerate inputs.
type Estimate struct {
	EstimatedPrice float64 `json:"estimated_price"`
	FormattedPrice string  `json:"formatted_price"`
	Inputs         Inputs  `json:"inputs"`
}

// Health is the liveness snapshot served by the health endpoint.
type Health struct {
	Status                 string           `json:"status"`
	LocationsLoaded        int              `json:"locations_loaded"`
	ModelStatus            string           `json:"model_status"`
	ModelFeatures          int              `json:"model_features"`
	UptimeSeconds          float64          `json:"uptime_seconds"`
	ArtifactsChangedOnDisk bool             `json:"artifacts_changed_on_disk"`
	Requests               map[string]int64 `json:"requests"`
}

type cacheKey struct {
	totalSqft float64
	bhk       int
	bath      int
	slot      int
}

// Service answers health, location and prediction queries against artifacts
// loaded once at startup. It is safe for concurrent use.
type Service struct {
	encoder  *ml.FeatureEncoder
	model    ml.Regressor
	logger   *zap.Logger
	counters *monitoring.Counters
	detector ChangeDetector

	cacheSize int
	cache     *lru.Cache[cacheKey, float64]
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCounters(counters *monitoring.Counters) Option {
	return func(s *Service) { s.counters = counters }
}

// WithCacheSize sets the number of memoized estimates; 0 disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) { s.cacheSize = size }
}

func WithChangeDetector(detector ChangeDetector) Option {
	return func(s *Service) { s.detector = detector }
}

// NewService checks that model accepts the vectors encoder produces and
// returns a ready service.
func NewService(encoder *ml.FeatureEncoder, model ml.Regressor, opts ...Option) (*Service, error) {
	if err := ml.VerifyModel(encoder, model); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	s := &Service{
		encoder:   encoder,
		model:     model,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.counters == nil {
		s.counters = monitoring.NewCounters()
	}
	if s.cacheSize < 0 {
		return nil, fmt.Errorf("invalid cache size %d", s.cacheSize)
	}
	if s.cacheSize > 0 {
		cache, err := lru.New[cacheKey, float64](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create estimate cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

func (s *Service) Counters() *monitoring.Counters {
	return s.counters
}

func (s *Service) Health() Health {
	return Health{
		Status:                 "healthy",
		LocationsLoaded:        s.encoder.Catalog().Len(),
		ModelStatus:            "loaded",
		ModelFeatures:          s.model.NumFeatures(),
		UptimeSeconds:          s.counters.Uptime().Seconds(),
		ArtifactsChangedOnDisk: s.detector != nil && s.detector.Changed(),
		Requests:               s.counters.Snapshot(),
	}
}

// Locations returns the catalog in listing order as a fresh slice.
func (s *Service) Locations() []string {
	return s.encoder.Catalog().Names()
}

// Predict validates raw and returns the model's estimate.
//
// Errors are a *ValidationError for bad input, or wrap ErrEncodingContract or
// ErrModelUnavailable for server-side faults.
func (s *Service) Predict(raw map[string]interface{}) (*Estimate, error) {
	q, err := Validate(raw)
	if err != nil {
		s.counters.IncValidationFailures()
		return nil, err
	}
	return s.Estimate(q)
}

// Estimate runs a validated query through the encoder and model.
func (s *Service) Estimate(q Query) (*Estimate, error) {
	name, slot, known := s.encoder.Catalog().Lookup(q.Location)
	key := cacheKey{totalSqft: q.TotalSqft, bhk: q.BHK, bath: q.Bath, slot: slot}

	price, hit := s.cachedPrice(key)
	if hit {
		s.counters.IncCacheHits()
	} else {
		vector, err := s.encoder.Encode(q.TotalSqft, q.BHK, q.Bath, q.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodingContract, err)
		}
		price, err = s.model.Predict(vector)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: non-finite estimate %v", ErrModelUnavailable, price)
		}
		if s.cache != nil {
			s.cache.Add(key, price)
		}
	}
	s.counters.IncPredictions()

	location := q.Location
	if known {
		location = name
	} else {
		s.logger.Debug("unknown location encoded as baseline", zap.String("location", q.Location))
	}

	return &Estimate{
		EstimatedPrice: price,
		FormattedPrice: FormatPrice(price),
		Inputs: Inputs{
			TotalSqft:     q.TotalSqft,
			BHK:           q.BHK,
			Bath:          q.Bath,
			Location:      location,
			LocationKnown: known,
		},
	}, nil
}

func (s *Service) cachedPrice(key cacheKey) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}
	return s.cache.Get(key)
}

// IsClientError reports whether err was caused by the request rather than
// the server.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
