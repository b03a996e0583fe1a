package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GTDGit/shelf_api/internal/cache"
	"github.com/GTDGit/shelf_api/internal/metrics"
	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// ProductReader reads the local product dictionary.
type ProductReader interface {
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

// ResolutionMemo stores per-session resolver state.
type ResolutionMemo interface {
	Last(ctx context.Context, sessionID string) (*cache.Resolution, error)
	StoreLast(ctx context.Context, sessionID string, res *cache.Resolution) error
	MarkActive(ctx context.Context, sessionID, barcode string) error
	Active(ctx context.Context, sessionID string) (string, error)
	Forget(ctx context.Context, sessionID string) error
}

// Resolution is the resolver's answer for one barcode.
type Resolution struct {
	cache.Resolution
	// Memoized is set when the answer came from the session's previous resolution.
	Memoized bool `json:"memoized"`
	// Stale is set when the session scanned another barcode while this one was resolving.
	Stale bool `json:"stale"`
}

// ResolverService turns a barcode into the best-known product descriptor:
// the local dictionary first, then every remote source concurrently.
type ResolverService struct {
	products ProductReader
	sources  []ProductLookup
	memo     ResolutionMemo
	metrics  *metrics.Metrics
	timeout  time.Duration
	group    singleflight.Group
}

// NewResolverService creates a resolver. memo and m may be nil.
func NewResolverService(products ProductReader, sources []ProductLookup, memo ResolutionMemo, m *metrics.Metrics, timeout time.Duration) *ResolverService {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &ResolverService{
		products: products,
		sources:  sources,
		memo:     memo,
		metrics:  m,
		timeout:  timeout,
	}
}

// Resolve never fails: every tier failure is logged and treated as a miss.
// sessionID may be empty for one-off lookups, which skips memoization.
func (s *ResolverService) Resolve(ctx context.Context, sessionID, barcode string) *Resolution {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return &Resolution{Resolution: cache.Resolution{Source: models.LookupNotFound, ResolvedAt: time.Now()}}
	}

	if sessionID != "" && s.memo != nil {
		if err := s.memo.MarkActive(ctx, sessionID, barcode); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to mark active barcode")
		}
		last, err := s.memo.Last(ctx, sessionID)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to read resolution memo")
		}
		if last != nil && last.Barcode == barcode {
			s.metrics.ObserveResolution("memo")
			return &Resolution{Resolution: *last, Memoized: true}
		}
	}

	// Joined callers share one chain, which must outlive any single caller's request.
	ch := s.group.DoChan(barcode, func() (interface{}, error) {
		chainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.resolveChain(chainCtx, barcode), nil
	})

	var res cache.Resolution
	select {
	case r := <-ch:
		res = *(r.Val.(*cache.Resolution))
	case <-ctx.Done():
		s.metrics.ObserveResolution("cancelled")
		return &Resolution{Resolution: cache.Resolution{Barcode: barcode, Source: models.LookupNotFound, ResolvedAt: time.Now()}}
	}

	out := &Resolution{Resolution: res}
	if sessionID != "" && s.memo != nil {
		active, err := s.memo.Active(ctx, sessionID)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to read active barcode")
		}
		if active != "" && active != barcode {
			out.Stale = true
			s.metrics.ObserveResolution("stale")
			log.Debug().Str("session_id", sessionID).Str("barcode", barcode).Str("active", active).Msg("discarding stale resolution")
			return out
		}
		if err := s.memo.StoreLast(ctx, sessionID, &res); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to store resolution memo")
		}
	}

	s.metrics.ObserveResolution(string(res.Source))
	return out
}

// Forget clears the session's memo, e.g. after its scanned product was saved,
// so the next scan of the same barcode sees the new local entry.
func (s *ResolverService) Forget(ctx context.Context, sessionID string) {
	if sessionID == "" || s.memo == nil {
		return
	}
	if err := s.memo.Forget(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear resolution memo")
	}
}

// resolveChain runs tier 1 then tier 2.
func (s *ResolverService) resolveChain(ctx context.Context, barcode string) *cache.Resolution {
	if d := s.resolveLocal(ctx, barcode); d != nil {
		return &cache.Resolution{Barcode: barcode, Source: models.LookupFoundLocal, Product: d, ResolvedAt: time.Now()}
	}
	if d := s.resolveRemote(ctx, barcode); d != nil {
		return &cache.Resolution{Barcode: barcode, Source: models.LookupFoundAPI, Product: d, ResolvedAt: time.Now()}
	}
	return &cache.Resolution{Barcode: barcode, Source: models.LookupNotFound, ResolvedAt: time.Now()}
}

func (s *ResolverService) resolveLocal(ctx context.Context, barcode string) *models.ProductDescriptor {
	p, err := s.products.GetByBarcode(ctx, barcode)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("local product lookup failed")
		}
		return nil
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil
	}
	return &models.ProductDescriptor{Barcode: barcode, Name: name, Brand: p.Brand, Category: p.Category}
}

type lookupResult struct {
	source string
	desc   *models.ProductDescriptor
}

// resolveRemote queries every source at once and returns the first named match.
// Remaining sources are cancelled as soon as a match arrives.
func (s *ResolverService) resolveRemote(ctx context.Context, barcode string) *models.ProductDescriptor {
	if len(s.sources) == 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan lookupResult, len(s.sources))
	for _, src := range s.sources {
		go func(src ProductLookup) {
			start := time.Now()
			d, err := src.Lookup(ctx, barcode)
			switch {
			case err == nil && d != nil && strings.TrimSpace(d.Name) != "":
				s.metrics.ObserveLookup(src.Name(), "hit", time.Since(start))
				results <- lookupResult{source: src.Name(), desc: d}
				return
			case err == nil || errors.Is(err, ErrLookupMiss):
				s.metrics.ObserveLookup(src.Name(), "miss", time.Since(start))
			case ctx.Err() != nil:
				s.metrics.ObserveLookup(src.Name(), "cancelled", time.Since(start))
			default:
				s.metrics.ObserveLookup(src.Name(), "error", time.Since(start))
				log.Warn().Err(err).Str("source", src.Name()).Str("barcode", barcode).Msg("remote product lookup failed")
			}
			results <- lookupResult{source: src.Name()}
		}(src)
	}

	for range s.sources {
		select {
		case r := <-results:
			if r.desc != nil {
				log.Info().Str("source", r.source).Str("barcode", barcode).Msg("product found remotely")
				d := *r.desc
				d.Barcode = barcode
				d.Name = strings.TrimSpace(d.Name)
				return &d
			}
		case <-ctx.Done():
			log.Warn().Str("barcode", barcode).Msg("remote product lookup timed out")
			return nil
		}
	}
	return nil
}
