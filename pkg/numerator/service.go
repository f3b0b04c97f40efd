// Package numerator assigns human-readable document numbers such as
// SL-2026-00042. Counters live in the tenant database (sys_sequences), so two
// tenants never share a sequence even though the keys carry no tenant id.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hasapchy/back-sub001/internal/core/tenant"
)

type Generator interface {
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

type Strategy int

const (
	// StrategyStrict draws every number from the database. Gapless.
	StrategyStrict Strategy = iota
	// StrategyCached draws blocks of RangeSize numbers and hands them out from
	// memory. A restart loses the rest of the block.
	StrategyCached
)

const (
	defaultRangeSize = 50
	defaultPadWidth  = 5
)

type Options struct {
	Strategy  Strategy
	RangeSize int64
}

func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Period says when a sequence starts again from 1.
type Period string

const (
	ResetNever   Period = "never"
	ResetYearly  Period = "year"
	ResetMonthly Period = "month"
)

// Config describes one document type's numbering.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	ResetPeriod Period
}

// DefaultConfig numbers as PREFIX-YYYY-NNNNN, restarting every January.
func DefaultConfig(prefix string) Config {
	return Config{Prefix: prefix, IncludeYear: true, PadWidth: defaultPadWidth, ResetPeriod: ResetYearly}
}

// sequenceKey names the sys_sequences row the number comes from.
func (c Config) sequenceKey(at time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return c.Prefix + "_" + at.Format("2006_01")
	case ResetYearly:
		return c.Prefix + "_" + at.Format("2006")
	default:
		return c.Prefix
	}
}

func (c Config) format(at time.Time, n int64) string {
	width := c.PadWidth
	if width == 0 {
		width = defaultPadWidth
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", c.Prefix, at.Year(), width, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}

// Querier runs the sequence upsert. *pgxpool.Pool satisfies it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const bumpSequence = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
	RETURNING current_val`

// block is a reserved run of numbers (next-1, last].
type block struct {
	next, last int64
}

type Service struct {
	querier Querier

	mu     sync.Mutex
	blocks map[string]*block
}

// New draws numbers through q.
func New(q Querier) *Service {
	return &Service{querier: q, blocks: make(map[string]*block)}
}

// NewFromContext draws numbers through the tenant pool of each call. The
// upsert runs on the pool, outside the document transaction, so a rolled
// back document burns its number instead of holding the row lock.
func NewFromContext() *Service {
	return New(nil)
}

func (s *Service) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if s == nil {
		return "", errors.New("numerator is not initialized")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	key := cfg.sequenceKey(period)
	var (
		n   int64
		err error
	)
	if opts.Strategy == StrategyCached {
		n, err = s.fromBlock(ctx, key, opts.RangeSize)
	} else {
		n, err = s.bump(ctx, key, 1)
	}
	if err != nil {
		return "", err
	}
	return cfg.format(period, n), nil
}

// bump adds n to the sequence and returns its new value.
func (s *Service) bump(ctx context.Context, key string, n int64) (int64, error) {
	q := s.querier
	if q == nil {
		pool, err := tenant.GetPool(ctx)
		if err != nil {
			return 0, fmt.Errorf("numerator: %w", err)
		}
		q = pool
	}

	var v int64
	if err := q.QueryRow(ctx, bumpSequence, key, n).Scan(&v); err != nil {
		return 0, fmt.Errorf("bump sequence %s: %w", key, err)
	}
	return v, nil
}

func (s *Service) fromBlock(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = defaultRangeSize
	}
	// blocks of different tenants must not mix in a shared process
	cacheKey := key
	if id := tenant.GetTenantID(ctx); id != "" {
		cacheKey = id + ":" + key
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.blocks[cacheKey]
	if b == nil || b.next > b.last {
		last, err := s.bump(ctx, key, size)
		if err != nil {
			return 0, err
		}
		b = &block{next: last - size + 1, last: last}
		s.blocks[cacheKey] = b
	}
	n := b.next
	b.next++
	return n, nil
}

var _ Generator = (*Service)(nil)
