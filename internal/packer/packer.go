package packer

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/packer/internal/format"
	"github.com/eugenenazirov/packer/internal/metrics"
	"github.com/eugenenazirov/packer/internal/optimizer"
	"github.com/eugenenazirov/packer/internal/packing"
	"github.com/eugenenazirov/packer/internal/shipment"
)

// DefaultMaxCandidates bounds the candidates of a single package unless
// WithMaxCandidates says otherwise.
const DefaultMaxCandidates = 1000

// Report summarises a solved batch.
type Report struct {
	BatchID  string
	Packages int
	Shipped  int
	Duration time.Duration
}

// Service solves batches of packages with a single Optimizer.
type Service struct {
	optimizer optimizer.Optimizer
	logger    *zap.Logger
	metrics   *metrics.Recorder
	workers   int
	maxItems  int
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds the number of packages optimised concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxCandidates bounds the number of candidates a package may carry.
// Values below 1 are ignored.
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithMetrics records package and batch metrics on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithIDGenerator overrides batch ID generation, primarily for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New creates a Service. One worker per CPU is used unless WithWorkers says otherwise.
func New(opt optimizer.Optimizer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		optimizer: opt,
		logger:    logger,
		workers:   runtime.GOMAXPROCS(0),
		maxItems:  DefaultMaxCandidates,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Solve optimises every package and then flags the ones to ship.
func (s *Service) Solve(ctx context.Context, packages []*packing.Package) (Report, error) {
	report := Report{BatchID: s.newID(), Packages: len(packages)}
	logger := s.logger.With(zap.String("batch_id", report.BatchID))
	start := time.Now()

	if err := s.checkSize(packages); err != nil {
		logger.Warn("batch rejected", zap.Int("packages", len(packages)), zap.Error(err))
		return report, fmt.Errorf("optimise batch: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, p := range packages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			began := time.Now()
			err := optimizer.Apply(s.optimizer, p)
			s.metrics.ObservePackage(time.Since(began), err)
			if err != nil {
				return err
			}
			logger.Debug("package optimised",
				zap.Int("package", p.Line),
				zap.Int("candidates", len(p.Candidates)),
				zap.Ints("selected", p.SelectedIndices()),
				zap.Stringer("cost", p.Cost),
				zap.Stringer("weight", p.Weight),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("batch aborted", zap.Int("packages", len(packages)), zap.Error(err))
		return report, fmt.Errorf("optimise batch: %w", err)
	}

	shipment.Select(packages)

	report.Shipped = len(shipment.Shipped(packages))
	report.Duration = time.Since(start)
	s.metrics.ObserveBatch(report.Packages, report.Shipped)
	logger.Info("batch solved",
		zap.Int("packages", report.Packages),
		zap.Int("shipped", report.Shipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// MaxCandidates reports the per-package candidate limit.
func (s *Service) MaxCandidates() int {
	return s.maxItems
}

func (s *Service) checkSize(packages []*packing.Package) error {
	for _, p := range packages {
		if len(p.Candidates) > s.maxItems {
			return &packing.PackageError{
				Line:   p.Line,
				Reason: fmt.Sprintf("%d candidates exceed the limit of %d", len(p.Candidates), s.maxItems),
			}
		}
	}
	return nil
}

// Pack parses a batch from r, solves it and renders the decisions to w.
func (s *Service) Pack(ctx context.Context, r io.Reader, w io.Writer) (Report, error) {
	packages, err := format.Parse(r)
	if err != nil {
		return Report{}, fmt.Errorf("parse input: %w", err)
	}
	report, err := s.Solve(ctx, packages)
	if err != nil {
		return report, err
	}
	if err := format.Render(w, packages); err != nil {
		return report, fmt.Errorf("render output: %w", err)
	}
	return report, nil
}

// PackFile is Pack over the file at path, returning the rendered output.
func (s *Service) PackFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	if _, err := s.Pack(ctx, f, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
