package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	compensation "envecom-simulator/internal/compensation/domain"
	"envecom-simulator/internal/observability/metrics"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDFactory generates simulation ids.
type IDFactory interface {
	NewID() string
}

// UUIDFactory generates random UUIDs.
type UUIDFactory struct{}

func (UUIDFactory) NewID() string { return uuid.NewString() }

// Simulation is one computed submission.
type Simulation struct {
	ID          string                          `json:"id"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Input       compensation.BillInput          `json:"-"`
	Report      compensation.CompensationReport `json:"report"`
	Projection  compensation.Projection         `json:"projection"`
}

// Option configures the simulation service.
type Option func(*SimulationService)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *SimulationService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDFactory overrides the id factory.
func WithIDFactory(ids IDFactory) Option {
	return func(s *SimulationService) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithStrictValidation rejects incomplete or unparsable inputs instead of coercing them.
func WithStrictValidation(strict bool) Option {
	return func(s *SimulationService) {
		s.strict = strict
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *SimulationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SimulationService runs the calculator for one submission at a time.
type SimulationService struct {
	calc   *compensation.Calculator
	clock  Clock
	ids    IDFactory
	strict bool
	logger *log.Logger
}

// NewSimulationService constructs the service.
func NewSimulationService(calc *compensation.Calculator, opts ...Option) (*SimulationService, error) {
	if calc == nil {
		return nil, errors.New("simulation service: nil calculator")
	}
	s := &SimulationService{
		calc:   calc,
		clock:  SystemClock{},
		ids:    UUIDFactory{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Strict reports whether strict validation is enabled.
func (s *SimulationService) Strict() bool {
	return s.strict
}

// Simulate resolves the partial input, computes the report and its projection.
func (s *SimulationService) Simulate(ctx context.Context, partial compensation.PartialBillInput) (*Simulation, error) {
	start := time.Now()
	sim, err := s.simulate(ctx, partial)
	result := metrics.ResultSuccess
	var verr *compensation.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, compensation.ErrUnknownConnectionClass):
		result = metrics.ResultInvalid
	case err != nil:
		result = metrics.ResultError
	}
	metrics.ObserveSimulation(result, time.Since(start))
	if err != nil {
		s.logger.Printf("simulation rejected: %v", err)
		return nil, err
	}
	metrics.ObserveCompensableEnergy(sim.Report.Consumption.CompensableKWh)
	s.logger.Printf("simulation %s: uc=%q class=%s compensable=%.2fkWh credit=%.2f reduction=%.2f%%",
		sim.ID, sim.Report.Identification.ConsumerUnit, sim.Report.Identification.Connection,
		sim.Report.Consumption.CompensableKWh, sim.Report.Summary.CreditTotal, sim.Report.Summary.ReductionPct)
	return sim, nil
}

func (s *SimulationService) simulate(ctx context.Context, partial compensation.PartialBillInput) (*Simulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.strict {
		if err := partial.ValidateStrict(); err != nil {
			return nil, err
		}
	}
	in := partial.Resolve()
	report, err := s.calc.Compute(in)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		ID:          s.ids.NewID(),
		GeneratedAt: s.clock.Now().UTC(),
		Input:       in,
		Report:      report,
		Projection:  compensation.ProjectMonthly(report.Summary.MemberShare),
	}, nil
}
