package report

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/store"
)

// Querier loads the orders a report is built from.
type Querier interface {
	ListReportOrders(ctx context.Context, from, to time.Time) ([]store.ReportOrder, error)
}

// Service builds reports.
type Service struct {
	q           Querier
	loc         *time.Location
	defaultDays int
	now         func() time.Time
}

// ServiceConfig configures the Service.
type ServiceConfig struct {
	Queries     Querier
	Location    *time.Location
	DefaultDays int
	Now         func() time.Time
}

// NewService constructs a report Service.
func NewService(cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{q: cfg.Queries, loc: loc, defaultDays: cfg.DefaultDays, now: cfg.Now}
}

// ParseRange resolves raw query bounds against the current day.
func (s *Service) ParseRange(from, to string) Range {
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	return ParseRange(from, to, now, s.loc, s.defaultDays)
}

// Build loads the orders placed within r and aggregates them.
func (s *Service) Build(ctx context.Context, r Range) (Report, error) {
	start := time.Now()
	defer func() { obs.ObserveReportBuild(obs.DurationMillis(time.Since(start))) }()

	from, to := r.Bounds()
	orders, err := s.q.ListReportOrders(ctx, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("load report orders: %w", err)
	}
	rep := Aggregate(orders, s.loc)
	rep.From = r.From.Format(dayLayout)
	rep.To = r.To.Format(dayLayout)
	return rep, nil
}
