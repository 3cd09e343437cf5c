package http

import (
	"net/http"

	"ebudget/internal/core"
	"ebudget/internal/projection"
	"ebudget/internal/query"
	"ebudget/internal/report"
)

func (s *Server) registerReportRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports/series", s.handleSeries)
	mux.HandleFunc("GET /api/reports/categories", s.handleAllocation)
	mux.HandleFunc("GET /api/reports/insights", s.handleInsights)
	mux.HandleFunc("GET /api/reports/status", s.handleStatusBreakdown)
	mux.HandleFunc("GET /api/reports/yearly", s.handleYearly)
	mux.HandleFunc("GET /api/reports/net", s.handleNet)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
}

// filtered returns the caller's transactions matching the report filters.
// Reports ignore the free text query.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) ([]core.Transaction, *projection.Snapshot, bool) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return nil, nil, false
	}
	c := ParseCriteria(r.URL.Query())
	c.Query = ""
	return query.Apply(snap.Transactions, c), snap, true
}

type SeriesResponse struct {
	report.Series
	Totals        report.Stats         `json:"totals"`
	Granularities []report.Granularity `json:"granularities"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	txs, _, ok := s.filtered(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Data(SeriesResponse{
		Series:        report.Aggregate(txs, ParseGrouping(r.URL.Query())),
		Totals:        report.Totals(txs),
		Granularities: report.Granularities(),
	}).Write(w)
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	txs, snap, ok := s.filtered(w, r)
	if !ok {
		return
	}
	shares := report.Allocate(txs, snap.Lookups)
	if shares == nil {
		shares = []report.CategoryShare{}
	}
	NewJSONResponse().Data(shares).Write(w)
}

type InsightsResponse struct {
	report.Insights
	Top []core.Transaction `json:"top"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	txs, snap, ok := s.filtered(w, r)
	if !ok {
		return
	}
	n := positiveInt(r.URL.Query().Get("n"), DefaultTopN)
	NewJSONResponse().Data(InsightsResponse{
		Insights: report.Extract(txs, report.Allocate(txs, snap.Lookups)),
		Top:      report.TopN(txs, n),
	}).Write(w)
}

func (s *Server) handleStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	if txs, _, ok := s.filtered(w, r); ok {
		NewJSONResponse().Data(nonNil(report.StatusBreakdown(txs))).Write(w)
	}
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	if txs, _, ok := s.filtered(w, r); ok {
		NewJSONResponse().Data(nonNil(report.YearlyTotals(txs))).Write(w)
	}
}

func (s *Server) handleNet(w http.ResponseWriter, r *http.Request) {
	if txs, _, ok := s.filtered(w, r); ok {
		NewJSONResponse().Data(nonNil(report.NetSeries(txs))).Write(w)
	}
}

// FormattedCard is a stat card rendered for display.
type FormattedCard struct {
	Value string `json:"value"`
	Delta string `json:"delta"`
}

type OverviewResponse struct {
	report.Overview
	Months    []report.MonthKey        `json:"months"`
	Formatted map[string]FormattedCard `json:"formatted"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	params := ParseMonthParams(r.URL.Query(), s.now())
	ov := report.BuildOverview(snap.Transactions, snap.Goals, params.Primary, params.Comparison)

	formatted := make(map[string]FormattedCard, len(ov.Cards))
	for _, c := range ov.Cards {
		formatted[c.Kind] = FormattedCard{
			Value: s.formatter.Money(c.Value),
			Delta: s.formatter.Delta(c.Delta),
		}
	}
	NewJSONResponse().Data(OverviewResponse{
		Overview:  ov,
		Months:    report.MonthOptions(snap.Transactions, report.MonthOf(s.now())),
		Formatted: formatted,
	}).Write(w)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
