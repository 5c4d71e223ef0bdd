package metrics

import (
	"sort"

	"github.com/samber/lo"

	"ridership/internal/models"
)

// Service computes dashboard aggregates from a filtered dataset.
// Every method is a pure function of its arguments.
type Service struct{}

// New creates a new metrics service
func New() *Service {
	return &Service{}
}

// Totals returns total ridership and total revenue; both are zero on an empty subset
func (s *Service) Totals(ds *models.Dataset) (int, float64) {
	ridership := lo.SumBy(ds.Transactions, func(t models.Transaction) int {
		return t.PassengerCount
	})
	revenue := lo.SumBy(ds.Transactions, func(t models.Transaction) float64 {
		return t.FareCollected
	})
	return ridership, revenue
}

// PeakOffPeak returns the labels of the busiest and quietest time bands.
// Bands are visited in ascending label order and the first one wins a tie.
func (s *Service) PeakOffPeak(ds *models.Dataset) (peak, offPeak string) {
	bands := s.TimeBandSeries(ds)
	if len(bands) == 0 {
		return models.NotAvailable, models.NotAvailable
	}

	maxBand, minBand := bands[0], bands[0]
	for _, b := range bands[1:] {
		if b.Total > maxBand.Total {
			maxBand = b
		}
		if b.Total < minBand.Total {
			minBand = b
		}
	}
	return maxBand.Label, minBand.Label
}

// Cards builds the four KPI cards
func (s *Service) Cards(ds *models.Dataset) models.Cards {
	ridership, revenue := s.Totals(ds)
	peak, offPeak := s.PeakOffPeak(ds)
	return models.Cards{
		TotalRidership: ridership,
		TotalRevenue:   revenue,
		PeakLabel:      peak,
		OffPeakLabel:   offPeak,
	}
}

// PaymentModeDistribution counts rows per payment mode
func (s *Service) PaymentModeDistribution(ds *models.Dataset) map[string]int {
	counts := make(map[string]int)
	for _, t := range ds.Transactions {
		counts[t.PaymentMode]++
	}
	return counts
}

// TimeBandSeries sums passengers per time band, ordered by label.
// Only bands with at least one row appear.
func (s *Service) TimeBandSeries(ds *models.Dataset) []models.BandTotal {
	sums := make(map[string]int)
	for _, t := range ds.Transactions {
		sums[t.TimeIntervalLabel] += t.PassengerCount
	}

	labels := lo.Keys(sums)
	sort.Strings(labels)

	series := make([]models.BandTotal, 0, len(labels))
	for _, label := range labels {
		series = append(series, models.BandTotal{Label: label, Total: sums[label]})
	}
	return series
}

// PassengerTypeDistribution returns each passenger type's share of rows.
// ok is false when the dataset has no passenger type column at all.
// Blank types are left out, so the shares of a non-empty result sum to 1.
func (s *Service) PassengerTypeDistribution(ds *models.Dataset) (dist map[string]float64, ok bool) {
	if !ds.HasPassengerType {
		return nil, false
	}

	counts := make(map[string]int)
	var total int
	for _, t := range ds.Transactions {
		if t.PassengerType == "" {
			continue
		}
		counts[t.PassengerType]++
		total++
	}

	dist = make(map[string]float64, len(counts))
	for pt, n := range counts {
		dist[pt] = float64(n) / float64(total)
	}
	return dist, true
}

// HourWindowSeries sums passengers per hour for start <= hour < end, ordered by hour.
// Bounds are clamped to 0-24; an inverted or empty window yields an empty series.
func (s *Service) HourWindowSeries(ds *models.Dataset, start, end int) []models.HourTotal {
	window := ClampWindow(start, end)

	sums := make(map[int]int)
	for _, t := range ds.Transactions {
		if t.Hour >= window.Start && t.Hour < window.End {
			sums[t.Hour] += t.PassengerCount
		}
	}

	hours := lo.Keys(sums)
	sort.Ints(hours)

	series := make([]models.HourTotal, 0, len(hours))
	for _, h := range hours {
		series = append(series, models.HourTotal{Hour: h, Total: sums[h]})
	}
	return series
}

// ClampWindow restricts both bounds to 0-24
func ClampWindow(start, end int) models.HourWindow {
	return models.HourWindow{
		Start: lo.Clamp(start, 0, 24),
		End:   lo.Clamp(end, 0, 24),
	}
}
