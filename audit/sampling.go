/*
sampling.go - Audit sample selection

PURPOSE:
  Produces three candidate sets for human audit, each item tagged with the
  strategy that selected it:

    high_risk:   probability proportional to anomaly risk score
    stratified:  deterministic banding across invoice value deciles
    random:      uniform unbiased draw

  The strategies draw from different framings of the population on purpose;
  when they happen to pick the same document, the per-item strategy tag
  discloses the overlap instead of hiding it.
*/
package audit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/records"
)

func (e *Engine) drawSamples(ctx context.Context, org string, fy period.Range, anomalies []Anomaly) ([]Sample, error) {
	invoices, err := e.Source.InvoicesInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return nil, err
	}

	seed := e.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	size := e.SampleSize
	if size <= 0 {
		size = 5
	}

	var samples []Sample
	samples = append(samples, highRiskSamples(rng, anomalies, size)...)
	samples = append(samples, stratifiedSamples(invoices, size)...)
	samples = append(samples, randomSamples(rng, invoices, size)...)
	return samples, nil
}

// highRiskSamples draws without replacement, weighted by anomaly risk score.
func highRiskSamples(rng *rand.Rand, anomalies []Anomaly, size int) []Sample {
	pool := make([]Anomaly, len(anomalies))
	copy(pool, anomalies)

	var samples []Sample
	for len(samples) < size && len(pool) > 0 {
		totalWeight := 0.0
		for _, a := range pool {
			totalWeight += a.RiskScore
		}
		if totalWeight == 0 {
			break
		}
		pick := rng.Float64() * totalWeight
		idx := 0
		for i, a := range pool {
			pick -= a.RiskScore
			if pick <= 0 {
				idx = i
				break
			}
		}
		chosen := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		samples = append(samples, Sample{
			Strategy:  StrategyHighRisk,
			EntityRef: chosen.EntityRef,
			Detail:    fmt.Sprintf("%s: %s", chosen.Theme, chosen.Trigger),
			RiskScore: chosen.RiskScore,
		})
	}
	return samples
}

// stratifiedSamples bands invoices into value deciles and picks the largest
// invoice of every band, walking bands high to low until the target size.
// Fully deterministic for a fixed population.
func stratifiedSamples(invoices []records.Invoice, size int) []Sample {
	if len(invoices) == 0 {
		return nil
	}
	sorted := make([]records.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Total.Equal(sorted[j].Total) {
			return sorted[i].Total.LessThan(sorted[j].Total)
		}
		return sorted[i].Number < sorted[j].Number
	})

	bands := 10
	if len(sorted) < bands {
		bands = len(sorted)
	}
	var samples []Sample
	for b := bands - 1; b >= 0 && len(samples) < size; b-- {
		hi := (b+1)*len(sorted)/bands - 1
		top := sorted[hi]
		samples = append(samples, Sample{
			Strategy:  StrategyStratified,
			EntityRef: top.Number,
			Detail:    fmt.Sprintf("value band %d of %d (%s)", b+1, bands, top.Total),
			RiskScore: 0,
		})
	}
	return samples
}

// randomSamples draws uniformly without replacement.
func randomSamples(rng *rand.Rand, invoices []records.Invoice, size int) []Sample {
	if len(invoices) == 0 {
		return nil
	}
	indices := rng.Perm(len(invoices))
	if size > len(indices) {
		size = len(indices)
	}
	samples := make([]Sample, 0, size)
	for _, idx := range indices[:size] {
		inv := invoices[idx]
		samples = append(samples, Sample{
			Strategy:  StrategyRandom,
			EntityRef: inv.Number,
			Detail:    fmt.Sprintf("uniform draw (%s)", inv.Total),
			RiskScore: 0,
		})
	}
	return samples
}
