// Package analytics recomputes the dashboard's derived views from the
// current transaction window. Compute is pure and idempotent: the same
// window always yields the same report, and every buffer mutation replaces
// the whole report rather than patching parts of it.
package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

// Heuristic thresholds. The recipient counter fires on exactly the third
// occurrence of a VPA, once per recipient; later occurrences of the same
// VPA do not fire again.
const (
	UnusualAmountThreshold   = 5000.0
	RecipientRepeatThreshold = 3
	RapidUserThreshold       = 5
	HighRiskThreshold        = 0.8
	HighRiskLimit            = 10
	TimelineWindow           = 10
)

// PatternCounts are the heuristic fraud-pattern counters.
type PatternCounts struct {
	UnusualAmount       int `json:"unusual_amount"`
	SuspiciousRecipient int `json:"suspicious_recipient"`
	RapidTransactions   int `json:"rapid_transactions"`
	NewDevice           int `json:"new_device"`
	LocationMismatch    int `json:"location_mismatch"`
}

// RiskHistogram partitions transactions by risk score:
// low [0,0.3), medium [0.3,0.6), high [0.6,0.8), critical [0.8,1].
type RiskHistogram struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// TimelineBucket counts dispositions within one minute.
type TimelineBucket struct {
	Minute  time.Time `json:"minute"`
	Label   string    `json:"label"`
	Blocked int       `json:"blocked"`
	Delayed int       `json:"delayed"`
	Allowed int       `json:"allowed"`
}

// Summary holds the scalar roll-up of the window.
type Summary struct {
	Total      int     `json:"total"`
	Allowed    int     `json:"allowed"`
	Delayed    int     `json:"delayed"`
	Blocked    int     `json:"blocked"`
	MeanRisk   float64 `json:"mean_risk"`
	RiskStdDev float64 `json:"risk_stddev"`
}

// Report bundles the four derived views plus the scalar summary. All parts
// are recomputed together on every window mutation.
type Report struct {
	Patterns  PatternCounts        `json:"patterns"`
	Histogram RiskHistogram        `json:"histogram"`
	Timeline  []TimelineBucket     `json:"timeline"`
	HighRisk  []domain.Transaction `json:"high_risk"`
	Summary   Summary              `json:"summary"`
}

// Compute derives a full report from the window. txs is newest-first as the
// ring hands it out; occurrence-based heuristics scan oldest to newest so
// "the third occurrence" means the third chronologically.
func Compute(txs []domain.Transaction) Report {
	report := Report{
		Timeline: make([]TimelineBucket, 0, TimelineWindow),
		HighRisk: make([]domain.Transaction, 0, HighRiskLimit),
	}

	vpaSeen := make(map[string]int)
	userSeen := make(map[string]int)
	deviceSeen := make(map[string]bool)
	buckets := make(map[time.Time]*TimelineBucket)
	risks := make([]float64, 0, len(txs))

	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]

		// Pattern heuristics, single chronological pass.
		if tx.Amount > UnusualAmountThreshold {
			report.Patterns.UnusualAmount++
		}
		if tx.RecipientVPA != "" {
			vpaSeen[tx.RecipientVPA]++
			if vpaSeen[tx.RecipientVPA] == RecipientRepeatThreshold {
				report.Patterns.SuspiciousRecipient++
			}
		}
		if tx.UserID != "" {
			userSeen[tx.UserID]++
			if userSeen[tx.UserID] == RapidUserThreshold {
				report.Patterns.RapidTransactions++
			}
		}
		if tx.DeviceID != "" && !deviceSeen[tx.DeviceID] {
			deviceSeen[tx.DeviceID] = true
			report.Patterns.NewDevice++
		}
		if tx.LocationMismatch {
			report.Patterns.LocationMismatch++
		}

		// Risk histogram.
		switch {
		case tx.RiskScore < 0.3:
			report.Histogram.Low++
		case tx.RiskScore < 0.6:
			report.Histogram.Medium++
		case tx.RiskScore < HighRiskThreshold:
			report.Histogram.High++
		default:
			report.Histogram.Critical++
		}

		// Minute buckets.
		minute := tx.CreatedAt.UTC().Truncate(time.Minute)
		b, ok := buckets[minute]
		if !ok {
			b = &TimelineBucket{Minute: minute, Label: minute.Format("15:04")}
			buckets[minute] = b
		}
		switch tx.Action {
		case domain.ActionBlock:
			b.Blocked++
			report.Summary.Blocked++
		case domain.ActionDelay:
			b.Delayed++
			report.Summary.Delayed++
		case domain.ActionAllow:
			b.Allowed++
			report.Summary.Allowed++
		}

		risks = append(risks, tx.RiskScore)
	}

	// Last TimelineWindow buckets, chronological.
	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > TimelineWindow {
		keys = keys[len(keys)-TimelineWindow:]
	}
	for _, k := range keys {
		report.Timeline = append(report.Timeline, *buckets[k])
	}

	// High-risk alert list, newest first, capped.
	for _, tx := range txs {
		if tx.RiskScore >= HighRiskThreshold {
			report.HighRisk = append(report.HighRisk, tx)
			if len(report.HighRisk) == HighRiskLimit {
				break
			}
		}
	}

	report.Summary.Total = len(txs)
	if len(risks) > 0 {
		report.Summary.MeanRisk = stat.Mean(risks, nil)
	}
	if len(risks) > 1 {
		report.Summary.RiskStdDev = stat.StdDev(risks, nil)
	}

	return report
}
