package normalize

import (
	"sort"

	"github.com/costwise/costwise/internal/models"
)

const (
	// MinScoreDefault is the candidate threshold when the required shape is
	// fully specified.
	MinScoreDefault = 0.8

	// LowConfidenceCap bounds the confidence of findings derived from a
	// shape with unknown vCPU or memory.
	LowConfidenceCap = 0.4

	// candidateMemoryFloor disqualifies candidates whose memory diverges by
	// more than 20% from the requirement regardless of total score.
	candidateMemoryFloor = 0.8
)

// Candidate is one scored catalog offer.
type Candidate struct {
	Entry models.PriceCatalogEntry
	SKU   SKU
	Score float64
}

// SearchOptions controls candidate filtering.
type SearchOptions struct {
	// Region, when set, keeps only entries in the same region or sharing its
	// country prefix.
	Region string
	// RegionExact additionally requires strict region equality.
	RegionExact bool
	// MinScore is the inclusive score threshold. Use MinScoreFor.
	MinScore float64
	// Limit caps the number of returned candidates; 0 means all.
	Limit int
}

// MinScoreFor returns the score threshold appropriate for a required shape:
// the default for fully known specs, fully relaxed otherwise so that
// low-confidence matching still produces candidates.
func MinScoreFor(required SKU) float64 {
	if required.SpecKnown() {
		return MinScoreDefault
	}
	return 0
}

// ConfidenceFor derives a finding confidence from the match score, capped
// for shapes whose specs are not fully known.
func ConfidenceFor(required SKU, score float64) float64 {
	if required.SpecKnown() {
		return score
	}
	if score > LowConfidenceCap {
		return LowConfidenceCap
	}
	return score
}

// Candidates filters and scores a catalog slice against a required shape and
// returns the top matches ordered by (score desc, monthly cost asc).
//
// Disqualifying mismatches are filtered before scoring: memory or storage
// under 80% of the requirement never survives, even though the score formula
// alone would not zero the total out.
func Candidates(required SKU, catalog []models.PriceCatalogEntry, opts SearchOptions) []Candidate {
	var out []Candidate
	for _, entry := range catalog {
		if opts.Region != "" {
			if opts.RegionExact && entry.Region != opts.Region {
				continue
			}
			if !opts.RegionExact && !SameGeo(entry.Region, opts.Region) {
				continue
			}
		}

		cand := FromEntry(entry)
		if disqualified(required, cand) {
			continue
		}

		score := Score(required, cand)
		if score < opts.MinScore {
			continue
		}
		out = append(out, Candidate{Entry: entry, SKU: cand, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.MonthlyCost < out[j].Entry.MonthlyCost
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// disqualified applies the hard candidate filters that run before scoring.
func disqualified(required, candidate SKU) bool {
	if required.MemoryGB > 0 && candidate.MemoryGB > 0 &&
		ratio(required.MemoryGB, candidate.MemoryGB) < candidateMemoryFloor {
		return true
	}
	if required.StorageGB > 0 && candidate.StorageGB > 0 &&
		candidate.StorageGB/required.StorageGB < storagePartialFloor {
		return true
	}
	return false
}
