// Package aggregate merges capability agent outcomes and the narrative into
// the final InvestmentAnalysis. Everything here is pure: no clocks except
// the completion stamp, no I/O, and merge order never changes the result.
package aggregate

import (
	"sort"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/agents"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

// Confidence combination weights and the ceiling applied when valuation is
// unavailable.
const (
	valuationWeight   = 0.6
	narrativeWeight   = 0.4
	missingValuationCeiling = 0.30
)

// Aggregate builds the final analysis from the outcome map and the narrative.
// Roles that produced no usable result are listed in Missing and their
// sections left nil; Degraded is set when anything is missing or the
// narrative fell back.
func Aggregate(req *analysis.AnalysisRequest, outcomes map[proto.Role]agents.Outcome, narrative *analysis.NarrativeResult) *analysis.InvestmentAnalysis {
	result := &analysis.InvestmentAnalysis{
		RequestID:   req.ID,
		Narrative:   narrative,
		CompletedAt: time.Now().UTC(),
	}

	var marketDocs, regulatoryDocs []analysis.Document

	for _, role := range proto.CapabilityRoles() {
		outcome, present := outcomes[role]
		if !present || !outcome.OK() {
			result.Missing = append(result.Missing, role.String())
			continue
		}

		switch role {
		case proto.RoleValuation:
			result.Valuation = outcome.Result.Prediction
		case proto.RoleMarketIntel:
			marketDocs = outcome.Result.Documents
		case proto.RoleRisk:
			result.Risk = outcome.Result.Risk
			regulatoryDocs = outcome.Result.Risk.Documents
		}
	}

	result.Documents = MergeDocuments(marketDocs, regulatoryDocs)

	if narrative != nil {
		result.Recommendation = narrative.Recommendation
		result.Reasoning = narrative.Reasoning
	} else {
		result.Recommendation = analysis.RecommendationHold
		result.Reasoning = "No narrative available."
		result.Missing = append(result.Missing, proto.RoleNarrative.String())
	}

	result.OverallConfidence = CombineConfidence(result.Valuation, narrative)
	result.Degraded = len(result.Missing) > 0 || (narrative != nil && narrative.Fallback)

	return result
}

// CombineConfidence computes the overall confidence as a fixed weighting of
// the valuation and narrative confidences, both clamped to [0, 1] first.
// When valuation is unavailable the result is capped conservatively.
func CombineConfidence(valuation *analysis.Prediction, narrative *analysis.NarrativeResult) float64 {
	narrativeConf := 0.0
	if narrative != nil {
		narrativeConf = analysis.Clamp01(narrative.Confidence)
	}

	if valuation == nil {
		capped := 0.5 * narrativeConf
		if capped > missingValuationCeiling {
			capped = missingValuationCeiling
		}
		return capped
	}

	valuationConf := analysis.Clamp01(valuation.Confidence)
	return analysis.Clamp01(valuationWeight*valuationConf + narrativeWeight*narrativeConf)
}

// MergeDocuments merges document lists, deduplicating by ID and keeping the
// higher relevance score for duplicates. The result is sorted by relevance
// descending, ties broken by ID ascending, so the merge is commutative.
func MergeDocuments(lists ...[]analysis.Document) []analysis.Document {
	byID := make(map[string]analysis.Document)
	for _, list := range lists {
		for _, doc := range list {
			existing, seen := byID[doc.ID]
			if !seen || doc.Relevance > existing.Relevance {
				byID[doc.ID] = doc
			}
		}
	}

	if len(byID) == 0 {
		return nil
	}

	merged := make([]analysis.Document, 0, len(byID))
	for _, doc := range byID {
		merged = append(merged, doc)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Relevance != merged[j].Relevance {
			return merged[i].Relevance > merged[j].Relevance
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}
