package schedulefit

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

type beamNode struct {
	bundles []models.SectionBundle
}

// RankSchedules runs the beam search over candidatesByCourse, one bundle
// choice per course, and returns up to limit RankedSchedule results ordered
// by (-fit_score, total_gaps, earliest_start, bundle_ids). If any requested
// course has zero candidates, the result is empty. When the deadline or node
// limit cuts the search short, only schedules that already cover every
// course are returned, so the result can be empty.
func RankSchedules(ctx context.Context, candidatesByCourse map[models.CourseCode][]models.SectionBundle, courses []models.CourseCode, prefs Preferences, limit int, cfg Config) []RankedSchedule {
	if limit <= 0 {
		limit = 5
	}
	if cfg.BeamWidth <= 0 || cfg.NodeLimit <= 0 || cfg.Timeout <= 0 {
		cfg = DefaultConfig()
	}

	for _, c := range courses {
		if len(candidatesByCourse[c]) == 0 {
			return nil
		}
	}

	ordered := make([]models.CourseCode, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(candidatesByCourse[ordered[i]]) < len(candidatesByCourse[ordered[j]])
	})

	deadline := time.Now().Add(time.Duration(cfg.Timeout) * time.Millisecond)
	beam := []beamNode{{}}
	nodesExpanded := 0

	for _, course := range ordered {
		if ctxDone(ctx) || time.Now().After(deadline) {
			break
		}
		var next []beamNode
		for _, node := range beam {
			if ctxDone(ctx) || time.Now().After(deadline) || nodesExpanded >= cfg.NodeLimit {
				break
			}
			for _, bundle := range candidatesByCourse[course] {
				if nodesExpanded >= cfg.NodeLimit {
					break
				}
				nodesExpanded++
				candidate := append(append([]models.SectionBundle{}, node.bundles...), bundle)
				next = append(next, beamNode{bundles: candidate})
			}
		}
		if len(next) == 0 {
			break
		}
		next = prune(next, prefs, cfg.BeamWidth)
		beam = next
	}

	ranked := make([]RankedSchedule, 0, len(beam))
	for _, node := range beam {
		if len(node.bundles) != len(ordered) {
			continue // incomplete due to timeout/node-limit cutoff
		}
		ranked = append(ranked, buildRanked(node.bundles, prefs))
	}

	ranked = dropConflictingIfConflictFreeExists(ranked)
	ranked = dedupeByBundleIDs(ranked)
	sortRanked(ranked)

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// prune keeps the top beamWidth partial nodes by their running fit score.
func prune(nodes []beamNode, prefs Preferences, beamWidth int) []beamNode {
	sort.SliceStable(nodes, func(i, j int) bool {
		si, _, _ := score(nodes[i].bundles, prefs)
		sj, _, _ := score(nodes[j].bundles, prefs)
		return si > sj
	})
	if len(nodes) > beamWidth {
		nodes = nodes[:beamWidth]
	}
	return nodes
}

func buildRanked(bundles []models.SectionBundle, prefs Preferences) RankedSchedule {
	fit, gaps, conflictReason := score(bundles, prefs)
	ids := make([]string, len(bundles))
	for i, b := range bundles {
		ids[i] = b.BundleID
	}
	return RankedSchedule{
		BundleIDs:      ids,
		FitScore:       fit,
		ConflictReason: conflictReason,
		TotalGaps:      gaps,
		EarliestStart:  earliestStart(bundles),
		Bundles:        bundles,
	}
}

// dropConflictingIfConflictFreeExists implements the pruning rule: once a
// complete conflict-free schedule exists, conflicting schedules are dropped
// from the result entirely.
func dropConflictingIfConflictFreeExists(ranked []RankedSchedule) []RankedSchedule {
	hasConflictFree := false
	for _, r := range ranked {
		if r.ConflictReason == "" {
			hasConflictFree = true
			break
		}
	}
	if !hasConflictFree {
		return ranked
	}

	out := ranked[:0:0]
	for _, r := range ranked {
		if r.ConflictReason == "" {
			out = append(out, r)
		}
	}
	return out
}

func dedupeByBundleIDs(ranked []RankedSchedule) []RankedSchedule {
	seen := make(map[string]bool, len(ranked))
	out := ranked[:0:0]
	for _, r := range ranked {
		key := strings.Join(r.BundleIDs, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func sortRanked(ranked []RankedSchedule) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FitScore != b.FitScore {
			return a.FitScore > b.FitScore
		}
		if a.TotalGaps != b.TotalGaps {
			return a.TotalGaps < b.TotalGaps
		}
		if a.EarliestStart != b.EarliestStart {
			return a.EarliestStart < b.EarliestStart
		}
		return strings.Join(a.BundleIDs, "|") < strings.Join(b.BundleIDs, "|")
	})
}
