package services

import (
	"sort"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Aggregate combines the query answer, findings and gaps into a report.
// It is pure: equal inputs yield deeply equal reports. RunID, Source and
// GeneratedAt are left for the caller to stamp.
//
// Findings and gaps must together cover [0, chunkCount) exactly once;
// otherwise a *domain.IncompleteFindingsError is returned.
func Aggregate(
	answer domain.QueryAnswer, findings []domain.Finding, gaps []domain.Gap, chunkCount int,
) (domain.AnalysisReport, error) {
	if err := checkCoverage(findings, gaps, chunkCount); err != nil {
		return domain.AnalysisReport{}, err
	}

	sortedFindings := make([]domain.Finding, len(findings))
	copy(sortedFindings, findings)
	sort.SliceStable(sortedFindings, func(i, j int) bool {
		return sortedFindings[i].ChunkIndex < sortedFindings[j].ChunkIndex
	})

	sortedGaps := make([]domain.Gap, len(gaps))
	copy(sortedGaps, gaps)
	sort.SliceStable(sortedGaps, func(i, j int) bool {
		return sortedGaps[i].ChunkIndex < sortedGaps[j].ChunkIndex
	})

	var sources []string
	if answer.Sources != nil {
		sources = make([]string, len(answer.Sources))
		copy(sources, answer.Sources)
	}
	answer.Sources = sources

	return domain.AnalysisReport{
		QueryAnswer: answer,
		Findings:    sortedFindings,
		Gaps:        sortedGaps,
		ChunkCount:  chunkCount,
	}, nil
}

func checkCoverage(findings []domain.Finding, gaps []domain.Gap, chunkCount int) error {
	seen := make([]int, max(chunkCount, 0))
	var outOfRange []int

	mark := func(idx int) {
		if idx < 0 || idx >= chunkCount {
			outOfRange = append(outOfRange, idx)
			return
		}
		seen[idx]++
	}
	for _, f := range findings {
		mark(f.ChunkIndex)
	}
	for _, g := range gaps {
		mark(g.ChunkIndex)
	}

	var missing, duplicated []int
	for idx, n := range seen {
		switch {
		case n == 0:
			missing = append(missing, idx)
		case n > 1:
			duplicated = append(duplicated, idx)
		}
	}

	if len(missing) == 0 && len(duplicated) == 0 && len(outOfRange) == 0 {
		return nil
	}
	sort.Ints(outOfRange)
	return &domain.IncompleteFindingsError{
		Missing:    missing,
		Duplicated: duplicated,
		OutOfRange: outOfRange,
	}
}
