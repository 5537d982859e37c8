package ranking

// competitionRank ranks values descending: the highest value gets rank 1,
// ties share the minimum rank of their group, and the next distinct value's
// rank equals 1 + the count of items ranked above it. Undefined values all
// share the rank directly below every defined one.
func competitionRank(values []*float64) []float64 {
	ranks := make([]float64, len(values))

	defined := 0
	for _, v := range values {
		if v != nil {
			defined++
		}
	}
	bottom := float64(defined + 1)

	for i, v := range values {
		if v == nil {
			ranks[i] = bottom
			continue
		}
		higher := 0
		for _, other := range values {
			if other != nil && *other > *v {
				higher++
			}
		}
		ranks[i] = float64(higher + 1)
	}

	return ranks
}

// competitionRankAsc ranks values ascending: the lowest value gets rank 1.
// Used for the final score, where lower (better individual ranks) wins.
func competitionRankAsc(values []float64) []float64 {
	ranks := make([]float64, len(values))
	for i, v := range values {
		lower := 0
		for _, other := range values {
			if other < v {
				lower++
			}
		}
		ranks[i] = float64(lower + 1)
	}
	return ranks
}

// applyRanks fills in the five metric ranks, the weighted final score, and
// the final rank, in place. Growth metrics rank across the whole universe;
// the two level metrics rank within each sector only, since return-on-capital
// levels are not comparable across sectors.
func applyRanks(records []RankRecord, weights Weights) {
	n := len(records)
	if n == 0 {
		return
	}

	pickAll := func(pick func(GrowthMetric) *float64) []*float64 {
		values := make([]*float64, n)
		for i := range records {
			values[i] = pick(records[i].Growth)
		}
		return values
	}

	roceGrowthRanks := competitionRank(pickAll(func(g GrowthMetric) *float64 { return g.ROCEGrowth }))
	marginGrowthRanks := competitionRank(pickAll(func(g GrowthMetric) *float64 { return g.OperatingMarginGrowth }))
	revenueGrowthRanks := competitionRank(pickAll(func(g GrowthMetric) *float64 { return g.RevenueGrowthCurrentYear }))

	for i := range records {
		records[i].ROCEGrowthRank = roceGrowthRanks[i]
		records[i].OperatingMarginGrowthRank = marginGrowthRanks[i]
		records[i].RevenueGrowthCurrentYearRank = revenueGrowthRanks[i]
	}

	// Sector-relative level ranks.
	bySector := make(map[string][]int)
	for i := range records {
		bySector[records[i].Sector] = append(bySector[records[i].Sector], i)
	}

	for _, indices := range bySector {
		roceLevels := make([]*float64, len(indices))
		marginLevels := make([]*float64, len(indices))
		for j, idx := range indices {
			roceLevels[j] = records[idx].Growth.ROCECurrentYear
			marginLevels[j] = records[idx].Growth.OperatingMarginCurrentYear
		}

		roceRanks := competitionRank(roceLevels)
		marginRanks := competitionRank(marginLevels)
		for j, idx := range indices {
			records[idx].ROCECurrentYearRank = roceRanks[j]
			records[idx].OperatingMarginCurrentYearRank = marginRanks[j]
		}
	}

	scores := make([]float64, n)
	for i := range records {
		records[i].FinalScore = records[i].ROCEGrowthRank*weights.ROCEGrowth +
			records[i].ROCECurrentYearRank*weights.ROCECurrentYear +
			records[i].OperatingMarginGrowthRank*weights.OperatingMarginGrowth +
			records[i].OperatingMarginCurrentYearRank*weights.OperatingMarginCurrentYear +
			records[i].RevenueGrowthCurrentYearRank*weights.RevenueGrowthCurrentYear
		scores[i] = records[i].FinalScore
	}

	finalRanks := competitionRankAsc(scores)
	for i := range records {
		records[i].FinalRank = finalRanks[i]
	}
}
