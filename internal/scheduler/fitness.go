package scheduler

import "math"

const (
	// StrengthThreshold 实力差不超过该值的对阵不计惩罚
	StrengthThreshold = 2.0
	// WorstFitness 不可行赛程的适应度，使用最大的有限值以保证比较和统计总是有意义
	WorstFitness = math.MaxFloat64
)

/**
 * 计算赛程的适应度（越小越好，0 为最优）
 * fitness = Σ |strength(home) - strength(away)|，仅统计差值大于 StrengthThreshold 的比赛
 * 不满足硬约束的赛程直接返回 WorstFitness
 */
func Evaluate(s Schedule, strengths map[string]float64) float64 {
	if !IsFeasible(s) {
		return WorstFitness
	}

	penalty := 0.0
	for _, round := range s {
		for _, m := range round {
			diff := math.Abs(strengths[m.Home] - strengths[m.Away])
			if diff > StrengthThreshold {
				penalty += diff
			}
		}
	}

	return penalty
}
