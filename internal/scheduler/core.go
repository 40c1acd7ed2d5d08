package scheduler

import (
	"math/rand"
	"slices"
)

// randomInitSchedule 随机生成一个赛程
// 每一轮独立地从尚未配对的球队中随机抽出两支组成一场比赛，并随机分配场地；
// 球队数为奇数时最后剩下的一支球队本轮轮空。场地冲突不在这里处理，交给可行性检查
func randomInitSchedule(teams, venues []string, rounds int, rng *rand.Rand) Schedule {
	s := make(Schedule, rounds)

	for r := 0; r < rounds; r++ {
		available := slices.Clone(teams)
		round := make(RoundSchedule, 0, len(teams)/2)

		for len(available) >= 2 {
			i := rng.Intn(len(available))
			home := available[i]
			available = slices.Delete(available, i, i+1)

			j := rng.Intn(len(available))
			away := available[j]
			available = slices.Delete(available, j, j+1)

			round = append(round, Match{
				Home:  home,
				Away:  away,
				Venue: venues[rng.Intn(len(venues))],
			})
		}

		s[r] = round
	}

	return s
}

// sameFixture 判断两场比赛是否为同一对球队，不区分主客场与场地
func sameFixture(a, b Match) bool {
	return (a.Home == b.Home && a.Away == b.Away) || (a.Home == b.Away && a.Away == b.Home)
}

// 锦标赛选择：有放回地抽取 k 个个体，返回适应度最小的那个
func selectByTournament(pop []*Individual, k int, rng *rand.Rand) *Individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < k; i++ {
		cand := pop[rng.Intn(len(pop))]
		if cand.fitness < best.fitness {
			best = cand
		}
	}
	return best
}

// 两点交叉
// 在 [0, R] 中选出两个不同的切点 c1 < c2，交换两个父代在 [c1, c2) 区间内的轮次
func twoPointCrossover(p1, p2 Schedule, rng *rand.Rand) (Schedule, Schedule) {
	c1 := p1.Clone()
	c2 := p2.Clone()

	length := len(p1)
	if length != len(p2) || length == 0 {
		// 按理来说两个赛程的长度应该能保证是相等的
		return c1, c2
	}

	a := rng.Intn(length + 1)
	b := rng.Intn(length)
	if b >= a {
		b++
	}
	if a > b {
		a, b = b, a
	}

	for i := a; i < b; i++ {
		c1[i], c2[i] = c2[i], c1[i]
	}

	return c1, c2
}

// 变异
// 以 swapRate 的概率随机选出两个不同的轮次，各取一场比赛互换；
// 之后再以 venueRate 的概率为换到第一个轮次中的那场比赛重新抽取场地。
// 变异可能产生不可行的赛程，由适应度惩罚来淘汰
func mutate(s Schedule, venues []string, swapRate, venueRate float64, rng *rand.Rand) Schedule {
	out := s.Clone()

	if rng.Float64() >= swapRate || len(out) < 2 {
		return out
	}

	d1 := rng.Intn(len(out))
	d2 := rng.Intn(len(out) - 1)
	if d2 >= d1 {
		d2++
	}
	if len(out[d1]) == 0 || len(out[d2]) == 0 {
		return out
	}

	m1 := rng.Intn(len(out[d1]))
	m2 := rng.Intn(len(out[d2]))
	out[d1][m1], out[d2][m2] = out[d2][m2], out[d1][m1]

	if rng.Float64() < venueRate {
		out[d1][m1].Venue = venues[rng.Intn(len(venues))]
	}

	return out
}
