package scheduler

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

var fourTeamStrengths = map[string]float64{"A": 5, "B": 5, "C": 1, "D": 1}

func fourTeamRequest(rounds int) *domain.ScheduleRequest {
	slots := make([]time.Time, rounds)
	base := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	for i := range slots {
		slots[i] = base.AddDate(0, 0, 7*i)
	}
	return &domain.ScheduleRequest{
		Teams:         []string{"A", "B", "C", "D"},
		Venues:        []string{"V1", "V2"},
		TimeSlots:     slots,
		Referees:      []string{"R1"},
		TeamStrengths: fourTeamStrengths,
	}
}

func testParameters(pop, gens int, seed int64) *Parameters {
	p := DefaultParameters()
	p.PopulationSize = pop
	p.MaxGenerations = gens
	p.Seed = seed
	return p
}

// matchCounts 统计赛程中每场比赛出现的次数
func matchCounts(schedules ...Schedule) map[Match]int {
	counts := make(map[Match]int)
	for _, s := range schedules {
		for _, round := range s {
			for _, m := range round {
				counts[m]++
			}
		}
	}
	return counts
}

func TestEvaluate_FourTeamScenario(t *testing.T) {
	balanced := Schedule{{{"A", "B", "V1"}, {"C", "D", "V2"}}}
	require.True(t, IsFeasible(balanced))
	assert.Equal(t, 0.0, Evaluate(balanced, fourTeamStrengths))

	// 两场比赛实力差均为 4，超过阈值 2
	unbalanced := Schedule{{{"A", "C", "V1"}, {"B", "D", "V2"}}}
	require.True(t, IsFeasible(unbalanced))
	assert.Equal(t, 8.0, Evaluate(unbalanced, fourTeamStrengths))

	collision := Schedule{{{"A", "B", "V1"}, {"C", "D", "V1"}}}
	require.False(t, IsFeasible(collision))
	assert.Equal(t, WorstFitness, Evaluate(collision, fourTeamStrengths))
	assert.False(t, math.IsInf(Evaluate(collision, fourTeamStrengths), 0))
}

func TestEvaluate_DiffAtThresholdIsFree(t *testing.T) {
	strengths := map[string]float64{"A": 3, "B": 1, "C": 9, "D": 6.5}
	s := Schedule{{{"A", "B", "V1"}, {"C", "D", "V2"}}}

	// |3-1| = 2 不计惩罚，|9-6.5| = 2.5 计入
	assert.Equal(t, 2.5, Evaluate(s, strengths))
}

func TestEvaluate_RandomSchedulesSentinelOrNonNegative(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E", "F"}
	venues := []string{"V1", "V2", "V3"}
	strengths := map[string]float64{"A": 1, "B": 2, "C": 4, "D": 7, "E": 8, "F": 10}
	rng := rand.New(rand.NewSource(7))

	sawFeasible, sawInfeasible := false, false
	for i := 0; i < 300; i++ {
		s := randomInitSchedule(teams, venues, 2, rng)
		fitness := Evaluate(s, strengths)
		if IsFeasible(s) {
			sawFeasible = true
			assert.GreaterOrEqual(t, fitness, 0.0)
			assert.Less(t, fitness, WorstFitness)
		} else {
			sawInfeasible = true
			assert.Equal(t, WorstFitness, fitness)
		}
	}

	assert.True(t, sawFeasible, "随机赛程中应该存在可行解")
	assert.True(t, sawInfeasible, "随机生成不保证场地不冲突")
}

func TestRandomInitSchedule_NoDoubleBookedTeam(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	venues := []string{"V1", "V2"}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		s := randomInitSchedule(teams, venues, 6, rng)
		require.Len(t, s, 6)
		for _, round := range s {
			require.Len(t, round, 4)
		}
		for _, v := range CheckFeasibility(s) {
			assert.NotEqual(t, ViolationTeamDoubleBooked, v.Kind)
			assert.NotEqual(t, ViolationDuplicateFixture, v.Kind)
		}
	}
}

func TestRandomInitSchedule_OddTeamCountLeavesOneOut(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E"}
	rng := rand.New(rand.NewSource(3))

	s := randomInitSchedule(teams, []string{"V1", "V2", "V3"}, 4, rng)
	for _, round := range s {
		require.Len(t, round, 2)

		seen := make(map[string]bool)
		for _, m := range round {
			seen[m.Home] = true
			seen[m.Away] = true
		}
		assert.Len(t, seen, 4)
	}
}

func TestSameFixture(t *testing.T) {
	assert.True(t, sameFixture(Match{"A", "B", "V1"}, Match{"A", "B", "V2"}))
	assert.True(t, sameFixture(Match{"A", "B", "V1"}, Match{"B", "A", "V1"}))
	assert.False(t, sameFixture(Match{"A", "B", "V1"}, Match{"A", "C", "V1"}))
}

func TestCheckFeasibility(t *testing.T) {
	t.Run("swapped pair in one round is a conflict", func(t *testing.T) {
		s := Schedule{{{"A", "B", "V1"}, {"B", "A", "V2"}}}
		violations := CheckFeasibility(s)

		require.False(t, IsFeasible(s))
		kinds := make(map[string]int)
		for _, v := range violations {
			kinds[v.Kind]++
			assert.Equal(t, 0, v.Round)
		}
		assert.Equal(t, 2, kinds[ViolationTeamDoubleBooked])
		assert.Equal(t, 1, kinds[ViolationDuplicateFixture])
	})

	t.Run("team playing itself", func(t *testing.T) {
		s := Schedule{{{"A", "A", "V1"}}}
		assert.False(t, IsFeasible(s))
		assert.NotEmpty(t, CheckFeasibility(s))
	})

	t.Run("venue conflict only in second round", func(t *testing.T) {
		s := Schedule{
			{{"A", "B", "V1"}, {"C", "D", "V2"}},
			{{"A", "C", "V2"}, {"B", "D", "V2"}},
		}
		violations := CheckFeasibility(s)

		require.Len(t, violations, 1)
		assert.Equal(t, Violation{Round: 1, Kind: ViolationVenueConflict, Subject: "V2"}, violations[0])
		assert.False(t, IsFeasible(s))
	})

	t.Run("repeat across rounds is allowed", func(t *testing.T) {
		s := Schedule{
			{{"A", "B", "V1"}, {"C", "D", "V2"}},
			{{"B", "A", "V1"}, {"D", "C", "V2"}},
		}
		assert.Empty(t, CheckFeasibility(s))
		assert.True(t, IsFeasible(s))
	})
}

func TestTwoPointCrossover_PreservesLengthAndMatches(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E", "F"}
	venues := []string{"V1", "V2", "V3"}
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 200; i++ {
		rounds := 1 + rng.Intn(8)
		p1 := randomInitSchedule(teams, venues, rounds, rng)
		p2 := randomInitSchedule(teams, venues, rounds, rng)
		p1Before, p2Before := p1.Clone(), p2.Clone()

		c1, c2 := twoPointCrossover(p1, p2, rng)

		require.Len(t, c1, rounds)
		require.Len(t, c2, rounds)
		assert.Equal(t, matchCounts(p1, p2), matchCounts(c1, c2))

		// 修改子代不能影响父代
		c1[0][0].Venue = "changed"
		c2[0][0].Venue = "changed"
		assert.Equal(t, p1Before, p1)
		assert.Equal(t, p2Before, p2)
	}
}

func TestMutate_PreservesMatchCountAndTouchesAtMostTwoRounds(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E", "F"}
	venues := []string{"V1", "V2", "V3", "V4"}
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 300; i++ {
		parent := randomInitSchedule(teams, venues, 5, rng)
		before := parent.Clone()

		child := mutate(parent, venues, 1, 0.5, rng)

		assert.Equal(t, before, parent)
		require.Len(t, child, len(parent))
		assert.Equal(t, parent.MatchCount(), child.MatchCount())

		changed := 0
		for r := range parent {
			assert.Len(t, child[r], len(parent[r]))
			for m := range parent[r] {
				if parent[r][m] != child[r][m] {
					changed++
					break
				}
			}
		}
		assert.LessOrEqual(t, changed, 2)
	}
}

func TestMutate_SwapsMatchesBetweenRounds(t *testing.T) {
	parent := Schedule{
		{{"A", "B", "V1"}},
		{{"C", "D", "V2"}},
	}
	rng := rand.New(rand.NewSource(9))

	child := mutate(parent, []string{"V1", "V2"}, 1, 0, rng)

	assert.Equal(t, Schedule{{{"C", "D", "V2"}}, {{"A", "B", "V1"}}}, child)
}

func TestMutate_NeverSwapsWhenRateIsZero(t *testing.T) {
	parent := Schedule{{{"A", "B", "V1"}}, {{"C", "D", "V2"}}}
	rng := rand.New(rand.NewSource(9))

	for i := 0; i < 50; i++ {
		assert.Equal(t, parent, mutate(parent, []string{"V3"}, 0, 1, rng))
	}
}

func TestSelectByTournament_ReturnsMember(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	pop := make([]*Individual, 10)
	members := make(map[*Individual]bool)
	for i := range pop {
		pop[i] = &Individual{fitness: float64(rng.Intn(20)), valid: true}
		members[pop[i]] = true
	}

	for i := 0; i < 500; i++ {
		picked := selectByTournament(pop, 3, rng)
		assert.True(t, members[picked])
	}
}

func TestCollectStats_SentinelAverageStaysFinite(t *testing.T) {
	pop := []*Individual{
		{fitness: WorstFitness, valid: true},
		{fitness: WorstFitness, valid: true},
		{fitness: WorstFitness, valid: true},
	}

	stats := collectStats(4, pop)

	assert.Equal(t, 4, stats.Generation)
	assert.Equal(t, WorstFitness, stats.Min)
	assert.Equal(t, WorstFitness, stats.Avg)
}

func TestNew_InvalidInput(t *testing.T) {
	cases := map[string]func(req *domain.ScheduleRequest){
		"odd team count":   func(req *domain.ScheduleRequest) { req.Teams = req.Teams[:3] },
		"single team":      func(req *domain.ScheduleRequest) { req.Teams = req.Teams[:1] },
		"missing strength": func(req *domain.ScheduleRequest) { req.TeamStrengths = map[string]float64{"A": 1, "B": 1, "C": 1} },
		"empty venues":     func(req *domain.ScheduleRequest) { req.Venues = nil },
		"no time slots":    func(req *domain.ScheduleRequest) { req.TimeSlots = nil },
		"duplicate team":   func(req *domain.ScheduleRequest) { req.Teams = []string{"A", "B", "A", "D"} },
	}

	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			req := fourTeamRequest(2)
			modify(req)

			_, err := New(testParameters(10, 5, 1), req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNew_InvalidParameters(t *testing.T) {
	p := testParameters(10, 5, 1)
	p.CrossoverRate = 1.5

	_, err := New(p, fourTeamRequest(1))
	require.ErrorIs(t, err, ErrInvalidParameters)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	p = testParameters(4, 5, 1)
	p.EliteCount = 4
	_, err = New(p, fourTeamRequest(1))
	require.ErrorIs(t, err, ErrInvalidParameters)
	assert.Contains(t, err.Error(), "精英数量")
}

func TestSchedule_DeterministicWithSeed(t *testing.T) {
	req := &domain.ScheduleRequest{
		Teams:     []string{"A", "B", "C", "D", "E", "F"},
		Venues:    []string{"V1", "V2", "V3"},
		TimeSlots: fourTeamRequest(5).TimeSlots,
		TeamStrengths: map[string]float64{
			"A": 1, "B": 2, "C": 4, "D": 7, "E": 8, "F": 10,
		},
	}

	s1, err := New(testParameters(30, 15, 2025), req)
	require.NoError(t, err)
	s2, err := New(testParameters(30, 15, 2025), req)
	require.NoError(t, err)

	r1 := s1.Schedule(context.Background())
	r2 := s2.Schedule(context.Background())

	assert.Equal(t, r1, r2)
	assert.Equal(t, int64(2025), s1.Seed())
	assert.Equal(t, s1.Seed(), r1.Seed)

	// 种子为 0 时由时间生成，实际使用的种子随结果返回，可以用来复现
	s3, err := New(testParameters(30, 15, 0), req)
	require.NoError(t, err)
	require.NotZero(t, s3.Seed())
	r3 := s3.Schedule(context.Background())
	assert.Equal(t, s3.Seed(), r3.Seed)

	s4, err := New(testParameters(30, 15, r3.Seed), req)
	require.NoError(t, err)
	assert.Equal(t, r3.Schedule, s4.Schedule(context.Background()).Schedule)
}

func TestSchedule_FourTeamScenarioConverges(t *testing.T) {
	converged := 0
	for seed := int64(1); seed <= 10; seed++ {
		s, err := New(testParameters(20, 10, seed), fourTeamRequest(1))
		require.NoError(t, err)

		res := s.Schedule(context.Background())

		require.Len(t, res.GenerationStats, 11)
		require.Len(t, res.Schedule, 1)
		assert.Equal(t, 10, res.Generations)
		assert.False(t, res.Partial)

		for i, st := range res.GenerationStats {
			assert.Equal(t, i, st.Generation)
			assert.LessOrEqual(t, st.Min, st.Avg)
		}
		// 最优个体取自最后一代种群
		assert.Equal(t, res.GenerationStats[10].Min, res.Fitness)

		if res.Fitness == 0 {
			assert.True(t, res.Feasible)
			converged++
		}
	}

	assert.GreaterOrEqual(t, converged, 6)
}

func TestSchedule_ElitismKeepsMinimumMonotonic(t *testing.T) {
	req := &domain.ScheduleRequest{
		Teams:     []string{"A", "B", "C", "D", "E", "F", "G", "H"},
		Venues:    []string{"V1", "V2", "V3", "V4"},
		TimeSlots: fourTeamRequest(6).TimeSlots,
		TeamStrengths: map[string]float64{
			"A": 1, "B": 2, "C": 3, "D": 5, "E": 6, "F": 8, "G": 9, "H": 10,
		},
	}
	p := testParameters(40, 30, 99)
	p.EliteCount = 2

	s, err := New(p, req)
	require.NoError(t, err)
	res := s.Schedule(context.Background())

	for i := 1; i < len(res.GenerationStats); i++ {
		assert.LessOrEqual(t, res.GenerationStats[i].Min, res.GenerationStats[i-1].Min)
	}
	assert.Equal(t, res.GenerationStats[len(res.GenerationStats)-1].Min, res.Fitness)
	for _, round := range res.Schedule {
		assert.Len(t, round, 4)
	}
}

func TestSchedule_CancelledContextReturnsPartial(t *testing.T) {
	s, err := New(testParameters(10, 50, 3), fourTeamRequest(3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Schedule(ctx)

	assert.True(t, res.Partial)
	assert.Equal(t, 0, res.Generations)
	assert.Len(t, res.GenerationStats, 1)
	assert.Len(t, res.Schedule, 3)
	assert.Equal(t, res.GenerationStats[0].Min, res.Fitness)
}

func TestCheckSchedule(t *testing.T) {
	res := CheckSchedule([][]domain.Fixture{
		{{Home: "A", Away: "C", Venue: "V1"}, {Home: "B", Away: "D", Venue: "V2"}},
	}, fourTeamStrengths)

	assert.True(t, res.Feasible)
	assert.Equal(t, 8.0, res.Fitness)
	assert.Empty(t, res.Violations)

	res = CheckSchedule([][]domain.Fixture{
		{{Home: "A", Away: "B", Venue: "V1"}, {Home: "C", Away: "D", Venue: "V1"}},
	}, fourTeamStrengths)

	assert.False(t, res.Feasible)
	assert.Equal(t, WorstFitness, res.Fitness)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, ViolationVenueConflict, res.Violations[0].Kind)
}
