package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"runtime"
	"slices"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

type Scheduler struct {
	parameters *Parameters
	teams      []string
	venues     []string
	timeSlots  []time.Time
	referees   []string // 仅接收，不参与排班
	strengths  map[string]float64
	seed       int64
	rng        *rand.Rand
}

// New 校验输入并创建排班器，输入不合法时返回包装了 ErrInvalidInput 的错误
// 排班器持有输入的副本，运行期间这些数据只读
func New(parameters *Parameters, req *domain.ScheduleRequest) (*Scheduler, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	seed := parameters.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Scheduler{
		parameters: parameters,
		teams:      slices.Clone(req.Teams),
		venues:     slices.Clone(req.Venues),
		timeSlots:  slices.Clone(req.TimeSlots),
		referees:   slices.Clone(req.Referees),
		strengths:  maps.Clone(req.TeamStrengths),
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// ValidateRequest 检查排班输入的前置条件
func ValidateRequest(req *domain.ScheduleRequest) error {
	if req == nil {
		return fmt.Errorf("%w: 请求为空", ErrInvalidInput)
	}
	if len(req.Teams) < 2 {
		return fmt.Errorf("%w: 至少需要 2 支球队", ErrInvalidInput)
	}
	if len(req.Teams)%2 != 0 {
		return fmt.Errorf("%w: 球队数量必须为偶数（当前为 %d）", ErrInvalidInput, len(req.Teams))
	}
	if len(req.Venues) == 0 {
		return fmt.Errorf("%w: 至少需要 1 个场地", ErrInvalidInput)
	}
	if len(req.TimeSlots) == 0 {
		return fmt.Errorf("%w: 至少需要 1 个时间段", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(req.Teams))
	for _, team := range req.Teams {
		if _, exists := seen[team]; exists {
			return fmt.Errorf("%w: 球队 %s 重复", ErrInvalidInput, team)
		}
		seen[team] = struct{}{}

		if _, exists := req.TeamStrengths[team]; !exists {
			return fmt.Errorf("%w: 缺少球队 %s 的实力评分", ErrInvalidInput, team)
		}
	}

	return nil
}

// Validate 检查参数取值，错误均包装了 ErrInvalidParameters
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: 参数为空", ErrInvalidParameters)
	}
	if p.PopulationSize < 2 {
		return fmt.Errorf("%w: 种群大小必须 >= 2（当前为 %d）", ErrInvalidParameters, p.PopulationSize)
	}
	if p.MaxGenerations < 0 {
		return fmt.Errorf("%w: 最大迭代次数必须 >= 0（当前为 %d）", ErrInvalidParameters, p.MaxGenerations)
	}
	if p.TournamentSize <= 0 {
		return fmt.Errorf("%w: 锦标赛规模必须 > 0（当前为 %d）", ErrInvalidParameters, p.TournamentSize)
	}
	if p.EliteCount < 0 || p.EliteCount >= p.PopulationSize {
		return fmt.Errorf("%w: 精英数量必须在 [0, 种群大小) 范围内（当前为 %d）", ErrInvalidParameters, p.EliteCount)
	}
	for name, rate := range map[string]float64{
		"交叉概率":   p.CrossoverRate,
		"变异概率":   p.MutationRate,
		"交换概率":   p.SwapRate,
		"场地变更概率": p.VenueRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: %s必须在 [0, 1] 范围内（当前为 %f）", ErrInvalidParameters, name, rate)
		}
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: 并行协程数必须 >= 0（当前为 %d）", ErrInvalidParameters, p.Workers)
	}
	return nil
}

func (s *Scheduler) Seed() int64 { return s.seed }

// Schedule 运行遗传算法并返回最优赛程
// 该方法不会失败：超时或 ctx 被取消时返回最后一个完整评估过的种群中的最优个体，并标记为 partial
func (s *Scheduler) Schedule(ctx context.Context) *domain.LeagueSchedule {
	start := time.Now()

	if s.parameters.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.parameters.Timeout)
		defer cancel()
	}

	// 生成初始种群
	pop := make([]*Individual, s.parameters.PopulationSize)
	for i := range pop {
		pop[i] = newIndividual(randomInitSchedule(s.teams, s.venues, len(s.timeSlots), s.rng))
	}
	s.evaluatePopulation(pop)
	stats := []GenerationStats{collectStats(0, pop)}

	// 迭代
	partial := false
	gen := 0
	for gen < s.parameters.MaxGenerations {
		if ctx.Err() != nil {
			partial = true
			break
		}

		next := s.breed(pop)
		s.evaluatePopulation(next)

		pop = next
		gen++
		stats = append(stats, collectStats(gen, pop))
	}

	best := bestIndividual(pop)

	slog.Info("排班完成",
		"generations", gen,
		"fitness", best.fitness,
		"partial", partial,
		"seed", s.seed,
		"duration", time.Since(start),
	)

	return s.toLeagueSchedule(best, stats, gen, partial)
}

// evaluatePopulation 并行计算所有适应度失效的个体
// 每个协程只写入自己负责的个体，共享的实力表在运行期间只读，因此不需要加锁
func (s *Scheduler) evaluatePopulation(pop []*Individual) {
	workers := s.parameters.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, ind := range pop {
		if ind.valid {
			continue
		}
		g.Go(func() error {
			ind.fitness = s.evaluateIndividual(ind.schedule)
			ind.valid = true
			return nil
		})
	}

	_ = g.Wait()
}

// evaluateIndividual 单个个体的评估出错时按不可行处理，不影响整次运行
func (s *Scheduler) evaluateIndividual(sch Schedule) (fitness float64) {
	defer func() {
		if err := recover(); err != nil {
			slog.Error("个体适应度计算失败", "error", err)
			fitness = WorstFitness
		}
	}()

	return Evaluate(sch, s.strengths)
}

// breed 选择、交叉、变异，产生下一代种群
// 个体一经评估便不再修改，算子总是生成新的赛程，因此未被改变的个体可以直接沿用
func (s *Scheduler) breed(pop []*Individual) []*Individual {
	size := s.parameters.PopulationSize
	next := make([]*Individual, 0, size)

	// 保留精英
	if s.parameters.EliteCount > 0 {
		sorted := slices.Clone(pop)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].fitness < sorted[j].fitness
		})
		next = append(next, sorted[:s.parameters.EliteCount]...)
	}

	// 锦标赛选择出繁殖池
	breedingPool := make([]*Individual, size-len(next))
	for i := range breedingPool {
		breedingPool[i] = selectByTournament(pop, s.parameters.TournamentSize, s.rng)
	}

	for i := 0; i < len(breedingPool); i += 2 {
		if i+1 == len(breedingPool) {
			next = append(next, s.maybeMutate(breedingPool[i]))
			break
		}

		c1, c2 := breedingPool[i], breedingPool[i+1]
		if s.rng.Float64() < s.parameters.CrossoverRate {
			s1, s2 := twoPointCrossover(c1.schedule, c2.schedule, s.rng)
			c1, c2 = newIndividual(s1), newIndividual(s2)
		}

		next = append(next, s.maybeMutate(c1), s.maybeMutate(c2))
	}

	return next
}

func (s *Scheduler) maybeMutate(ind *Individual) *Individual {
	if s.rng.Float64() >= s.parameters.MutationRate {
		return ind
	}
	return newIndividual(mutate(ind.schedule, s.venues, s.parameters.SwapRate, s.parameters.VenueRate, s.rng))
}

// collectStats 统计一代种群的最小值和平均值
func collectStats(gen int, pop []*Individual) GenerationStats {
	stats := GenerationStats{Generation: gen, Min: pop[0].fitness}
	avg := 0.0
	for i, ind := range pop {
		if ind.fitness < stats.Min {
			stats.Min = ind.fitness
		}
		// 增量计算平均值，避免多个 WorstFitness 相加溢出为 +Inf
		avg += (ind.fitness - avg) / float64(i+1)
	}
	stats.Avg = avg
	return stats
}

func bestIndividual(pop []*Individual) *Individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	return best
}

func (s *Scheduler) toLeagueSchedule(best *Individual, stats []GenerationStats, gens int, partial bool) *domain.LeagueSchedule {
	result := &domain.LeagueSchedule{
		Schedule:        make([][]domain.Fixture, len(best.schedule)),
		TimeSlots:       slices.Clone(s.timeSlots),
		Fitness:         best.fitness,
		Feasible:        IsFeasible(best.schedule),
		Partial:         partial,
		Seed:            s.seed,
		Generations:     gens,
		GenerationStats: make([]domain.GenerationStats, len(stats)),
	}

	for i, round := range best.schedule {
		result.Schedule[i] = make([]domain.Fixture, len(round))
		for j, m := range round {
			result.Schedule[i][j] = domain.Fixture{Home: m.Home, Away: m.Away, Venue: m.Venue}
		}
	}

	for i, st := range stats {
		result.GenerationStats[i] = domain.GenerationStats{Generation: st.Generation, Min: st.Min, Avg: st.Avg}
	}

	return result
}

// ScheduleFromFixtures 将外部传入的赛程转换为内部表示
func ScheduleFromFixtures(rounds [][]domain.Fixture) Schedule {
	s := make(Schedule, len(rounds))
	for i, round := range rounds {
		s[i] = make(RoundSchedule, len(round))
		for j, f := range round {
			s[i][j] = Match{Home: f.Home, Away: f.Away, Venue: f.Venue}
		}
	}
	return s
}

// CheckSchedule 对一个已有赛程给出可行性诊断和适应度
func CheckSchedule(rounds [][]domain.Fixture, strengths map[string]float64) *domain.ScheduleCheckResult {
	s := ScheduleFromFixtures(rounds)

	result := &domain.ScheduleCheckResult{
		Violations: make([]domain.Violation, 0),
	}
	for _, v := range CheckFeasibility(s) {
		result.Violations = append(result.Violations, domain.Violation{Round: v.Round, Kind: v.Kind, Subject: v.Subject})
	}
	result.Feasible = len(result.Violations) == 0
	result.Fitness = Evaluate(s, strengths)

	return result
}
