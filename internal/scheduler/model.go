package scheduler

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput      = errors.New("无效的排班输入")
	ErrInvalidParameters = errors.New("无效的遗传算法参数")
)

// Match: 一场比赛（主队、客队、场地）
type Match struct {
	Home  string
	Away  string
	Venue string
}

// RoundSchedule: 某一轮中的所有比赛，同一支球队在一轮中至多出现一次
type RoundSchedule []Match

// Schedule: 整个赛程，长度（轮次数）在构造后不再改变
type Schedule []RoundSchedule

// Clone 深拷贝赛程，保证遗传算子产生的子代与父代不共享任何切片
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for i, round := range s {
		out[i] = make(RoundSchedule, len(round))
		copy(out[i], round)
	}
	return out
}

func (s Schedule) MatchCount() int {
	n := 0
	for _, round := range s {
		n += len(round)
	}
	return n
}

// Individual: 一个候选赛程以及缓存的适应度
type Individual struct {
	schedule Schedule
	fitness  float64
	valid    bool // 为 false 时 fitness 需要重新计算
}

func newIndividual(s Schedule) *Individual {
	return &Individual{schedule: s}
}

type GenerationStats struct {
	Generation int
	Min        float64
	Avg        float64
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int           // 种群大小
	MaxGenerations int           // 最大迭代次数
	CrossoverRate  float64       // 一对个体进行交叉的概率
	MutationRate   float64       // 个体进入变异算子的概率
	SwapRate       float64       // 变异算子内部交换两场比赛的概率
	VenueRate      float64       // 交换后重新抽取场地的概率
	TournamentSize int           // 锦标赛规模
	EliteCount     int           // 精英数量，默认不保留
	Seed           int64         // 随机种子，相同种子与输入得到相同结果
	Timeout        time.Duration // 整次运行的时间上限，0 表示不限制
	Workers        int           // 并行计算适应度的协程数，0 表示使用 CPU 核数
}

func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize: 100,
		MaxGenerations: 50,
		CrossoverRate:  0.7,
		MutationRate:   0.2,
		SwapRate:       0.2,
		VenueRate:      0.5,
		TournamentSize: 3,
		EliteCount:     0,
	}
}
