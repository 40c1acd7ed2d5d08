package scheduler

import "fmt"

const (
	ViolationTeamDoubleBooked = "team_double_booked"
	ViolationVenueConflict    = "venue_conflict"
	ViolationDuplicateFixture = "duplicate_fixture"
)

type Violation struct {
	Round   int
	Kind    string
	Subject string
}

func (v Violation) String() string {
	return fmt.Sprintf("第 %d 轮: %s (%s)", v.Round, v.Kind, v.Subject)
}

// CheckFeasibility 检查赛程的硬约束，返回所有违规项
//
// 每一轮即一个时间段，因此每一轮内：
//  1. 球队集合的大小必须恰好是比赛数的两倍（没有球队重复出场）
//  2. 每场比赛的场地互不相同
func CheckFeasibility(s Schedule) []Violation {
	var violations []Violation

	for r, round := range s {
		teams := make(map[string]struct{}, 2*len(round))
		reported := make(map[string]bool)
		for _, m := range round {
			for _, team := range [2]string{m.Home, m.Away} {
				if _, exists := teams[team]; exists && !reported[team] {
					reported[team] = true
					violations = append(violations, Violation{Round: r, Kind: ViolationTeamDoubleBooked, Subject: team})
				}
				teams[team] = struct{}{}
			}
		}

		// 同一对球队在同一轮中出现两次（无论主客场是否互换）
		for i := 0; i < len(round); i++ {
			for j := i + 1; j < len(round); j++ {
				if sameFixture(round[i], round[j]) {
					violations = append(violations, Violation{
						Round:   r,
						Kind:    ViolationDuplicateFixture,
						Subject: round[i].Home + " vs " + round[i].Away,
					})
				}
			}
		}

		venues := make(map[string]int, len(round))
		for _, m := range round {
			venues[m.Venue]++
			if venues[m.Venue] == 2 {
				violations = append(violations, Violation{Round: r, Kind: ViolationVenueConflict, Subject: m.Venue})
			}
		}
	}

	return violations
}

func IsFeasible(s Schedule) bool {
	for _, round := range s {
		teams := make(map[string]struct{}, 2*len(round))
		venues := make(map[string]struct{}, len(round))
		for _, m := range round {
			teams[m.Home] = struct{}{}
			teams[m.Away] = struct{}{}
			venues[m.Venue] = struct{}{}
		}
		if len(teams) != 2*len(round) || len(venues) != len(round) {
			return false
		}
	}
	return true
}
