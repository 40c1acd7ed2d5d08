package utils

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

// TimeSlotLayout 是请求中时间段的格式
const TimeSlotLayout = "2006-01-02T15:04"

// ParseTimeSlots 解析时间段，时间段必须严格按时间先后排列
func ParseTimeSlots(slots []string) ([]time.Time, error) {
	out := make([]time.Time, len(slots))

	for i, slot := range slots {
		t, err := time.Parse(TimeSlotLayout, slot)
		if err != nil {
			return nil, fmt.Errorf("时间段 %d 的格式错误，应为 YYYY-MM-DDTHH:MM", i)
		}
		if i > 0 && !t.After(out[i-1]) {
			return nil, fmt.Errorf("时间段 %d 必须晚于时间段 %d", i, i-1)
		}
		out[i] = t
	}

	return out, nil
}

// ValidateFixturesWithStrengths 检查待诊断赛程中出现的每支球队都有实力评分
func ValidateFixturesWithStrengths(rounds [][]domain.Fixture, strengths map[string]float64) error {
	for i, round := range rounds {
		for j, fixture := range round {
			for _, team := range []string{fixture.Home, fixture.Away} {
				if _, exists := strengths[team]; !exists {
					return fmt.Errorf("第 %d 轮第 %d 场比赛中的球队 %s 缺少实力评分", i, j, team)
				}
			}
		}
	}

	return nil
}

// BuildRosterRequest 由数据库中的联赛名单构建排班输入
func BuildRosterRequest(teams []*domain.Team, venues []*domain.Venue, referees []*domain.Referee, timeSlots []time.Time) *domain.ScheduleRequest {
	req := &domain.ScheduleRequest{
		Teams:         make([]string, 0, len(teams)),
		Venues:        make([]string, 0, len(venues)),
		TimeSlots:     timeSlots,
		Referees:      make([]string, 0, len(referees)),
		TeamStrengths: make(map[string]float64, len(teams)),
	}

	for _, team := range teams {
		req.Teams = append(req.Teams, team.Name)
		req.TeamStrengths[team.Name] = team.Strength
	}
	for _, venue := range venues {
		req.Venues = append(req.Venues, venue.Name)
	}
	for _, referee := range referees {
		req.Referees = append(req.Referees, referee.Name)
	}

	return req
}
