package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/utils"
)

// TeamCreator 由 *repository.Repository 实现
type TeamCreator interface {
	CreateTeam(team *domain.Team) error
}

// ParseTeamsCSV 读取球队名单，表头必须包含 name 和 strength 列，code 列可选
// code 为空时由队名的拼音生成
func ParseTeamsCSV(r io.Reader) ([]*domain.Team, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("文件为空")
		}
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}

	nameCol := slices.Index(headers, "name")
	strengthCol := slices.Index(headers, "strength")
	codeCol := slices.Index(headers, "code")
	if nameCol < 0 || strengthCol < 0 {
		return nil, errors.New("表头必须包含 name 和 strength 列")
	}

	teams := []*domain.Team{}
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		line++

		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			return nil, fmt.Errorf("第 %d 行缺少队名", line)
		}

		strength, err := strconv.ParseFloat(strings.TrimSpace(row[strengthCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行的实力评分无效: %s", line, row[strengthCol])
		}

		code := ""
		if codeCol >= 0 {
			code = strings.TrimSpace(row[codeCol])
		}
		if code == "" {
			code = utils.GenerateTeamCode(name)
		}

		teams = append(teams, &domain.Team{
			Name:     name,
			Code:     code,
			Strength: strength,
		})
	}

	return teams, nil
}

// SeedTeamsFromCSV 将文件中的球队插入数据库，返回成功插入的数量
// 单支球队插入失败（例如队名重复）只记录日志，不影响其他球队
func SeedTeamsFromCSV(r TeamCreator, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	teams, err := ParseTeamsCSV(file)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for _, team := range teams {
		if err := r.CreateTeam(team); err != nil {
			slog.Error("插入球队失败", "name", team.Name, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入球队完成", "count", cnt, "total", len(teams))
	return cnt, nil
}
