package utils

import (
	"math"
	"math/rand"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
}

var cities = []string{
	"广州", "深圳", "珠海", "佛山", "东莞", "中山", "江门", "惠州",
	"汕头", "湛江", "肇庆", "韶关", "清远", "茂名", "梅州", "潮州",
}
var mascots = []string{
	"猛龙", "雄狮", "飞鹰", "烈火", "海豚", "猎豹", "战狼", "闪电",
	"巨人", "骑士", "先锋", "旋风",
}
var venueSuffixes = []string{"体育中心", "体育馆", "足球场", "训练基地", "奥体中心"}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

func GenerateRandomTeamName() string {
	return cities[rand.Intn(len(cities))] + mascots[rand.Intn(len(mascots))]
}

// GenerateTeamCode 由队名生成简称：中文取每个字拼音的首字母，其余字符保留字母和数字
// 例如 "广州猛龙" -> "GZML"，"FC 广州" -> "FCGZ"
func GenerateTeamCode(name string) string {
	var b strings.Builder

	for _, r := range name {
		switch {
		case unicode.Is(unicode.Han, r):
			py := pinyin.LazyConvert(string(r), nil)
			if len(py) > 0 && py[0] != "" {
				b.WriteString(strings.ToUpper(py[0][:1]))
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		}
	}

	return b.String()
}

func GenerateRandomTeam() *domain.Team {
	name := GenerateRandomTeamName()
	return &domain.Team{
		Name: name,
		Code: GenerateTeamCode(name),
		// 实力评分在 [1, 10] 之间，保留一位小数
		Strength: math.Round((1+rand.Float64()*9)*10) / 10,
	}
}

func GenerateRandomVenue() *domain.Venue {
	return &domain.Venue{
		Name: cities[rand.Intn(len(cities))] + venueSuffixes[rand.Intn(len(venueSuffixes))],
	}
}

func GenerateRandomReferee() *domain.Referee {
	return &domain.Referee{
		Name: GenerateRandomChineseName(),
	}
}
