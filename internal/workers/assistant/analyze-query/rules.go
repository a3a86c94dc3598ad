// internal/workers/assistant/analyze-query/rules.go
package analyzequery

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dashboard-assistant/pkg/registry"
)

var ErrInvalidRuleTable = errors.New("INVALID_RULE_TABLE")

// Rule adds sources and/or a month count when any keyword is a substring of the
// lower-cased query. AlsoKeywords, when set, must match as well.
type Rule struct {
	Name         string   `yaml:"name" json:"name"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
	AlsoKeywords []string `yaml:"also_keywords,omitempty" json:"alsoKeywords,omitempty"`
	Sources      []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	AllSources   bool     `yaml:"all_sources,omitempty" json:"allSources,omitempty"`
	Months       int      `yaml:"months,omitempty" json:"months,omitempty"`
}

type RuleTable struct {
	Baseline []string `yaml:"baseline" json:"baseline"`
	Rules    []Rule   `yaml:"rules" json:"rules"`
}

// LoadRuleTable reads a YAML rule table and checks it against catalog.
func LoadRuleTable(path string, catalog *registry.Catalog) (RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleTable{}, fmt.Errorf("read rule table: %w", err)
	}
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return RuleTable{}, fmt.Errorf("%w: %v", ErrInvalidRuleTable, err)
	}
	if err := table.Validate(catalog); err != nil {
		return RuleTable{}, err
	}
	return table, nil
}

func (t RuleTable) Validate(catalog *registry.Catalog) error {
	for _, id := range t.Baseline {
		if !catalog.Contains(id) {
			return fmt.Errorf("%w: baseline source %q not in catalog", ErrInvalidRuleTable, id)
		}
	}
	for i, r := range t.Rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: rule %s has no keywords", ErrInvalidRuleTable, name)
		}
		if r.Months < 0 {
			return fmt.Errorf("%w: rule %s has negative months", ErrInvalidRuleTable, name)
		}
		for _, id := range r.Sources {
			if !catalog.Contains(id) {
				return fmt.Errorf("%w: rule %s references unknown source %q", ErrInvalidRuleTable, name, id)
			}
		}
	}
	return nil
}

// DefaultRuleTable is the compiled-in table used when no rules file is configured.
//
// Keywords match as plain substrings, so short latin keywords such as "ad" and
// "mom" also fire inside longer words ("read", "moment"). A false match only
// loads extra sources or months.
func DefaultRuleTable() RuleTable {
	youtube := []string{"유튜브", "youtube", "영상", "조회수", "채널"}
	return RuleTable{
		Baseline: append([]string(nil), registry.DefaultBaseline...),
		Rules: []Rule{
			{Name: "sales", Keywords: []string{"판매", "매출", "sale", "판매량", "수익"}, Sources: []string{"sale"}},
			{Name: "blog", Keywords: []string{"블로그", "blog", "작성자", "포스팅"},
				Sources: []string{"blog_rank", "blog_author", "blog_participation", "blog_comparison"}},
			{Name: "cafe", Keywords: []string{"카페", "cafe", "게시글", "댓글"},
				Sources: []string{"cafe_rank", "cafe_post", "cafe_author", "cafe_participation"}},
			{Name: "news", Keywords: []string{"뉴스", "news", "언론", "기사", "보도"},
				Sources: []string{"news_rank", "news_post"}},
			{Name: "youtube", Keywords: youtube,
				Sources: []string{"youtube_rank", "youtube_post", "youtube_channel_subs", "youtube_efficiency", "youtube_video_type"}},
			{Name: "ads", Keywords: []string{"광고", "ad", "타겟팅", "옥외", "ott", "페이스북"},
				Sources: []string{"outdoor_ad", "targeting_ad", "facebook_targeting"}},
			{Name: "traffic", Keywords: []string{"트래픽", "traffic", "검색", "네이버", "datalab"},
				Sources: []string{"traffic", "naver_datalab"}},
			{Name: "products", Keywords: []string{"쿨페이즈", "리프테라", "쿨소닉", "써마지", "인모드", "울쎄라", "슈링크"}, AllSources: true},
			{Name: "compare", Keywords: []string{"비교", "분석", "전체", "종합", "모든", "경쟁사", "vs", "대비"}, AllSources: true},
			{Name: "insights", Keywords: []string{"상관관계", "인사이트", "전략", "organic", "managed", "바이럴", "성장", "추천"},
				Sources: []string{"llm_insights", "organic_viral"}},
			{Name: "youtube_sales", Keywords: []string{"유튜브", "youtube"}, AlsoKeywords: []string{"판매", "상관관계", "효율", "연관"},
				Sources: []string{"youtube_efficiency", "llm_insights", "youtube_post", "sale"}},
			{Name: "change", Keywords: []string{"증감", "증가", "감소", "변화", "성장", "하락", "추이", "추세"}, Months: 2},
			{Name: "previous_month", Keywords: []string{"전월", "지난달", "이전 달", "mom", "month over month", "previous month"}, Months: 2},
			{Name: "trend", Keywords: []string{"트렌드", "패턴", "경향", "trend", "pattern"}, Months: 3},
			{Name: "last_3_months", Keywords: []string{"최근 3개월", "3개월", "분기", "last 3 months"}, Months: 3},
			{Name: "last_6_months", Keywords: []string{"최근 6개월", "6개월", "반기", "상반기", "하반기", "last 6 months"}, Months: 6},
		},
	}
}
