package registry

import "dashboard-assistant/internal/models"

const DefaultCatalogVersion = "2025.10"

// DefaultBaseline is loaded for every question.
var DefaultBaseline = []string{"sale", "blog_rank", "cafe_rank", "news_rank"}

func tabular(id, group, title string) models.DataSourceDescriptor {
	return models.DataSourceDescriptor{ID: id, Kind: models.SourceKindTabular, Group: group, Title: title}
}

func insight(id, title string) models.DataSourceDescriptor {
	return models.DataSourceDescriptor{ID: id, Kind: models.SourceKindInsight, Group: "insights", Title: title}
}

// withPath sets the dashboard file name when it differs from the id.
func withPath(d models.DataSourceDescriptor, path string) models.DataSourceDescriptor {
	d.Path = path
	return d
}

func defaultSources() []models.DataSourceDescriptor {
	return []models.DataSourceDescriptor{
		tabular("sale", "sales", "판매 현황"),
		tabular("blog_rank", "blog", "블로그 순위"),
		tabular("cafe_rank", "cafe", "카페 순위"),
		tabular("news_rank", "news", "뉴스 순위"),
		tabular("youtube_rank", "youtube", "YouTube 순위"),
		tabular("blog_author", "blog", "블로그 작성자 분석"),
		tabular("blog_participation", "blog", "블로그 참여도"),
		tabular("blog_comparison", "blog", "블로그 비교 분석"),
		tabular("cafe_post", "cafe", "카페 게시글"),
		tabular("cafe_author", "cafe", "카페 작성자 분석"),
		tabular("cafe_participation", "cafe", "카페 참여도"),
		tabular("news_post", "news", "뉴스 기사"),
		tabular("youtube_post", "youtube", "YouTube 게시물"),
		tabular("youtube_channel_subs", "youtube", "YouTube 채널 구독자"),
		tabular("youtube_efficiency", "youtube", "YouTube 판매 효율성"),
		tabular("youtube_video_type", "youtube", "YouTube 영상 유형"),
		tabular("outdoor_ad", "ads", "옥외광고(OTT) 현황"),
		tabular("targeting_ad", "ads", "타겟팅 광고"),
		tabular("traffic", "traffic", "트래픽 현황"),
		withPath(tabular("naver_datalab", "traffic", "네이버 데이터랩 검색 추이"), "naver datalab"),
		tabular("facebook_targeting", "ads", "페이스북 타겟팅"),
		insight("llm_insights", "채널별 인사이트"),
		insight("organic_viral", "Organic/Managed 분석"),
	}
}

// DefaultCatalog returns the built-in catalog of marketing sources.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultCatalogVersion, defaultSources(), DefaultBaseline)
	if err != nil {
		panic(err)
	}
	return c
}
