// internal/workers/assistant/format-context/formatter.go
package formatcontext

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"dashboard-assistant/internal/models"
	"dashboard-assistant/pkg/registry"
)

const (
	DefaultMaxRows        = 15
	DefaultMaxCellRunes   = 50
	DefaultInsightExcerpt = 500

	NoDataPlaceholder = "*데이터 없음*"
	ellipsis          = "..."
)

type Options struct {
	Brand          models.Brand
	MaxRows        int
	MaxCellRunes   int
	InsightExcerpt int
	Language       language.Tag
}

// Formatter renders fetched data into the bounded markdown document handed to
// the answer generator. Output depends only on the Input.
type Formatter struct {
	catalog *registry.Catalog
	opts    Options
}

func NewFormatter(catalog *registry.Catalog, opts Options) *Formatter {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.MaxCellRunes <= len(ellipsis) {
		opts.MaxCellRunes = DefaultMaxCellRunes
	}
	if opts.InsightExcerpt <= 0 {
		opts.InsightExcerpt = DefaultInsightExcerpt
	}
	if opts.Language == language.Und {
		opts.Language = language.Korean
	}
	if opts.Brand.Name == "" {
		opts.Brand.Name = "Brand"
	}
	return &Formatter{catalog: catalog, opts: opts}
}

type Input struct {
	Months      []string              `json:"months"`
	Sources     []string              `json:"requiredSources"`
	Results     []models.FetchResult  `json:"results"`
	Summaries   []models.SalesSummary `json:"salesSummaries"`
	Delta       *models.SalesDelta    `json:"delta,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt,omitempty"`
}

func (f *Formatter) Format(in Input) string {
	return f.Document(in).Render()
}

// Document builds the sections in fixed order: header, sales summary (multi-month
// only), insights, then one section per month.
func (f *Formatter) Document(in Input) models.ContextDocument {
	r := &renderer{
		Formatter: f,
		printer:   message.NewPrinter(f.opts.Language),
		cells:     indexResults(in.Results),
	}

	doc := models.ContextDocument{
		Months:  append([]string(nil), in.Months...),
		Sources: f.catalog.Order(loadedSources(in.Results)),
	}
	multi := len(in.Months) > 1
	doc.Sections = append(doc.Sections, r.header(in, multi))

	if !anyAvailable(in.Results) {
		doc.Sections = append(doc.Sections, noSourcesNotice(in))
		return doc
	}

	if multi {
		doc.Sections = append(doc.Sections, r.sales(in))
	}

	sources := f.catalog.Describe(in.Sources)
	if s, ok := r.insights(in, sources); ok {
		doc.Sections = append(doc.Sections, s)
	}
	for i, month := range in.Months {
		doc.Sections = append(doc.Sections, r.month(month, i == 0, multi, sources))
	}
	return doc
}

type cellKey struct {
	source string
	month  string
}

type renderer struct {
	*Formatter
	printer *message.Printer
	cells   map[cellKey]models.FetchResult
}

func indexResults(results []models.FetchResult) map[cellKey]models.FetchResult {
	out := make(map[cellKey]models.FetchResult, len(results))
	for _, r := range results {
		out[cellKey{r.SourceID, r.Month}] = r
	}
	return out
}

func loadedSources(results []models.FetchResult) []string {
	var ids []string
	for _, r := range results {
		if r.Available() {
			ids = append(ids, r.SourceID)
		}
	}
	return ids
}

func anyAvailable(results []models.FetchResult) bool {
	for _, r := range results {
		if r.Available() {
			return true
		}
	}
	return false
}

func (r *renderer) header(in Input, multi bool) models.Section {
	var b strings.Builder
	fmt.Fprintf(&b, "# 📊 %s 마케팅 데이터 (%s)\n", r.opts.Brand.Name, strings.Join(in.Months, ", "))
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "*생성 시각: %s*\n", in.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if multi {
		b.WriteString("\n## 🔄 월별 비교 분석 모드\n")
		fmt.Fprintf(&b, "**로드된 월**: %s\n", strings.Join(in.Months, " → "))
		b.WriteString("**비교 가능**: 전월 대비 증감률, 트렌드 분석, 월별 성장 패턴\n")
	}
	return models.Section{Kind: models.SectionHeader, Title: r.opts.Brand.Name, Body: b.String()}
}

func noSourcesNotice(in Input) models.Section {
	var b strings.Builder
	b.WriteString("## ⚠️ 불러온 데이터 없음\n")
	fmt.Fprintf(&b, "요청한 %d개 데이터 소스를 %d개월 모두 불러오지 못했습니다. 데이터 기반 답변이 불가능합니다.\n",
		len(in.Sources), len(in.Months))
	return models.Section{Kind: models.SectionNotice, Title: "no sources available", Body: b.String()}
}

func (r *renderer) sales(in Input) models.Section {
	var b strings.Builder
	fmt.Fprintf(&b, "## 📊 판매 집계 요약 (%s 제품)\n\n", r.opts.Brand.Name)

	if len(in.Summaries) == 0 {
		b.WriteString("*판매 데이터 없음*\n")
		return models.Section{Kind: models.SectionSales, Title: "판매 집계 요약", Body: b.String()}
	}

	for _, s := range in.Summaries {
		fmt.Fprintf(&b, "### %s\n", s.Month)
		fmt.Fprintf(&b, "**총 판매량**: %s대\n", r.integer(s.Total))
		for _, p := range s.Products {
			fmt.Fprintf(&b, "- %s: %s대\n", p.Name, r.integer(p.Sales))
		}
		b.WriteString("\n")
	}

	if d := in.Delta; d != nil {
		b.WriteString("### 📈 전월 대비 증감\n")
		direction := "증가"
		if d.ChangeAbs < 0 {
			direction = "감소"
		} else if d.ChangeAbs == 0 {
			direction = "변동 없음"
		}
		fmt.Fprintf(&b, "**총 판매**: %s대 → %s대 (%s %s대, %s)\n",
			r.integer(d.Previous), r.integer(d.Current), direction, r.integer(abs(d.ChangeAbs)), r.percent(d.ChangePct))

		if len(d.Products) > 0 {
			b.WriteString("\n**제품별 증감:**\n")
			for _, p := range d.Products {
				fmt.Fprintf(&b, "- %s: %s대 → %s대 (%s대, %s)\n",
					p.Name, r.integer(p.Previous), r.integer(p.Current), r.signed(p.ChangeAbs), r.percent(p.ChangePct))
			}
		}
	}
	return models.Section{Kind: models.SectionSales, Title: "판매 집계 요약", Body: b.String()}
}

func (r *renderer) insights(in Input, sources []models.DataSourceDescriptor) (models.Section, bool) {
	if len(in.Months) == 0 {
		return models.Section{}, false
	}
	current := in.Months[0]

	var b strings.Builder
	found := false
	for _, src := range sources {
		if !src.IsInsight() {
			continue
		}
		if !found {
			b.WriteString("## 🧠 심층 인사이트\n")
			found = true
		}
		fmt.Fprintf(&b, "\n### %s\n", src.Title)

		ip := r.cells[cellKey{src.ID, current}].Insight()
		if ip == nil {
			b.WriteString(NoDataPlaceholder + "\n")
			continue
		}
		if len(ip.Sections) == 0 {
			b.WriteString("*항목 없음*\n")
			continue
		}
		for _, s := range ip.Sections {
			body := excerpt(s.Body, r.opts.InsightExcerpt)
			if s.Title != "" {
				fmt.Fprintf(&b, "**%s**: %s\n", s.Title, body)
			} else {
				b.WriteString(body + "\n")
			}
		}
	}
	if !found {
		return models.Section{}, false
	}
	return models.Section{Kind: models.SectionInsights, Title: "심층 인사이트", Body: b.String()}, true
}

func (r *renderer) month(month string, current, multi bool, sources []models.DataSourceDescriptor) models.Section {
	var b strings.Builder
	if multi {
		suffix := ""
		if current {
			suffix = " (현재)"
		}
		fmt.Fprintf(&b, "## 📅 %s%s\n", month, suffix)
	}

	first := true
	for _, src := range sources {
		if src.IsInsight() {
			continue
		}
		if !first || multi {
			b.WriteString("\n")
		}
		first = false

		fmt.Fprintf(&b, "### %s\n", src.Title)
		tp := r.cells[cellKey{src.ID, month}].Tabular()
		if tp == nil {
			b.WriteString(NoDataPlaceholder + "\n")
			continue
		}
		b.WriteString(r.table(tp))
	}
	return models.Section{Kind: models.SectionMonth, Title: month, Body: b.String()}
}

// table shows the brand's rows when there are any, otherwise every row.
func (r *renderer) table(tp *models.TabularPayload) string {
	rows := r.opts.Brand.Filter(tp.Rows)
	if len(rows) == 0 {
		rows = tp.Rows
	}
	if len(rows) == 0 {
		return "*항목 없음*\n"
	}

	headers := rows[0].Keys()
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeAll(headers), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")

	shown := rows
	if len(shown) > r.opts.MaxRows {
		shown = shown[:r.opts.MaxRows]
	}
	values := make([]string, len(headers))
	for _, row := range shown {
		for i, h := range headers {
			v, _ := row.Get(h)
			values[i] = r.cell(v)
		}
		b.WriteString("| " + strings.Join(values, " | ") + " |\n")
	}

	if omitted := len(rows) - len(shown); omitted > 0 {
		fmt.Fprintf(&b, "\n*외 %d개 항목 생략*\n", omitted)
	}
	return b.String()
}

func (r *renderer) cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return r.integer(i)
		}
		if f, err := t.Float64(); err == nil {
			return r.decimal(f)
		}
		return r.text(t.String())
	case float64:
		return r.decimal(t)
	case int:
		return r.integer(int64(t))
	case int64:
		return r.integer(t)
	case string:
		return r.text(t)
	case bool:
		return fmt.Sprint(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return r.text(fmt.Sprint(t))
		}
		return r.text(string(raw))
	}
}

func (r *renderer) text(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return escape(truncate(s, r.opts.MaxCellRunes))
}

func (r *renderer) integer(v int64) string {
	return r.printer.Sprint(number.Decimal(v))
}

func (r *renderer) decimal(v float64) string {
	return r.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func (r *renderer) signed(v int64) string {
	if v > 0 {
		return "+" + r.integer(v)
	}
	return r.integer(v)
}

func (r *renderer) percent(p *float64) string {
	if p == nil {
		return "N/A"
	}
	s := r.printer.Sprint(number.Decimal(*p, number.MinFractionDigits(1), number.MaxFractionDigits(1))) + "%"
	if *p > 0 {
		return "+" + s
	}
	return s
}

// truncate keeps s within limit runes, replacing the tail with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + ellipsis
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = escape(s)
	}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// InvalidMonth is the document returned when the requested month cannot be parsed.
func (f *Formatter) InvalidMonth(month string) models.ContextDocument {
	var b strings.Builder
	b.WriteString("## ⚠️ 잘못된 월 형식\n")
	fmt.Fprintf(&b, "요청한 월 %q 은(는) YYYY-MM 형식이 아닙니다. 데이터를 불러오지 않았습니다.\n", month)
	return models.ContextDocument{
		Months:  []string{},
		Sources: []string{},
		Sections: []models.Section{
			{Kind: models.SectionHeader, Title: f.opts.Brand.Name, Body: fmt.Sprintf("# 📊 %s 마케팅 데이터\n", f.opts.Brand.Name)},
			{Kind: models.SectionNotice, Title: "invalid month", Body: b.String()},
		},
	}
}

// Unrendered replaces a document whose rendering failed. Only the header and a
// notice listing the loaded sources survive.
func (f *Formatter) Unrendered(months, loaded []string) models.ContextDocument {
	r := &renderer{Formatter: f, printer: message.NewPrinter(f.opts.Language)}
	header := r.header(Input{Months: months}, false)

	var b strings.Builder
	b.WriteString("## ⚠️ 문서 생성 실패\n")
	if len(loaded) > 0 {
		fmt.Fprintf(&b, "불러온 소스: %s\n", strings.Join(loaded, ", "))
	} else {
		b.WriteString("불러온 소스 없음\n")
	}
	return models.ContextDocument{
		Months:   append([]string(nil), months...),
		Sections: []models.Section{header, {Kind: models.SectionNotice, Title: "render failed", Body: b.String()}},
		Sources:  f.catalog.Order(loaded),
	}
}
