package conversation

import "regexp"

type Category string

const (
	CategoryEcommerce Category = "ecommerce"
	CategoryBlog      Category = "blog"
	CategoryPortfolio Category = "portfolio"
	CategoryDashboard Category = "dashboard"
	CategoryLanding   Category = "landing"
	CategoryCorporate Category = "corporate"
	CategoryGeneral   Category = "general"
)

// 按顺序匹配，先命中的优先
var categoryRules = []struct {
	category Category
	re       *regexp.Regexp
}{
	{CategoryEcommerce, regexp.MustCompile(`(?i)\b(e-?commerce|store|shop|shopping|cart|products?|checkout|storefront|marketplace|retail)\b`)},
	{CategoryDashboard, regexp.MustCompile(`(?i)\b(dashboard|analytics|admin|metrics|kpis?|reports?|monitoring)\b`)},
	{CategoryBlog, regexp.MustCompile(`(?i)\b(blog|articles?|posts?|magazine|news|journal)\b`)},
	{CategoryPortfolio, regexp.MustCompile(`(?i)\b(portfolio|showcase|gallery|resume|cv)\b`)},
	{CategoryLanding, regexp.MustCompile(`(?i)\b(landing|launch|waitlist|saas|startup|product\s+page)\b`)},
	{CategoryCorporate, regexp.MustCompile(`(?i)\b(corporate|company|business|agency|enterprise|firm|consulting)\b`)},
}

// DetectCategory 根据关键词判断站点类别
func DetectCategory(prompt string) Category {
	for _, r := range categoryRules {
		if r.re.MatchString(prompt) {
			return r.category
		}
	}
	return CategoryGeneral
}

var questionsByCategory = map[Category][]string{
	CategoryEcommerce: {
		"What kinds of products will the store sell?",
		"What color scheme fits your brand?",
		"Should the homepage highlight featured products, categories, or promotions?",
		"What is the main goal of the homepage: browsing, deals, or fast checkout?",
	},
	CategoryBlog: {
		"What topics will the blog cover?",
		"What color scheme fits the blog's tone?",
		"Is the main goal reading engagement or growing newsletter subscribers?",
	},
	CategoryPortfolio: {
		"What kind of work will the portfolio showcase?",
		"What color scheme reflects your personal brand?",
		"Is the main goal attracting clients or landing a job?",
	},
	CategoryDashboard: {
		"Which metrics matter most at a glance?",
		"Who are the primary users of this dashboard?",
		"What color scheme should the dashboard use?",
		"What is the main goal: monitoring, reporting, or taking action?",
	},
	CategoryLanding: {
		"What product or offer is the page promoting?",
		"What color scheme fits your brand?",
		"What is the main goal: sign-ups, purchases, or downloads?",
	},
	CategoryCorporate: {
		"What services or products does the company offer?",
		"What color scheme matches the brand guidelines?",
		"What is the main goal: generating leads, hiring, or building trust?",
	},
	CategoryGeneral: {
		"Who is the primary audience for this site?",
		"What color scheme would you like?",
		"What is the main goal of the page?",
	},
}

var suggestionsByCategory = map[Category][]string{
	CategoryEcommerce: {
		"Add a search bar to the header",
		"Add a featured products section",
		"Make the add-to-cart buttons more prominent",
		"Add a promotional banner",
		"Add customer reviews",
		"Add a newsletter signup in the footer",
	},
	CategoryBlog: {
		"Add a featured post at the top",
		"Add category filters",
		"Add an author bio section",
		"Add a newsletter signup",
		"Add a search bar",
		"Show related posts after each article",
	},
	CategoryPortfolio: {
		"Add a project grid",
		"Add an about me section",
		"Add client testimonials",
		"Add a contact form",
		"Add links to social profiles",
		"Make the hero heading larger",
	},
	CategoryDashboard: {
		"Add KPI summary cards",
		"Add a date range filter",
		"Add a recent activity table",
		"Add an export button",
		"Stack the charts vertically",
		"Add a notifications panel",
	},
	CategoryLanding: {
		"Add a hero call-to-action button",
		"Add a features section",
		"Add testimonials",
		"Add a pricing table",
		"Add an FAQ section",
		"Repeat the call-to-action at the bottom",
	},
	CategoryCorporate: {
		"Add a services overview",
		"Add a team section",
		"Add client logos",
		"Add a contact form",
		"Add a careers link",
		"Add company statistics",
	},
	CategoryGeneral: {
		"Change the button color",
		"Stack the components vertically",
		"Add a header",
		"Add a footer",
		"Add a contact form",
		"Make the title larger",
	},
}

// QuestionsFor 类别相关的追问（3 到 4 条）
func QuestionsFor(c Category) []string {
	qs, ok := questionsByCategory[c]
	if !ok {
		qs = questionsByCategory[CategoryGeneral]
	}
	return append([]string(nil), qs...)
}

// SuggestionsFor 类别相关的后续修改建议，固定 6 条
func SuggestionsFor(c Category) []string {
	ss, ok := suggestionsByCategory[c]
	if !ok {
		ss = suggestionsByCategory[CategoryGeneral]
	}
	return append([]string(nil), ss...)
}
