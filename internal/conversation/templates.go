package conversation

import (
	"regexp"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

const (
	templateMargin = 40.0
	templateGap    = 20.0
)

var (
	loginRe   = regexp.MustCompile(`(?i)\b(log\s*in|sign\s*in|login|signin)\b`)
	signupRe  = regexp.MustCompile(`(?i)\b(sign\s*up|signup|register|registration|create\s+account)\b`)
	contactRe = regexp.MustCompile(`(?i)\b(contact|feedback|support)\b`)
)

func text(label string, width, height, fontSize float64, weight string) model.Component {
	return model.Component{Type: model.ComponentText, Label: label, Width: width, Height: height,
		FontSize: fontSize, FontWeight: weight}
}

func input(label, placeholder string, width float64) model.Component {
	return model.Component{Type: model.ComponentInput, Label: label, Placeholder: placeholder, Width: width, Height: 40}
}

func button(label string, width float64, bg string) model.Component {
	return model.Component{Type: model.ComponentButton, Label: label, Width: width, Height: 40,
		BackgroundColor: bg, TextColor: "#FFFFFF"}
}

// stack 逐行排版：行内从左到右，行与行之间纵向堆叠
func stack(rows ...[]model.Component) []model.Component {
	var out []model.Component
	y := templateMargin
	for _, row := range rows {
		x := templateMargin
		rowHeight := 0.0
		for _, c := range row {
			c.X, c.Y = x, y
			x += c.Width + templateGap
			if c.Height > rowHeight {
				rowHeight = c.Height
			}
			out = append(out, c)
		}
		y += rowHeight + templateGap
	}
	return out
}

func row(cs ...model.Component) []model.Component { return cs }

const (
	blue  = "#3B82F6"
	green = "#22C55E"
	gray  = "#6B7280"
)

// FallbackWireframe 后端全部不可用时使用的确定性模板
func FallbackWireframe(prompt string) model.WireframeSpec {
	switch cat := DetectCategory(prompt); cat {
	case CategoryEcommerce:
		return model.WireframeSpec{Title: "E-commerce Homepage", Components: stack(
			row(text("Store", 160, 36, 24, "bold"), input("Search", "Search products", 320), button("Search", 100, blue)),
			row(text("Shop the latest arrivals", 480, 40, 28, "bold")),
			row(button("Shop Now", 140, blue)),
			row(text("Featured Categories", 300, 30, 20, "bold")),
			row(text("Product name  $29.99", 200, 30, 14, ""), text("Product name  $49.99", 200, 30, 14, ""), text("Product name  $19.99", 200, 30, 14, "")),
			row(button("Add to Cart", 200, blue), button("Add to Cart", 200, blue), button("Add to Cart", 200, blue)),
		)}
	case CategoryBlog:
		return model.WireframeSpec{Title: "Blog Homepage", Components: stack(
			row(text("Blog", 160, 36, 24, "bold"), input("Search", "Search posts", 280)),
			row(text("Featured Post Title", 480, 40, 28, "bold")),
			row(text("A short excerpt introducing the featured article.", 480, 48, 16, "")),
			row(button("Read More", 140, blue)),
			row(text("Recent Posts", 300, 30, 20, "bold")),
			row(input("Newsletter", "Your email", 280), button("Subscribe", 140, green)),
		)}
	case CategoryPortfolio:
		return model.WireframeSpec{Title: "Portfolio", Components: stack(
			row(text("Your Name", 240, 36, 24, "bold")),
			row(text("Designer and developer crafting clear digital products.", 480, 48, 16, "")),
			row(text("Selected Work", 300, 30, 20, "bold")),
			row(text("Project One", 200, 120, 14, ""), text("Project Two", 200, 120, 14, ""), text("Project Three", 200, 120, 14, "")),
			row(button("Contact Me", 160, blue)),
		)}
	case CategoryDashboard:
		return model.WireframeSpec{Title: "Dashboard", Components: stack(
			row(text("Dashboard", 240, 36, 24, "bold"), input("Date range", "Last 30 days", 200), button("Export", 120, gray)),
			row(text("Revenue  $12,400", 200, 80, 16, "bold"), text("Users  1,240", 200, 80, 16, "bold"), text("Conversion  3.2%", 200, 80, 16, "bold")),
			row(text("Traffic over time", 640, 200, 14, "")),
			row(text("Recent Activity", 300, 30, 20, "bold")),
			row(button("View All", 120, blue)),
		)}
	case CategoryLanding:
		return model.WireframeSpec{Title: "Landing Page", Components: stack(
			row(text("Launch faster with our product", 560, 48, 32, "bold")),
			row(text("One sentence that explains the value you deliver.", 480, 30, 16, "")),
			row(input("Email", "Enter your email", 280), button("Get Started", 160, blue)),
			row(text("Features", 300, 30, 20, "bold")),
			row(text("Fast", 200, 80, 14, ""), text("Secure", 200, 80, 14, ""), text("Simple", 200, 80, 14, "")),
			row(button("Start Free Trial", 180, blue)),
		)}
	case CategoryCorporate:
		return model.WireframeSpec{Title: "Company Homepage", Components: stack(
			row(text("Company", 200, 36, 24, "bold"), text("About  Services  Contact", 320, 30, 14, "")),
			row(text("Trusted solutions for growing businesses", 560, 48, 28, "bold")),
			row(button("Our Services", 160, blue), button("Contact Us", 160, gray)),
			row(text("What We Do", 300, 30, 20, "bold")),
			row(text("Consulting", 200, 80, 14, ""), text("Engineering", 200, 80, 14, ""), text("Support", 200, 80, 14, "")),
		)}
	default:
		return generalTemplate(prompt)
	}
}

func generalTemplate(prompt string) model.WireframeSpec {
	switch {
	case signupRe.MatchString(prompt):
		return model.WireframeSpec{Title: "Sign Up", Components: stack(
			row(text("Create your account", 320, 36, 24, "bold")),
			row(input("Full name", "Jane Doe", 320)),
			row(input("Email", "you@example.com", 320)),
			row(input("Password", "At least 8 characters", 320)),
			row(button("Sign Up", 320, blue)),
			row(text("Already have an account? Log in", 320, 24, 14, "")),
		)}
	case loginRe.MatchString(prompt):
		return model.WireframeSpec{Title: "Login", Components: stack(
			row(text("Welcome back", 320, 36, 24, "bold")),
			row(input("Email", "you@example.com", 320)),
			row(input("Password", "Password", 320)),
			row(button("Log In", 320, blue)),
			row(text("Forgot password?", 320, 24, 14, "")),
		)}
	case contactRe.MatchString(prompt):
		return model.WireframeSpec{Title: "Contact", Components: stack(
			row(text("Contact us", 320, 36, 24, "bold")),
			row(input("Name", "Your name", 320)),
			row(input("Email", "you@example.com", 320)),
			row(input("Message", "How can we help?", 320)),
			row(button("Send", 320, blue)),
		)}
	default:
		return model.WireframeSpec{Title: "Web Page", Components: stack(
			row(text("Page Title", 320, 36, 24, "bold")),
			row(text("Introductory text describing the page.", 480, 48, 16, "")),
			row(input("Input", "Type here", 320)),
			row(button("Submit", 160, blue)),
		)}
	}
}

// TitleFor 生成结果没有标题时使用的默认标题
func TitleFor(prompt string) string {
	return FallbackWireframe(prompt).Title
}
