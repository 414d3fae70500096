package crawler

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Ref identifies an internal resource discovered behind a hyperlink.
type Ref struct {
	ContentType string
	ItemID      any
}

type classifyRule struct {
	pattern     *regexp.Regexp
	contentType string
	numeric     bool
}

// Ordered; first match wins. The course-scoped file rule must precede the
// bare /files rule so the id capture lands on the file id in both shapes.
var classifyRules = []classifyRule{
	{regexp.MustCompile(`^/courses/\d+/pages/([^/]+)$`), TypePage, false},
	{regexp.MustCompile(`^/courses/\d+/assignments/(\d+)$`), TypeAssignment, true},
	{regexp.MustCompile(`^/courses/\d+/discussion_topics/(\d+)$`), TypeDiscussion, true},
	{regexp.MustCompile(`^/courses/\d+/quizzes/(\d+)$`), TypeQuiz, true},
	{regexp.MustCompile(`^/courses/\d+/files/(\d+)`), TypeFile, true},
	{regexp.MustCompile(`^/files/(\d+)`), TypeFile, true},
}

// Classify decides whether href points at a known internal resource of the
// platform rooted at baseURL. Absolute links to other hosts never match;
// callers treat those as external links when they are http(s).
func Classify(href, baseURL string) (Ref, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return Ref{}, false
	}

	u, err := url.Parse(href)
	if err != nil {
		return Ref{}, false
	}
	if u.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil || !strings.EqualFold(u.Host, base.Host) {
			return Ref{}, false
		}
	}

	p := u.EscapedPath()
	if p == "" {
		return Ref{}, false
	}
	p = path.Clean("/" + strings.TrimPrefix(p, "/"))

	for _, rule := range classifyRules {
		m := rule.pattern.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		if rule.numeric {
			id, ok := NumericID(m[1])
			if !ok {
				continue
			}
			return Ref{ContentType: rule.contentType, ItemID: id}, true
		}
		slug := m[1]
		if unescaped, err := url.PathUnescape(slug); err == nil {
			slug = unescaped
		}
		return Ref{ContentType: rule.contentType, ItemID: slug}, true
	}
	return Ref{}, false
}

// IsAbsoluteHTTP reports whether href is an absolute http or https URL.
func IsAbsoluteHTTP(href string) bool {
	href = strings.TrimSpace(strings.ToLower(href))
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}
