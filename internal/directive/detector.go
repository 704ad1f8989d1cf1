// File: internal/directive/detector.go
// Package directive finds the URLs a challenge page asks the agent to act on.
package directive

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

// urlChars is the run of characters accepted inside a URL found in free text.
const urlChars = `[^\s'"<>]`

// Ordered submit patterns. The first one that matches decides the endpoint.
var submitPatterns = []struct {
	re       *regexp.Regexp
	group    int
	relative bool
}{
	{regexp.MustCompile(`(?i)https?://` + urlChars + `+/submit` + urlChars + `*`), 0, false},
	{regexp.MustCompile(`(?i)https?://` + urlChars + `+/(?:submit|post|answer)` + urlChars + `*`), 0, false},
	// A relative path not glued to a preceding letter, so "resubmit" does not count.
	{regexp.MustCompile(`(?i)(?:^|[^A-Za-z])(/submit` + urlChars + `*)`), 1, true},
	{regexp.MustCompile(`(?i)post\s+back\s+to\s+(/` + urlChars + `*)`), 1, true},
}

var (
	filePattern   = regexp.MustCompile(`(?i)https?://` + urlChars + `+\.(?:csv|pdf|xlsx|xls|json|wav|mp3)\b`)
	audioPattern  = regexp.MustCompile(`(?i)https?://` + urlChars + `+\.(?:mp3|wav|m4a|ogg)\b`)
	scrapePattern = regexp.MustCompile(`(?i)scrape\s+(/` + urlChars + `+)`)
)

// Detect scans the preformatted text followed by the body text for the four directive
// types. It has no side effects; identical inputs give identical results.
func Detect(body, pre, currentURL string) schemas.DirectiveSet {
	content := pre + "\n" + body
	return schemas.DirectiveSet{
		SubmitURL: detectSubmit(content, currentURL),
		FileURL:   trimTrailing(filePattern.FindString(content)),
		ScrapeURL: detectScrape(content, currentURL),
		AudioURL:  trimTrailing(audioPattern.FindString(content)),
	}
}

// DetectSnapshot is Detect applied to a captured page.
func DetectSnapshot(snap schemas.PageSnapshot) schemas.DirectiveSet {
	return Detect(snap.BodyText, snap.PreformattedText, snap.URL)
}

func detectSubmit(content, currentURL string) string {
	for _, p := range submitPatterns {
		m := p.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		found := trimTrailing(m[p.group])
		if found == "" || (p.relative && found == "/") {
			continue
		}
		if p.relative {
			return Resolve(currentURL, found)
		}
		return found
	}
	return ""
}

func detectScrape(content, currentURL string) string {
	m := scrapePattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	path := trimTrailing(m[1])
	if path == "" {
		return ""
	}
	return Resolve(currentURL, path)
}

// trimTrailing drops sentence punctuation that the URL pattern swallowed.
func trimTrailing(s string) string {
	return strings.TrimRight(s, ".,;:)")
}

// Resolve joins ref against base the way a browser resolves a link.
// An unparsable base leaves ref untouched.
func Resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
