package classifier

import "regexp"

var urlPattern = regexp.MustCompile(
	`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*(),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+(?:[a-zA-Z0-9/])?`,
)

// ExtractURLs pulls literal URLs out of message text, independently of the
// model. Trailing sentence punctuation that the pattern swallows is stripped.
// Returns nil when nothing is found.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(matches))
	for _, u := range matches {
		for len(u) > 0 && trailingPunct(u[len(u)-1]) {
			u = u[:len(u)-1]
		}
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func trailingPunct(c byte) bool {
	switch c {
	case '.', ',', '!', '?', ')', ']':
		return true
	}
	return false
}

// MergeLink appends the model's link to the regex-extracted URL list unless
// an identical string is already present.
func MergeLink(urls []string, link string) []string {
	if link == "" {
		return urls
	}
	for _, u := range urls {
		if u == link {
			return urls
		}
	}
	return append(urls, link)
}
