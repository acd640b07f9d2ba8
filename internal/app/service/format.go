package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// FormatSeconds renders a duration in seconds as h:mm:ss, with a day
// prefix for the really slow runs.
func FormatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func extractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

// titleCase turns a snake_case challenge type into a label ("speed_run"
// becomes "Speed Run").
func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
