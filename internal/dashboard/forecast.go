package dashboard

import (
	"strings"
	"time"

	"github.com/advyta/dashboard/internal/model"
)

const (
	maxDailyEntries  = 5
	maxHourlyEntries = 4
)

// DailyForecast projects the 3-hour forecast list onto one entry per
// calendar day: the first slot of each day represents it. At most five days,
// in list order (the upstream list is chronological).
func DailyForecast(f model.Forecast) []model.ForecastEntry {
	var daily []model.ForecastEntry
	seen := make(map[string]bool)
	for _, entry := range f.List {
		day := time.Unix(entry.Dt, 0).UTC().Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		daily = append(daily, entry)
		if len(daily) == maxDailyEntries {
			break
		}
	}
	return daily
}

// HourlyForecast returns the next four 3-hour slots, i.e. roughly the next
// twelve hours.
func HourlyForecast(f model.Forecast) []model.ForecastEntry {
	if len(f.List) <= maxHourlyEntries {
		return f.List
	}
	return f.List[:maxHourlyEntries]
}

// DedupeArticles drops headlines whose normalized titles collide (syndicated
// copies of the same story) and caps the result at five. Normalization is
// lowercase with everything non-alphanumeric stripped; articles that
// normalize to nothing are kept as-is.
func DedupeArticles(articles []model.NewsArticle) []model.NewsArticle {
	out := make([]model.NewsArticle, 0, len(articles))
	seen := make(map[string]bool)
	for _, a := range articles {
		key := normalizeTitle(a.Title)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, a)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
