package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
)

var trendColors = map[domain.TrendLabel]*color.Color{
	domain.TrendHot:    color.New(color.FgRed, color.Bold),
	domain.TrendRising: color.New(color.FgYellow),
	domain.TrendSteady: color.New(color.FgGreen),
	domain.TrendQuiet:  color.New(color.Faint),
}

var momentumColors = map[domain.MomentumLabel]*color.Color{
	domain.MomentumAccelerating: color.New(color.FgGreen),
	domain.MomentumStable:       color.New(color.FgWhite),
	domain.MomentumSlowing:      color.New(color.FgRed),
}

var medalColors = map[domain.Medal]*color.Color{
	domain.MedalGold:   color.New(color.FgYellow, color.Bold),
	domain.MedalSilver: color.New(color.FgWhite, color.Bold),
	domain.MedalBronze: color.New(color.FgRed),
}

func rankCell(row domain.RankedRepository) string {
	if c, ok := medalColors[row.Medal]; ok {
		return c.Sprint(row.Label)
	}
	return row.Label
}

func trendCell(rec *domain.TrendRecord) string {
	if rec == nil {
		return "-"
	}
	label := string(rec.Trend)
	if rec.Estimated {
		label += "*"
	}
	if c, ok := trendColors[rec.Trend]; ok {
		return c.Sprint(label)
	}
	return label
}

func growthCell(rec *domain.TrendRecord, days int) string {
	w, ok := rec.Window(days)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("+%s (%s/mo)", humanize.Comma(int64(w.Stars)), humanize.Comma(int64(w.MonthlyRate)))
}

func momentumCell(rec *domain.TrendRecord) string {
	if rec == nil || rec.Momentum == nil {
		return "-"
	}
	text := fmt.Sprintf("%s %+d%%", rec.Momentum.Label, rec.Momentum.Percent)
	if c, ok := momentumColors[rec.Momentum.Label]; ok {
		return c.Sprint(text)
	}
	return text
}

func renderSummary(w io.Writer, username string, s *domain.Summary) {
	fmt.Fprintf(w, "\nStarred repositories of %s\n\n", username)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Repositories", humanize.Comma(int64(s.TotalRepos))})
	table.Append([]string{"Total Stars", humanize.Comma(int64(s.TotalStars))})
	table.Append([]string{"Average Stars", humanize.Comma(int64(s.AvgStars))})
	table.Append([]string{"Languages", fmt.Sprintf("%d", len(s.Languages))})
	table.Render()

	if len(s.TopLanguages) > 0 {
		fmt.Fprintln(w, "\nTop Languages")
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"Language", "Repositories"})
		for _, lc := range s.TopLanguages {
			table.Append([]string{lc.Language, fmt.Sprintf("%d", lc.Count)})
		}
		table.Render()
	}

	if len(s.TopTopics) > 0 {
		fmt.Fprintln(w, "\nTop Topics")
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"Topic", "Repositories", "Variations"})
		table.SetAutoWrapText(false)
		for _, t := range s.TopTopics {
			table.Append([]string{t.Key, fmt.Sprintf("%d", t.Count), strings.Join(t.Variations, ", ")})
		}
		table.Render()
	}
}

func renderRanked(w io.Writer, rows []domain.RankedRepository) {
	fmt.Fprintf(w, "\n%d repositories\n", len(rows))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Repository", "Stars", "Forks", "Language", "Updated", "Trend", "30 Days"})
	table.SetAutoWrapText(false)
	for _, row := range rows {
		r := row.Repository
		table.Append([]string{
			rankCell(row),
			r.FullName,
			humanize.Comma(int64(r.Stars)),
			humanize.Comma(int64(r.Forks)),
			r.Language,
			humanize.Time(r.UpdatedAt),
			trendCell(row.Trend),
			growthCell(row.Trend, 30),
		})
	}
	table.Render()
}

func renderBatch(w io.Writer, b *domain.TrendBatch) {
	fmt.Fprintf(w, "\nTrend batch %s (%s): %d computed, %d skipped, %d failed\n",
		b.ID, b.Strategy, len(b.Computed), len(b.Skipped), len(b.Failed))
}

func renderTrends(w io.Writer, rows []domain.RankedRepository) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Repository", "Stars", "Trend", "30 Days", "90 Days", "Momentum"})
	table.SetAutoWrapText(false)
	estimated := false
	for _, row := range rows {
		estimated = estimated || row.Trend.Estimated
		table.Append([]string{
			rankCell(row),
			row.Repository.FullName,
			humanize.Comma(int64(row.Repository.Stars)),
			trendCell(row.Trend),
			growthCell(row.Trend, 30),
			growthCell(row.Trend, 90),
			momentumCell(row.Trend),
		})
	}
	table.Render()
	if estimated {
		fmt.Fprintln(w, "* estimated from repository metadata")
	}
}

func renderNotices(w io.Writer, notices []session.Notice) {
	warn := color.New(color.FgYellow)
	for _, n := range notices {
		warn.Fprintf(w, "warning: %s\n", n.Message)
	}
}
