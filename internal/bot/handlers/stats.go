package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/i18n"
)

// NewStatsHandler answers /stats with the fundraising totals.
func NewStatsHandler(catalog Catalog) Handler {
	return func(c telebot.Context) error {
		stats, err := catalog.Stats(RequestContext(c))
		if err != nil {
			return err
		}
		return c.Send(StatsText(Translator(c), stats))
	}
}

// StatsText renders total raised, goal and progress.
func StatsText(t i18n.Translator, stats domain.Stats) string {
	return t.Format("stats.summary", map[string]string{
		"Raised":   domain.FormatMoney(stats.TotalRaised),
		"Goal":     domain.FormatMoney(stats.TotalGoal),
		"Progress": stats.ProgressPercent().StringFixed(1),
	})
}
