package handlers

import (
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/state"
)

const defaultPageSize = 5

// Tokens renders the paginated offering list.
type Tokens struct {
	catalog  Catalog
	fsm      state.StateMachine
	kb       *keyboard.Builder
	pageSize int
	log      *slog.Logger
}

func NewTokens(catalog Catalog, fsm state.StateMachine, kb *keyboard.Builder, pageSize int, log *slog.Logger) *Tokens {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if log == nil {
		log = slog.Default()
	}
	if kb == nil {
		kb = keyboard.NewBuilder(log)
	}

	return &Tokens{catalog: catalog, fsm: fsm, kb: kb, pageSize: pageSize, log: log}
}

// Command handles /tokens by sending the first page.
func (h *Tokens) Command() Handler {
	return func(c telebot.Context) error {
		text, markup, err := h.render(c, 1)
		if err != nil {
			return err
		}
		return c.Send(text, markup)
	}
}

// Page handles the pagination buttons by editing the list in place.
func (h *Tokens) Page() CallbackHandler {
	return func(c telebot.Context) error {
		page := 1
		if cb := c.Callback(); cb != nil {
			if _, data, err := keyboard.DecodeCallback(cb.Data); err == nil {
				if n, convErr := strconv.Atoi(data); convErr == nil {
					page = n
				}
			}
		}

		text, markup, err := h.render(c, page)
		if err != nil {
			return err
		}

		if err := respondCallback(c, "", false); err != nil {
			h.log.WarnContext(RequestContext(c), "failed to answer pagination callback", slog.Any("error", err))
		}

		return c.Edit(text, markup)
	}
}

func (h *Tokens) render(c telebot.Context, page int) (string, *telebot.ReplyMarkup, error) {
	ctx := RequestContext(c)
	t := Translator(c)

	offerings, err := h.catalog.Offerings(ctx)
	if err != nil {
		return "", nil, err
	}

	if userID, ok := senderID(c); ok && h.fsm != nil {
		if err := h.fsm.TransitionTo(ctx, userID, state.StateSelectingOffering, nil); err != nil {
			h.log.WarnContext(ctx, "failed to move dialog to offering selection", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	if len(offerings) == 0 {
		return t.T("tokens.empty"), nil, nil
	}

	totalPages := keyboard.TotalPages(len(offerings), h.pageSize)
	page = keyboard.ClampPage(page, totalPages)

	start := (page - 1) * h.pageSize
	end := start + h.pageSize
	if end > len(offerings) {
		end = len(offerings)
	}
	visible := offerings[start:end]

	var b strings.Builder
	b.WriteString(t.Format("tokens.header", map[string]string{
		"Page":  strconv.Itoa(page),
		"Total": strconv.Itoa(totalPages),
	}))
	for _, offering := range visible {
		b.WriteString("\n\n")
		b.WriteString(OfferingText(t, offering))
	}

	return b.String(), h.kb.Offerings(t, visible, page, totalPages), nil
}

// OfferingText renders a single offering card.
func OfferingText(t i18n.Translator, offering domain.Offering) string {
	return strings.TrimSpace(t.Format("tokens.item", map[string]string{
		"Symbol":      offering.Symbol,
		"Name":        offering.Name,
		"Price":       domain.FormatMoney(offering.Price),
		"Raised":      domain.FormatMoney(offering.Raised),
		"Goal":        domain.FormatMoney(offering.Goal),
		"Progress":    offering.Progress().StringFixed(1),
		"Description": offering.Description,
	}))
}
