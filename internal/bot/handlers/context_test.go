package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/i18n"
)

type sentMessage struct {
	what interface{}
	opts []interface{}
}

func (m sentMessage) text() string {
	s, _ := m.what.(string)
	return s
}

func (m sentMessage) markup() *telebot.ReplyMarkup {
	for _, opt := range m.opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			return markup
		}
	}
	return nil
}

// fakeContext implements the parts of telebot.Context the handlers use. Calling any other method
// panics on the nil embedded interface.
type fakeContext struct {
	telebot.Context

	sender    *telebot.User
	text      string
	callback  *telebot.Callback
	values    map[string]interface{}
	sent      []sentMessage
	edited    []sentMessage
	responses []*telebot.CallbackResponse
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID, LanguageCode: "en"},
		text:   text,
		values: make(map[string]interface{}),
	}
}

func newCallbackContext(userID int64, data string) *fakeContext {
	c := newFakeContext(userID, "")
	c.callback = &telebot.Callback{ID: "cb-1", Data: data, Sender: c.sender}
	return c
}

func (c *fakeContext) Sender() *telebot.User       { return c.sender }
func (c *fakeContext) Text() string                { return c.text }
func (c *fakeContext) Callback() *telebot.Callback { return c.callback }
func (c *fakeContext) Message() *telebot.Message   { return nil }

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (c *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.edited = append(c.edited, sentMessage{what: what, opts: opts})
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *fakeContext) Get(key string) interface{} {
	return c.values[key]
}

func (c *fakeContext) Set(key string, val interface{}) {
	c.values[key] = val
}

func (c *fakeContext) lastSent(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, c.sent, "no message sent")
	return c.sent[len(c.sent)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalogs(t *testing.T) *i18n.Manager {
	t.Helper()

	manager, err := i18n.Load("en")
	require.NoError(t, err)
	return manager
}

func withTranslator(t *testing.T, c *fakeContext) *fakeContext {
	t.Helper()
	c.Set(KeyTranslator, testCatalogs(t).Translator("en"))
	return c
}
