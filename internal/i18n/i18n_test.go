package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalogs(t *testing.T) {
	m, err := Load("pt")
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "es", "pt"}, m.Languages())
	assert.Equal(t, "Por favor, insira um valor válido", m.Translator("pt").T("errors.invalid_amount"))
	assert.Equal(t, "Please enter a valid amount", m.Translator("en").T("errors.invalid_amount"))
}

func TestTranslator_FallsBackToDefaultLanguage(t *testing.T) {
	m, err := Load("pt")
	require.NoError(t, err)

	es := m.Translator("es")
	assert.Equal(t, "es", es.Lang())
	assert.Equal(t, "Processando...", es.T("invest.processing"))
	assert.Equal(t, "missing.key", es.T("missing.key"))
	assert.Equal(t, "", es.T("  "))
}

func TestManager_Resolve(t *testing.T) {
	m, err := Load("pt")
	require.NoError(t, err)

	assert.Equal(t, "pt", m.Resolve("pt-BR"))
	assert.Equal(t, "en", m.Resolve("EN_us"))
	assert.Equal(t, "pt", m.Resolve("ja"))
	assert.Equal(t, "pt", m.Resolve(""))
	assert.True(t, m.Has("es"))
	assert.False(t, m.Has("zh"))
}

func TestTranslator_Format(t *testing.T) {
	m, err := Load("pt")
	require.NoError(t, err)

	msg := m.Translator("en").Format("errors.exceeds_available", map[string]string{"Available": "50"})
	assert.Equal(t, "Maximum available amount: $50", msg)
}

func TestRender_LeavesUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "a {{.X}} b", Render("a {{.X}} {{.Y}}", map[string]string{"Y": "b"}))
	assert.Equal(t, "plain", Render("plain", nil))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yml"), []byte("en:\n  greeting:\n    hello: \"Hi\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	assert.Equal(t, "Hi", m.Translator("en").T("greeting.hello"))

	_, err = LoadFromDir(dir, "pt")
	assert.Error(t, err)
}

func TestLoadFromDir_NoYAML(t *testing.T) {
	_, err := LoadFromDir(t.TempDir(), "pt")
	assert.Error(t, err)
}

func TestCatalogsShareKeys(t *testing.T) {
	m, err := Load("pt")
	require.NoError(t, err)

	for key := range m.translations["pt"] {
		_, ok := m.translations["en"][key]
		assert.True(t, ok, "en is missing %s", key)
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.Nil(t, m.Languages())
	assert.Equal(t, "k", m.Translator("pt").T("k"))
}
