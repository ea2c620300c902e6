package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/dmconsole/internal/domain"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "alice", "alice"},
		{"uppercase", "Alice", "alice"},
		{"at prefix", "@Foo.Bar", "foo.bar"},
		{"full url", "https://www.instagram.com/foo", "foo"},
		{"url trailing slash", "https://instagram.com/foo/", "foo"},
		{"bare domain prefix", "instagram.com/bar", "bar"},
		{"www only", "www.instagram.com/baz", "baz"},
		{"at after url", "https://instagram.com/@qux", "qux"},
		{"surrounding space", "  alice  ", "alice"},
		{"first token only", "alice the second", "alice"},
		{"empty", "", ""},
		{"only at", "@", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHandle(tt.raw))
		})
	}
}

func TestCleanField(t *testing.T) {
	assert.Equal(t, "hello world", cleanField("\"hello\nworld\""))
	assert.Equal(t, "abc", cleanField("  'abc'  "))
	assert.Equal(t, "a b", cleanField("a\r\nb"))
	assert.Equal(t, "", cleanField("  \"\"  "))
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"1", "x", "X", "true", "yes", "sim", "y", "s"} {
		assert.True(t, parseFlag(v), v)
	}
	for _, v := range []string{"", "0", "no", "nao", "false"} {
		assert.False(t, parseFlag(v), v)
	}
}

func TestTemplateKey(t *testing.T) {
	assert.Equal(t, "hi there#2", TemplateKey("  Hi   There ", 2))
	assert.Equal(t, TemplateKey("Hello", 1), TemplateKey("hello", 1))
	assert.NotEqual(t, TemplateKey("hello", 1), TemplateKey("hello", 2))
}

func TestNormalizeRowAccounts(t *testing.T) {
	spec := kindSpecs[domain.KindAccounts]
	cols, missing := resolveColumns(spec, []string{"Instagram", "Nome", "Bloco", "Cliente"})
	require.Empty(t, missing)

	cand, reason := normalizeRow(domain.KindAccounts, spec, cols, []string{"@Alice", "Alice", "3", "sim"}, 1)
	require.Equal(t, rejectNone, reason)
	assert.Equal(t, "alice", cand.Key)
	assert.Equal(t, "alice", cand.Fields["instagram_username"])
	assert.Equal(t, "Alice", cand.Fields["name"])
	assert.Equal(t, 3, cand.Fields["bloco"])
	assert.Equal(t, true, cand.Fields["customer"])
}

func TestNormalizeRowRejections(t *testing.T) {
	spec := kindSpecs[domain.KindAccounts]
	cols, missing := resolveColumns(spec, []string{"Instagram", "Nome"})
	require.Empty(t, missing)

	_, reason := normalizeRow(domain.KindAccounts, spec, cols, []string{"", "Alice"}, 1)
	assert.Equal(t, rejectMissingField, reason)

	_, reason = normalizeRow(domain.KindAccounts, spec, cols, []string{"@", "Alice"}, 1)
	assert.Equal(t, rejectEmptyIdentity, reason)
}

func TestNormalizeRowUnparsableNumeric(t *testing.T) {
	spec := kindSpecs[domain.KindAccounts]
	cols, missing := resolveColumns(spec, []string{"Instagram", "Nome", "Bloco"})
	require.Empty(t, missing)

	cand, reason := normalizeRow(domain.KindAccounts, spec, cols, []string{"alice", "Alice", "abc"}, 1)
	require.Equal(t, rejectNone, reason)
	_, present := cand.Fields["bloco"]
	assert.False(t, present)
}

func TestNormalizeRowTemplateOrderFallback(t *testing.T) {
	spec := kindSpecs[domain.KindTemplates]
	cols, missing := resolveColumns(spec, []string{"Frase"})
	require.Empty(t, missing)

	cand, reason := normalizeRow(domain.KindTemplates, spec, cols, []string{"Hello there"}, 7)
	require.Equal(t, rejectNone, reason)
	assert.Equal(t, 7, cand.Fields["order"])
	assert.Equal(t, TemplateKey("Hello there", 7), cand.Key)
}

func TestNormalizeRowShortRow(t *testing.T) {
	spec := kindSpecs[domain.KindAccounts]
	cols, missing := resolveColumns(spec, []string{"Instagram", "Nome", "Bloco", "Cliente"})
	require.Empty(t, missing)

	cand, reason := normalizeRow(domain.KindAccounts, spec, cols, []string{"alice"}, 1)
	require.Equal(t, rejectNone, reason)
	assert.Equal(t, "alice", cand.Key)
	_, present := cand.Fields["name"]
	assert.False(t, present)
}
