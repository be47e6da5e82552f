package translator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryExactMatch(t *testing.T) {
	d := NewDictionary()

	// 所有内置词条的精确匹配都优先于子串替换
	for _, pair := range builtinTerms {
		r := d.Translate(pair.Zh, "zh", "en")
		assert.Equal(t, pair.En, r.Translation, "词条 %s", pair.Zh)
		assert.Contains(t, r.Explanation, "词典匹配")
		assert.Equal(t, "Enhanced-Dictionary", r.ModelUsed)
	}
}

func TestDictionaryExactMatchWithWhitespace(t *testing.T) {
	d := NewDictionary()

	r := d.Translate("  保税区  ", "zh", "en")
	assert.Equal(t, "Bonded Zone", r.Translation)
}

func TestDictionarySubstringReplacement(t *testing.T) {
	d := NewDictionary()

	r := d.Translate("请办理保税区的检验检疫手续", "zh", "en")
	assert.Contains(t, r.Translation, "Bonded Zone")
	assert.Contains(t, r.Translation, "Inspection and Quarantine")
	assert.Contains(t, r.Explanation, "词典匹配")
}

func TestDictionaryDeclaredOrderReplacement(t *testing.T) {
	d := NewDictionary()

	// "报关单"排在"报关"之前，长词条先被替换
	r := d.Translate("提交报关单", "zh", "en")
	assert.Equal(t, "提交Customs Declaration Form", r.Translation)
}

func TestDictionarySemanticFallback(t *testing.T) {
	d := NewDictionary()

	tests := []struct {
		text string
		want string
	}{
		{"这批东西的费用", "Fee"},
		{"商场目录", "Catalog"},
	}
	for _, tt := range tests {
		r := d.Translate(tt.text, "zh", "en")
		assert.Equal(t, tt.want, r.Translation)
		assert.Contains(t, r.Explanation, "基本语义翻译")
	}
}

func TestDictionaryCharGloss(t *testing.T) {
	d := NewDictionary()

	// 词典和语义规则都未命中时逐字组合
	r := d.Translate("港码", "zh", "en")
	assert.Equal(t, "Port Code", r.Translation)
	assert.Contains(t, r.Explanation, "基本语义翻译")
}

func TestDictionaryEnToZh(t *testing.T) {
	d := NewDictionary()

	exact := d.Translate("bonded zone", "en", "zh")
	assert.Equal(t, "保税区", exact.Translation)

	partial := d.Translate("apply for the Tariff now", "en", "zh")
	assert.Contains(t, partial.Translation, "关税")
}

func TestDictionaryUnknownDirectionUnchanged(t *testing.T) {
	d := NewDictionary()

	r := d.Translate("报关单", "ja", "ko")
	assert.Equal(t, "报关单", r.Translation)
	assert.Contains(t, r.Explanation, "基本语义翻译")
}

func TestDictionaryLoadGlossary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.yaml")
	content := "terms:\n  - zh: 滞报金\n    en: Late Declaration Fee\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDictionary()
	require.NoError(t, d.LoadGlossary(path))

	r := d.Translate("滞报金", "zh", "en")
	assert.Equal(t, "Late Declaration Fee", r.Translation)

	// 文件缺失静默跳过
	assert.NoError(t, d.LoadGlossary(filepath.Join(dir, "missing.yaml")))
}
