package prompt

import (
	"bytes"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Template 提示词模板，从外部文件加载的领域知识片段。
// 模板缺失时各片段为空串，提示词退化为内置版本。
type Template struct {
	// KnowledgeSection 知识库数据解析注意事项
	KnowledgeSection string
	// TranslationPrinciples 翻译原则
	TranslationPrinciples string
	// PolishPrinciples 润色原则
	PolishPrinciples string
}

// defaultTemplatePaths 模板文件的候选路径，按优先级排列
var defaultTemplatePaths = []string{
	"WVC/prompt",
	"prompt",
}

// LoadTemplate 从候选路径加载提示词模板。
// 找不到文件或解析失败时返回空模板，不报错。
func LoadTemplate(paths ...string) *Template {
	if len(paths) == 0 {
		paths = defaultTemplatePaths
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return ParseTemplate(decodeText(data))
	}

	return &Template{}
}

// ParseTemplate 从模板文本中提取各个片段。
// 每个片段从它的一级标题开始，到下一个 # 为止。
func ParseTemplate(text string) *Template {
	return &Template{
		KnowledgeSection:      extractSection(text, "# 知识库数据解析注意事项"),
		TranslationPrinciples: extractSection(text, "# 翻译原则："),
		PolishPrinciples:      extractSection(text, "# 润色原则："),
	}
}

// extractSection 提取从 marker 开始到下一个 # 之前的文本
func extractSection(text, marker string) string {
	start := strings.Index(text, marker)
	if start < 0 {
		return ""
	}

	end := strings.Index(text[start+1:], "#")
	if end < 0 {
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text[start : start+1+end])
}

// decodeText 把模板文件内容解码为UTF-8文本。
// 模板文件可能由Windows工具保存，需要处理BOM和GBK等常见编码。
func decodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:])
	}

	if utf8.Valid(data) {
		return string(data)
	}

	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder()
			res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data[2:]), dec))
			if err == nil && utf8.Valid(res) {
				return string(res)
			}
		} else if data[0] == 0xFE && data[1] == 0xFF {
			dec := xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM).NewDecoder()
			res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data[2:]), dec))
			if err == nil && utf8.Valid(res) {
				return string(res)
			}
		}
	}

	encodings := []encoding.Encoding{
		simplifiedchinese.GBK,
		simplifiedchinese.GB18030,
		traditionalchinese.Big5,
	}
	for _, enc := range encodings {
		res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err == nil && utf8.Valid(res) {
			return string(res)
		}
	}

	return string(data)
}
