package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// minMarkerResultRunes 标记命中后结果的最小字符数，
// 太短说明该小节只有标题没有内容，继续尝试下一个标记
const minMarkerResultRunes = 5

// minFallbackResultBytes 段落兜底的最小字节数
const minFallbackResultBytes = 10

// finalMarkerPatterns 最终译文标记的匹配模式，按优先级排列。
// 截取范围到下一个Markdown标题或文本结尾为止，
// 这里需要前瞻断言，标准库的RE2不支持。
var finalMarkerPatterns = []*regexp2.Regexp{
	regexp2.MustCompile(`(?is)#+\s*7[.、]?\s*最终译文[：:]?\s*\n(.+?)(?=\n\s*#|\z)`, regexp2.None),
	regexp2.MustCompile(`(?is)最终译文[：:]\s*(.+?)(?=\n\s*#|\z)`, regexp2.None),
	regexp2.MustCompile(`(?is)最终翻译[：:]\s*(.+?)(?=\n\s*#|\z)`, regexp2.None),
	regexp2.MustCompile(`(?is)final\s+translation[：:]\s*(.+?)(?=\n\s*#|\z)`, regexp2.None),
	regexp2.MustCompile(`(?is)【\s*7?[.、]?\s*最终译文\s*】[：:]?\s*\n?(.+?)(?=\n\s*【|\z)`, regexp2.None),
}

// ExtractFinalTranslation 从未格式化的工作流文本中提取最终译文。
// 依次尝试各个标记模式，命中但内容过短时继续尝试下一个；
// 全部未命中时退化为取最后一个非空段落。找不到返回空串。
func ExtractFinalTranslation(fullText string) string {
	for _, re := range finalMarkerPatterns {
		m, err := re.FindStringMatch(fullText)
		if err != nil || m == nil {
			continue
		}
		result := strings.TrimSpace(m.GroupByNumber(1).String())
		if utf8.RuneCountInString(result) >= minMarkerResultRunes {
			return result
		}
	}

	return lastParagraph(fullText)
}

// lastParagraph 返回最后一个非空段落，太短时返回空串
func lastParagraph(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	for i := len(paragraphs) - 1; i >= 0; i-- {
		p := strings.TrimSpace(paragraphs[i])
		if p == "" {
			continue
		}
		if len(p) > minFallbackResultBytes {
			return p
		}
		return ""
	}
	return ""
}
