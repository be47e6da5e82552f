package workflow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHeaders(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "一级标题",
			in:   "# 翻译工作流执行过程",
			want: "【翻译工作流执行过程】：",
		},
		{
			name: "深层标题同样转为括号形式",
			in:   "### 2.1. 术语拆解与提取",
			want: "【2.1. 术语拆解与提取】：",
		},
		{
			name: "没有空格的标题变体",
			in:   "##2.2 术语检索与校验",
			want: "【2.2 术语检索与校验】：",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.in))
		})
	}
}

func TestFormatListsAndQuotes(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"- economic operators：经济运营商",
		"* customs treatment：海关处理",
		"  - 缩进的子项",
		"1.第一步",
		"2. 第二步",
		"> 引用的法规条文",
	}, "\n")

	got := f.Format(in)

	assert.Contains(t, got, "• economic operators：经济运营商")
	assert.Contains(t, got, "• customs treatment：海关处理")
	assert.Contains(t, got, "  • 缩进的子项")
	assert.Contains(t, got, "1. 第一步")
	assert.Contains(t, got, "2. 第二步")
	assert.Contains(t, got, "『引用的法规条文』")
}

func TestFormatInlineMarkup(t *testing.T) {
	f := NewFormatter()

	in := "这里有**加粗**和*斜体*以及_下划线_，还有[链接文本](http://example.com)和![示意图](http://example.com/a.png)。"
	got := f.Format(in)

	assert.Equal(t, "这里有加粗和斜体以及下划线，还有链接文本和[图片:示意图]。", got)
}

func TestFormatCodeFenceAndRule(t *testing.T) {
	f := NewFormatter()

	in := "```python\nprint('hello')\n```\n\n---\n\n正文内容继续。"
	got := f.Format(in)

	assert.NotContains(t, got, "```")
	assert.Contains(t, got, "print('hello')")
	assert.Contains(t, got, hrLine)
	assert.Contains(t, got, "正文内容继续。")
}

func TestFormatFenceContentKeptVerbatim(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"```bash",
		"# 安装依赖",
		"- name: build",
		"| col | col |",
		"```",
		"",
		"## 7. 最终译文",
		"正文内容继续。",
	}, "\n")

	got := f.Format(in)

	// 围栏内的行不做任何行规则转换
	assert.Contains(t, got, "# 安装依赖")
	assert.Contains(t, got, "- name: build")
	assert.Contains(t, got, "| col | col |")
	assert.NotContains(t, got, "【安装依赖】")
	assert.NotContains(t, got, "• name: build")
	// 围栏外的内容照常处理
	assert.Contains(t, got, "【7. 最终译文】：")
	assert.NotContains(t, got, "```")
}

func TestFormatGenericTable(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"## 3. 初步译文生成",
		"| 序号 | 原文 | 译文 |",
		"| --- | --- | --- |",
		"| 1 | 报关单 | Customs Declaration Form |",
		"| 2 | 保税区 | Bonded Zone |",
	}, "\n")

	got := f.Format(in)

	// 普通表格渲染成带边框的ASCII表格
	assert.Contains(t, got, "+")
	assert.Contains(t, got, "| 序号")
	assert.Contains(t, got, "Customs Declaration Form")
	assert.Contains(t, got, "Bonded Zone")
	// 分隔行不会以 --- 原样残留
	assert.NotContains(t, got, "| ---")
}

func TestFormatTermSectionTable(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"### 2.2. 术语检索与校验",
		"| 术语 | 译文 | 来源 |",
		"| --- | --- | --- |",
		"| economic operators | 经济运营商 | 知识库A |",
		"| customs treatment | 海关处理 | 知识库B |",
	}, "\n")

	got := f.Format(in)

	// 术语校验小节的表格转成列表
	assert.Contains(t, got, "• 术语：economic operators，译文：经济运营商，来源：知识库A")
	assert.Contains(t, got, "• 术语：customs treatment，译文：海关处理，来源：知识库B")
	assert.NotContains(t, got, "| economic operators")
}

func TestFormatTermSectionNoSpaceHeader(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"##2.2 术语检索与校验",
		"| 术语 | 译文 |",
		"| --- | --- |",
		"| manifest | 舱单 |",
	}, "\n")

	got := f.Format(in)

	// 紧凑形式的小节标题同样让后续表格转成列表
	assert.Contains(t, got, "【2.2 术语检索与校验】：")
	assert.Contains(t, got, "• 术语：manifest，译文：舱单")
	assert.NotContains(t, got, "| manifest")
}

func TestFormatTermSectionEndsAtNextHeader(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"### 2.2. 术语检索与校验",
		"| 术语 | 译文 |",
		"| --- | --- |",
		"| manifest | 舱单 |",
		"## 3. 初步译文生成",
		"| 列A | 列B |",
		"| --- | --- |",
		"| x | y |",
	}, "\n")

	got := f.Format(in)

	assert.Contains(t, got, "• 术语：manifest，译文：舱单")
	// 下一个小节的表格恢复为ASCII表格
	assert.Contains(t, got, "| 列A")
}

func TestFormatNoResidualMarkers(t *testing.T) {
	f := NewFormatter()

	in := strings.Join([]string{
		"# 翻译工作流执行过程",
		"## 1. 原文拆解与专业术语提取",
		"这是**重要**的内容，带有__强调__。",
		"",
		"",
		"",
		"## 7. 最终译文",
		"The final translation text.",
	}, "\n")

	got := f.Format(in)

	// 格式化结果不应残留Markdown标记
	for _, line := range strings.Split(got, "\n") {
		assert.False(t, strings.HasPrefix(strings.TrimSpace(line), "#"), "残留标题标记: %q", line)
	}
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "__")
	// 连续空行压缩成一个
	assert.NotContains(t, got, "\n\n\n")
}

func TestFormatDoubledPunctuationCollapsed(t *testing.T) {
	f := NewFormatter()

	got := f.Format("## 标题：：\n内容")
	assert.Contains(t, got, "【标题】：")
	assert.NotContains(t, got, "：：")
	assert.NotContains(t, got, "【【")
}

func TestSuppressDuplicateHalf(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("第%d行内容保持不变", i))
	}
	in := strings.Join(append(append([]string{}, lines...), lines...), "\n")

	f := NewFormatter()
	got := f.Format(in)

	gotLines := strings.Split(got, "\n")
	require.Len(t, gotLines, 10)
	assert.Equal(t, "第1行内容保持不变", gotLines[0])
	assert.Equal(t, "第10行内容保持不变", gotLines[9])
}

func TestSuppressDuplicateHalfKeepsDistinctText(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("术语提取：economic operators 对应经济运营商 %d", i))
	}
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("润色结论与前文无关，译文已按海关公文规范调整完毕 %d", i))
	}

	f := NewFormatter()
	got := f.Format(strings.Join(lines, "\n"))

	assert.Len(t, strings.Split(got, "\n"), 20)
}

func TestSuppressDuplicateHalfShortTextUntouched(t *testing.T) {
	in := "第一行\n第二行\n第一行\n第二行"

	f := NewFormatter()
	got := f.Format(in)

	// 不超过10行的文本不做半段去重
	assert.Len(t, strings.Split(got, "\n"), 4)
}
