// Package workflow 处理远端应用按工作流格式返回的Markdown文本：
// 把它重排成适合直接展示的纯文本，并从中提取最终译文。
package workflow

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Formatter 工作流文本格式化器。
// 模型输出的Markdown往往不规范，这里按行做启发式重排，
// 不走AST解析，保证畸形输入也能得到可读结果。
type Formatter struct{}

// NewFormatter 创建格式化器
func NewFormatter() *Formatter {
	return &Formatter{}
}

// scanState 逐行扫描时的状态
type scanState struct {
	// inTermSection 当前是否处于术语检索与校验小节，
	// 该小节内的表格要转成列表而不是ASCII表格
	inTermSection bool
	// inFence 当前是否处于代码围栏内，围栏内的行原样保留
	inFence bool
}

var (
	// 标题的#后允许不带空格，模型常输出 ##2.2 这种紧凑形式
	headerRe     = regexp.MustCompile(`^(#+)\s*([^#\s].*)$`)
	bulletRe     = regexp.MustCompile(`^(\s*)[-*]\s+(.*)$`)
	orderedRe    = regexp.MustCompile(`^(\s*)(\d+)[.、)]\s*(.*)$`)
	blockquoteRe = regexp.MustCompile(`^\s*>\s?(.*)$`)
	fenceRe      = regexp.MustCompile("^\\s*(```|~~~)")
	hrRe         = regexp.MustCompile(`^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	tableLineRe  = regexp.MustCompile(`^\s*\|.*\|\s*$`)

	// termSectionRe 匹配2.2编号的小节标题
	termSectionRe = regexp.MustCompile(`^2\.2[.、]?\s*`)
)

// hrLine 水平线的固定替换形式
const hrLine = "————————————————————"

// lineRule 单行转换规则，按声明顺序逐条尝试
type lineRule struct {
	re *regexp.Regexp
	// handle 返回转换后的文本和是否保留该行
	handle func(m []string, st *scanState) (string, bool)
}

var lineRules = []lineRule{
	{
		re: headerRe,
		handle: func(m []string, st *scanState) (string, bool) {
			title := strings.TrimSpace(stripInline(m[2]))
			title = strings.TrimRight(title, "：:")
			st.inTermSection = isTermSectionTitle(title)
			// 标题统一转为【】形式，层级不保留
			return "【" + title + "】：", true
		},
	},
	{
		re: hrRe,
		handle: func(m []string, st *scanState) (string, bool) {
			return hrLine, true
		},
	},
	{
		re: blockquoteRe,
		handle: func(m []string, st *scanState) (string, bool) {
			return "『" + strings.TrimSpace(stripInline(m[1])) + "』", true
		},
	},
	{
		re: bulletRe,
		handle: func(m []string, st *scanState) (string, bool) {
			return m[1] + "• " + stripInline(m[2]), true
		},
	},
	{
		re: orderedRe,
		handle: func(m []string, st *scanState) (string, bool) {
			return m[1] + m[2] + ". " + stripInline(m[3]), true
		},
	},
}

// Format 把模型的原始工作流输出重排为可读文本
func (f *Formatter) Format(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var out []string
	st := &scanState{}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		// 围栏定界行丢弃，围栏内的内容不做任何转换
		if fenceRe.MatchString(line) {
			st.inFence = !st.inFence
			continue
		}
		if st.inFence {
			out = append(out, line)
			continue
		}

		// 表格整块消费，结合上下文决定渲染方式
		if tableLineRe.MatchString(line) {
			j := i
			for j < len(lines) && tableLineRe.MatchString(lines[j]) {
				j++
			}
			tbl := parseTable(lines[i:j])
			rendered := tbl.renderASCII()
			if st.inTermSection {
				rendered = tbl.renderBullets()
			}
			for _, r := range rendered {
				out = append(out, cleanupLine(r))
			}
			i = j - 1
			continue
		}

		handled := false
		for _, rule := range lineRules {
			if m := rule.re.FindStringSubmatch(line); m != nil {
				converted, keep := rule.handle(m, st)
				if keep {
					out = append(out, cleanupLine(converted))
				}
				handled = true
				break
			}
		}
		if !handled {
			out = append(out, cleanupLine(stripInline(line)))
		}
	}

	result := multiBlankRe.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
	result = suppressDuplicateHalf(result)
	return strings.TrimSpace(result)
}

// isTermSectionTitle 判断标题是否属于术语检索与校验小节
func isTermSectionTitle(title string) bool {
	if termSectionRe.MatchString(title) {
		return true
	}
	if strings.Contains(title, "术语检索与校验") {
		return true
	}
	return strings.Contains(strings.ToLower(title), "term verification")
}

var (
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	underlineRe  = regexp.MustCompile(`__([^_]+)__`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	underscoreRe = regexp.MustCompile(`_([^_]+)_`)
)

// stripInline 去掉行内Markdown标记，只留可见文本。
// 图片替换成带说明的占位符，其余标记直接剥掉。
func stripInline(line string) string {
	line = imageRe.ReplaceAllString(line, "[图片:$1]")
	line = linkRe.ReplaceAllString(line, "$1")
	line = boldRe.ReplaceAllString(line, "$1")
	line = underlineRe.ReplaceAllString(line, "$1")
	line = italicRe.ReplaceAllString(line, "$1")
	line = underscoreRe.ReplaceAllString(line, "$1")
	return line
}

var (
	multiBlankRe     = regexp.MustCompile(`\n{3,}`)
	residualHeaderRe = regexp.MustCompile(`^#+\s*`)
	numberedTitleRe  = regexp.MustCompile(`^(\d+\.\d+[.、]?\s+[^\n]+?)：?$`)
	doubleColonRe    = regexp.MustCompile(`：：+`)
	doubleBracketRe  = regexp.MustCompile(`【+([^【】]*)】+`)
)

// cleanupLine 单行的收尾清理。逐行应用而不是整体应用，
// 这样代码围栏内原样保留的行不会被误清理。
func cleanupLine(line string) string {
	// 残留的#标题标记直接剥掉
	line = residualHeaderRe.ReplaceAllString(line, "")
	// 裸露的 N.N 编号标题统一成【】形式
	line = numberedTitleRe.ReplaceAllString(line, "【$1】：")
	// 合并重复的全角冒号和括号
	line = doubleBracketRe.ReplaceAllString(line, "【$1】")
	line = doubleColonRe.ReplaceAllString(line, "：")
	return strings.TrimRight(line, " \t")
}

// suppressDuplicateHalf 去掉整体重复的后半段。
// 模型偶尔会把指令或结果原样复读一遍，当前后两半逐行相似度
// 足够高时只保留前半段。
func suppressDuplicateHalf(text string) string {
	lines := strings.Split(text, "\n")
	n := len(lines)
	if n <= 10 {
		return text
	}

	half := n / 2
	var total float64
	for i := 0; i < half; i++ {
		total += lineSimilarity(lines[i], lines[half+i])
	}

	if total/float64(half) > 0.7 {
		// 奇数行数时保留中间那一行
		return strings.Join(lines[:n-half], "\n")
	}
	return text
}

// lineSimilarity 计算两行的编辑距离相似度，1表示完全相同
func lineSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
