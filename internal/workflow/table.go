package workflow

import (
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// parsedTable 解析后的Markdown表格
type parsedTable struct {
	header []string
	rows   [][]string
}

// separatorCellRe 匹配表头分隔行的单元格（---、:--:等）
var separatorCellRe = regexp.MustCompile(`^:?-+:?$`)

// parseTable 解析连续的 | 分隔行。
// 第一行视为表头，分隔行被丢弃；各行列数不要求一致。
func parseTable(lines []string) *parsedTable {
	t := &parsedTable{}
	for _, line := range lines {
		cells := splitRow(line)
		if len(cells) == 0 || isSeparatorRow(cells) {
			continue
		}
		for i, c := range cells {
			cells[i] = stripInline(c)
		}
		if t.header == nil {
			t.header = cells
			continue
		}
		t.rows = append(t.rows, cells)
	}
	return t
}

// splitRow 把一行表格拆成去掉首尾空白的单元格
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// isSeparatorRow 判断是否为表头分隔行
func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCellRe.MatchString(c) {
			return false
		}
	}
	return true
}

// renderASCII 渲染为固定列宽的ASCII表格，表头后带分隔行
func (t *parsedTable) renderASCII() []string {
	if t.header == nil {
		return nil
	}

	tw := table.NewWriter()
	tw.AppendHeader(toRow(t.header))
	for _, row := range t.rows {
		tw.AppendRow(toRow(row))
	}
	tw.SetStyle(table.StyleDefault)
	// 单元格原样输出，表头不做大小写转换
	tw.Style().Format.Header = text.FormatDefault

	return strings.Split(tw.Render(), "\n")
}

// renderBullets 把每个数据行渲染成一条"表头：单元格"列表项。
// 术语检索与校验小节的表格按列表展示比表格更易读。
func (t *parsedTable) renderBullets() []string {
	if t.header == nil || len(t.rows) == 0 {
		return nil
	}

	out := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		pairs := make([]string, 0, len(row))
		for i, cell := range row {
			if cell == "" {
				continue
			}
			if i < len(t.header) && t.header[i] != "" {
				pairs = append(pairs, t.header[i]+"："+cell)
			} else {
				pairs = append(pairs, cell)
			}
		}
		if len(pairs) > 0 {
			out = append(out, "• "+strings.Join(pairs, "，"))
		}
	}
	return out
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
