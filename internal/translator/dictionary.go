package translator

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// termPair 术语词条，Zh到En的对照
type termPair struct {
	Zh string
	En string
}

// builtinTerms 内置海关术语表。
// 用切片而不是map：子串替换按声明顺序执行，保证结果可复现。
// 词条之间存在共享字符时多次替换可能互相影响，这是已知限制。
var builtinTerms = []termPair{
	// 基础海关术语
	{"原产地证书", "Certificate of Origin"},
	{"海关申报", "Customs Declaration"},
	{"进出口", "Import and Export"},
	{"关税", "Tariff"},
	{"商品归类", "Goods Classification"},
	{"HS编码", "HS Code"},
	{"检验检疫", "Inspection and Quarantine"},
	{"保税区", "Bonded Zone"},
	{"报关单", "Customs Declaration Form"},
	{"完税证明", "Tax Payment Certificate"},

	// 扩展术语
	{"运费", "Freight"},
	{"价目", "Price List"},
	{"运费价目", "Freight Price List"},
	{"报关", "Customs Declaration"},
	{"清关", "Customs Clearance"},
	{"关税配额", "Tariff Quota"},
	{"免税", "Duty Free"},
	{"征税", "Taxation"},
	{"退税", "Tax Refund"},
	{"核销", "Verification and Write-off"},
	{"监管", "Supervision"},
	{"查验", "Inspection"},
	{"缉私", "Anti-smuggling"},
	{"走私", "Smuggling"},
	{"违规", "Violation"},
	{"处罚", "Penalty"},
	{"申报", "Declaration"},
	{"审核", "Review"},
	{"批准", "Approval"},
	{"许可证", "License"},
	{"配额", "Quota"},
	{"限制", "Restriction"},
	{"禁止", "Prohibition"},
	{"准入", "Market Access"},
	{"贸易", "Trade"},
	{"出口", "Export"},
	{"进口", "Import"},
	{"转口", "Re-export"},
	{"过境", "Transit"},
	{"仓储", "Warehousing"},
	{"物流", "Logistics"},
	{"承运人", "Carrier"},
	{"货代", "Freight Forwarder"},
	{"代理", "Agent"},
	{"委托", "Entrust"},
	{"货物", "Goods"},
	{"商品", "Commodity"},
	{"产品", "Product"},
	{"样品", "Sample"},
	{"展品", "Exhibition Goods"},
	{"包装", "Packaging"},
	{"标识", "Marking"},
	{"标签", "Label"},
	{"条码", "Barcode"},
	{"单证", "Documents"},
	{"发票", "Invoice"},
	{"装箱单", "Packing List"},
	{"提单", "Bill of Lading"},
	{"保险单", "Insurance Policy"},
	{"合同", "Contract"},
	{"订单", "Purchase Order"},
	{"汇率", "Exchange Rate"},
	{"外汇", "Foreign Exchange"},
	{"结汇", "Foreign Exchange Settlement"},
	{"付汇", "Foreign Exchange Payment"},
}

// charGloss 常见单字的英文释义，组合翻译兜底用
var charGloss = map[rune]string{
	'费': "fee",
	'价': "price",
	'目': "list",
	'单': "form",
	'证': "certificate",
	'书': "document",
	'关': "customs",
	'税': "tax",
	'货': "goods",
	'物': "cargo",
	'品': "product",
	'码': "code",
	'号': "number",
	'类': "category",
	'别': "classification",
	'级': "grade",
	'等': "class",
	'区': "zone",
	'港': "port",
	'站': "station",
	'场': "yard",
	'库': "warehouse",
	'仓': "storage",
}

// enToZhWords 英文到中文的基本词汇表，按声明顺序替换
var enToZhWords = []termPair{
	{"运费", "freight"},
	{"价格", "price"},
	{"清单", "list"},
	{"费率", "rate"},
	{"成本", "cost"},
	{"费用", "fee"},
	{"收费", "charge"},
	{"海关", "customs"},
	{"税", "tax"},
	{"关税", "duty"},
	{"货物", "goods"},
	{"货物", "cargo"},
	{"产品", "product"},
	{"证书", "certificate"},
	{"文件", "document"},
	{"表单", "form"},
	{"申报", "declaration"},
	{"进口", "import"},
	{"出口", "export"},
}

// DictionaryResult 词典翻译结果，词典翻译永远成功
type DictionaryResult struct {
	Translation string
	Explanation string
	ModelUsed   string
}

// Dictionary 内置术语词典翻译器，所有大模型服务都失败时的兜底
type Dictionary struct {
	terms []termPair
}

// NewDictionary 创建内置词典
func NewDictionary() *Dictionary {
	terms := make([]termPair, len(builtinTerms))
	copy(terms, builtinTerms)
	return &Dictionary{terms: terms}
}

// glossaryFile 外部词汇表文件格式，zh术语到en译文的映射列表
type glossaryFile struct {
	Terms []struct {
		Zh string `yaml:"zh"`
		En string `yaml:"en"`
	} `yaml:"terms"`
}

// LoadGlossary 从YAML文件追加外部词汇表。
// 外部词条排在内置词条之后，文件缺失时静默跳过。
func (d *Dictionary) LoadGlossary(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取词汇表文件失败: %w", err)
	}

	var file glossaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("解析词汇表文件失败: %w", err)
	}

	for _, t := range file.Terms {
		if t.Zh != "" && t.En != "" {
			d.terms = append(d.terms, termPair{Zh: t.Zh, En: t.En})
		}
	}
	return nil
}

// Translate 词典翻译。先精确匹配，再子串替换，最后做基本语义兜底。
// 永远返回成功结果，说明文字记录走的是词典匹配还是基本语义翻译。
func (d *Dictionary) Translate(text, sourceLang, targetLang string) *DictionaryResult {
	translated := text
	matched := false

	switch {
	case sourceLang == "zh" && targetLang == "en":
		translated, matched = d.translateZhToEn(text)
	case sourceLang == "en" && targetLang == "zh":
		translated, matched = d.translateEnToZh(text)
	}

	explanation := "使用内置术语词典完成翻译"
	if matched {
		explanation += "（词典匹配）"
	} else {
		explanation += "（基本语义翻译）"
	}

	return &DictionaryResult{
		Translation: translated,
		Explanation: explanation,
		ModelUsed:   "Enhanced-Dictionary",
	}
}

func (d *Dictionary) translateZhToEn(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	translated := text
	matched := false

	for _, t := range d.terms {
		if t.Zh == trimmed {
			// 精确匹配直接返回，优先于子串替换
			return t.En, true
		}
		if strings.Contains(text, t.Zh) {
			translated = strings.ReplaceAll(translated, t.Zh, t.En)
			matched = true
		}
	}
	if matched {
		return translated, true
	}

	return d.semanticZhToEn(text), false
}

// semanticZhToEn 词典没有命中时的基本语义兜底
func (d *Dictionary) semanticZhToEn(text string) string {
	switch {
	case strings.Contains(text, "运费") && strings.Contains(text, "价目"):
		return "Freight Rate List"
	case strings.Contains(text, "运费"):
		return "Freight"
	case strings.Contains(text, "价目"):
		return "Price List"
	case strings.Contains(text, "费用"):
		return "Fee"
	case strings.Contains(text, "价格"):
		return "Price"
	case strings.Contains(text, "清单"):
		return "List"
	case strings.Contains(text, "目录"):
		return "Catalog"
	}

	// 逐字组合翻译
	runes := []rune(text)
	parts := make([]string, 0, len(runes))
	for _, r := range runes {
		if gloss, ok := charGloss[r]; ok {
			parts = append(parts, gloss)
		} else {
			parts = append(parts, string(r))
		}
	}
	if len(parts) > 1 {
		// Caser带内部状态，不能跨goroutine共享，每次构造
		return cases.Title(language.English).String(strings.Join(parts, " "))
	}

	return fmt.Sprintf("Chinese Term: %s", text)
}

func (d *Dictionary) translateEnToZh(text string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	translated := text
	matched := false

	for _, t := range d.terms {
		if strings.ToLower(t.En) == trimmed {
			return t.Zh, true
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(t.En)) {
			// 检测不区分大小写，替换保留原词大小写形式
			translated = strings.ReplaceAll(translated, t.En, t.Zh)
			matched = true
		}
	}
	if matched {
		return translated, true
	}

	// 基本词汇替换兜底
	for _, w := range enToZhWords {
		if strings.Contains(strings.ToLower(translated), w.En) {
			translated = strings.ReplaceAll(translated, w.En, w.Zh)
			matched = true
		}
	}
	return translated, matched
}
