package translator

import (
	"regexp"
	"strings"
)

// Intent 用户消息的意图分类
type Intent int

const (
	// IntentNormal 普通翻译请求
	IntentNormal Intent = iota
	// IntentShowSources 查询上一次翻译的引用来源
	IntentShowSources
	// IntentShowFinalOnly 只看上一次翻译的最终译文
	IntentShowFinalOnly
	// IntentDirectTranslation 直接翻译，不展示工作流
	IntentDirectTranslation
)

// intentRule 意图匹配规则。
// strip为真时把命中的部分从消息中去掉，剩余文本才是待翻译内容。
type intentRule struct {
	intent Intent
	re     *regexp.Regexp
	strip  bool
}

// intentRules 按优先级排列：来源查询先于只看译文，先于直接翻译。
// 规则表集中声明，改启发式只动这里。
var intentRules = []intentRule{
	{IntentShowSources, regexp.MustCompile(`(?i)^(请?(显示|查看|展示)?(上一?次|刚才|上个)?(回答|翻译|结果)?的?(引用)?(来源|出处)|show\s+(last\s+)?(answer\s+)?sources?)[？?。!！]*$`), false},
	{IntentShowFinalOnly, regexp.MustCompile(`(?i)^(请?(只|仅)?(显示|查看|看|要)?(上一?次|刚才)?的?最终(译文|翻译)(结果)?(是什么)?|show\s+final\s+translation(\s+only)?)[？?。!！]*$`), false},
	{IntentDirectTranslation, regexp.MustCompile(`(?i)^\s*(直接翻译|直译|快速翻译|direct(ly)?\s+translate|just\s+translate)[：:，,、\s]*`), true},
}

// translationTriggerRe 对话消息里的翻译请求特征。
// 对话接口命中时改走翻译编排链，而不是普通对话。
var translationTriggerRe = regexp.MustCompile(`(?i)^\s*(请|麻烦)?(帮我)?(直接)?翻译|^\s*(please\s+)?translate\b`)

// IsTranslationRequest 判断对话消息是否是翻译请求
func IsTranslationRequest(message string) bool {
	return translationTriggerRe.MatchString(message)
}

// DetectIntent 识别消息意图。
// 返回意图和去掉意图短语后的文本，普通请求原样返回。
func DetectIntent(message string) (Intent, string) {
	trimmed := strings.TrimSpace(message)

	for _, rule := range intentRules {
		loc := rule.re.FindStringIndex(trimmed)
		if loc == nil {
			continue
		}
		if !rule.strip {
			return rule.intent, trimmed
		}
		rest := strings.TrimSpace(trimmed[loc[1]:])
		if rest == "" {
			// 只有意图短语没有正文，当普通消息处理
			continue
		}
		return rule.intent, rest
	}

	return IntentNormal, trimmed
}
