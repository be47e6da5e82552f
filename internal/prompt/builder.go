// Package prompt 构建海关业务各场景的提示词。
// 翻译提示词要求远端应用按固定的工作流格式输出，后续的格式化
// 和最终译文提取都依赖这个结构。
package prompt

import (
	"fmt"
	"strings"
)

// langNames 语言代码到中文名称的映射，未知代码原样使用
var langNames = map[string]string{
	"zh": "中文",
	"en": "英文",
	"ja": "日文",
	"ko": "韩文",
	"fr": "法文",
	"de": "德文",
	"es": "西班牙文",
	"ru": "俄文",
}

// LangName 返回语言代码对应的中文名称
func LangName(code string) string {
	if name, ok := langNames[code]; ok {
		return name
	}
	return code
}

// Builder 提示词构建器
type Builder struct {
	template *Template
}

// NewBuilder 创建提示词构建器，template 可为 nil
func NewBuilder(template *Template) *Builder {
	if template == nil {
		template = &Template{}
	}
	return &Builder{template: template}
}

// Translation 构建翻译提示词。
// showWorkflow 为真时要求模型完整展示七步翻译工作流，
// 为假时只要求直接给出译文。
func (b *Builder) Translation(text, sourceLang, targetLang, context string, showWorkflow bool) string {
	sourceName := LangName(sourceLang)
	targetName := LangName(targetLang)

	var sb strings.Builder
	if showWorkflow {
		sb.WriteString(fmt.Sprintf(`请将以下从%s翻译成%s：

%s

重要指示：你必须严格按照以下工作流格式展示翻译过程，这是最重要的要求。最终输出必须包含完整的工作流过程和步骤，而不仅仅是最终翻译。

# 翻译工作流执行过程：
## 1. 原文拆解与专业术语提取
在这个部分，详细列出从原文中提取的所有专业术语。
例如：
- economic operators：经济运营商
- customs treatment：海关处理

## 2. 术语检索与翻译
### 2.1. 术语拆解与提取
详细描述每个专业术语的拆解过程和含义。

### 2.2. 术语检索与校验
列出每个术语从知识库中检索到的翻译及相关信息，包括来源。

## 3. 初步译文生成
根据上述检索结果生成的初步译文，完整呈现。

## 4. 译文检查
检查初步译文中是否有专业术语和专业知识的错误，列出发现的问题。

## 5. 错误纠正
如有错误，在这里详细说明纠正过程和理由。

## 6. 译文润色
对译文进行润色，使其流畅、严谨、符合海关公文写作规范。

## 7. 最终译文
输出最终润色后的完整译文。

注意：这些步骤一个都不能省略，必须完整展示整个翻译过程。每个部分都必须有实质性内容，不能只有标题。最终交付的结果必须是完整的工作流格式，而不只是最终译文。
`, sourceName, targetName, text))
	} else {
		sb.WriteString(fmt.Sprintf(`请将以下从%s翻译成%s：

%s

请直接提供专业、准确的翻译结果，无需展示翻译过程。要求：
1. 确保专业海关术语翻译准确
2. 保持原文的格式和结构
3. 确保翻译的语法正确、表达流畅
4. 遵循目标语言的行文习惯
`, sourceName, targetName, text))
	}

	// 附加模板中的领域知识片段
	if b.template.KnowledgeSection != "" {
		sb.WriteString("\n\n" + b.template.KnowledgeSection)
	}
	if b.template.TranslationPrinciples != "" {
		sb.WriteString("\n\n" + b.template.TranslationPrinciples)
	}
	if b.template.PolishPrinciples != "" {
		sb.WriteString("\n\n" + b.template.PolishPrinciples)
	}

	if context != "" {
		sb.WriteString(fmt.Sprintf("\n\n## 参考信息：\n%s\n", context))
	}

	return sb.String()
}

// TranslationWithTerminology 在翻译提示词前附加术语对照表。
// terms 按声明顺序拼接，保证提示词稳定可复现。
func (b *Builder) TranslationWithTerminology(text, sourceLang, targetLang string, terms [][2]string, showWorkflow bool) string {
	context := ""
	if len(terms) > 0 {
		var sb strings.Builder
		sb.WriteString("请参考以下术语对照表进行翻译：\n")
		for _, pair := range terms {
			sb.WriteString(fmt.Sprintf("%s -> %s\n", pair[0], pair[1]))
		}
		context = sb.String()
	}
	return b.Translation(text, sourceLang, targetLang, context, showWorkflow)
}

// Chat 构建海关专业对话提示词
func (b *Builder) Chat(question, context string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`你是一位专业的海关业务专家，精通海关法规、国际贸易、商品归类、关税政策等领域知识。

用户问题：%s

请根据以下要求回答：
1. 提供准确、专业的海关业务解答
2. 如涉及法规条文，请引用具体条款
3. 如涉及操作流程，请提供详细步骤
4. 语言简洁明了，便于理解
5. 如果问题超出海关业务范围，请礼貌说明并引导到相关话题

`, question))

	if context != "" {
		sb.WriteString(fmt.Sprintf("参考信息：\n%s\n\n", context))
	}
	sb.WriteString("专业解答：")

	return sb.String()
}

// MemoryChat 构建带长期记忆的对话提示词
func (b *Builder) MemoryChat(question, context string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`你是一位专业的海关业务专家，具有长期记忆能力，能够记住之前的对话内容和用户偏好。

用户问题：%s

请根据以下要求回答：
1. 结合之前的对话记忆，提供个性化的专业解答
2. 如果是延续之前的话题，请体现连贯性
3. 提供准确、专业的海关业务解答
4. 如涉及法规条文，请引用具体条款
5. 如涉及操作流程，请提供详细步骤
6. 语言简洁明了，便于理解

`, question))

	if context != "" {
		sb.WriteString(fmt.Sprintf("参考信息：\n%s\n\n", context))
	}
	sb.WriteString("专业解答：")

	return sb.String()
}

// Explanation 构建专业名词解释提示词
func (b *Builder) Explanation(term, context string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`你是一位海关业务专家，请对以下海关或国际贸易专业名词进行详细解释。

专业名词：%s

请按以下格式提供解释：
1. 定义：简明扼要的定义
2. 适用范围：该名词的使用场景和适用范围
3. 相关法规：涉及的主要法律法规（如有）
4. 实际应用：在海关业务中的具体应用
5. 注意事项：需要特别注意的要点（如有）

`, term))

	if context != "" {
		sb.WriteString(fmt.Sprintf("参考信息：\n%s\n\n", context))
	}
	sb.WriteString("详细解释：")

	return sb.String()
}

// CitationQuery 构建引用来源查询提示词。
// 用于对上一次翻译结果追问知识库引用出处。
func (b *Builder) CitationQuery(rawAnswer string) string {
	return fmt.Sprintf(`以下是一次海关专业翻译的完整工作流输出，请从中整理出所有引用的知识库来源信息。

%s

请按以下格式列出：
1. 引用的术语及其译文
2. 每条术语的知识库来源（如有标注）
3. 没有来源标注的术语请注明“内置知识”
`, rawAnswer)
}
