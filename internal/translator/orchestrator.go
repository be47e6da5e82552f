// Package translator 实现翻译编排：语言与意图识别、服务层降级、
// 工作流输出的格式化与最终译文提取、单槽位结果缓存。
package translator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/logger"
	"github.com/wvclabs/customs-translator/internal/prompt"
	"github.com/wvclabs/customs-translator/internal/workflow"
	"github.com/wvclabs/customs-translator/pkg/providers"
)

// Request 一次翻译请求。
// SourceLang/TargetLang 可以不填，由字符构成自动检测。
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// ShowWorkflow 为假时只要求模型输出译文
	ShowWorkflow bool
}

// Result 翻译结果
type Result struct {
	Content             string
	Explanation         string
	ModelUsed           string
	ServicesAttempted   []string
	IsDirectTranslation bool
	SourceLang          string
	TargetLang          string
}

// noFinalAnswerMessage 没有可展示的最终译文时返回的固定提示
const noFinalAnswerMessage = "尚未找到可展示的最终译文，请先进行一次翻译。"

// explanations 各服务层成功时的说明文字
var explanations = map[string]string{
	"DashScope-Customs": "使用DashScope海关专业翻译模型完成翻译",
	"VIVO-BlueLM-70B":   "使用VIVO蓝心大模型-70B完成翻译",
}

func explanationFor(name string) string {
	if e, ok := explanations[name]; ok {
		return e
	}
	return "使用" + name + "完成翻译"
}

// Orchestrator 翻译编排器。
// 按优先级尝试各大模型服务层，全部失败时降级到内置词典；
// 每层只尝试一次，不做层内重试。
type Orchestrator struct {
	tiers     []providers.Caller
	dict      *Dictionary
	formatter *workflow.Formatter
	builder   *prompt.Builder
	cache     AnswerCache
	logger    *zap.Logger
}

// NewOrchestrator 创建翻译编排器。
// tiers 按优先级排列，dict 是永不失败的兜底层。
func NewOrchestrator(tiers []providers.Caller, dict *Dictionary, builder *prompt.Builder, cache AnswerCache, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		tiers:     tiers,
		dict:      dict,
		formatter: workflow.NewFormatter(),
		builder:   builder,
		cache:     cache,
		logger:    log,
	}
}

// Translate 执行一次翻译请求
func (o *Orchestrator) Translate(ctx context.Context, req *Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		// 校验失败清空缓存，避免来源查询读到不相关的结果
		o.cache.Clear()
		return nil, ErrEmptyInput
	}

	intent, text := DetectIntent(text)
	switch intent {
	case IntentShowSources:
		return o.ShowSources(ctx)
	case IntentShowFinalOnly:
		return o.showFinalOnly()
	}
	direct := intent == IntentDirectTranslation || !req.ShowWorkflow

	sourceLang, targetLang := DetectLanguages(text)
	if (req.SourceLang != "" && req.SourceLang != sourceLang) ||
		(req.TargetLang != "" && req.TargetLang != targetLang) {
		// 检测结果优先于请求指定的语言方向
		o.logger.Warn("检测到的语言方向与请求指定不一致，以检测结果为准",
			zap.String("requested_source", req.SourceLang),
			zap.String("requested_target", req.TargetLang),
			zap.String("detected_source", sourceLang),
			zap.String("detected_target", targetLang))
	}

	text = stripDirectionPrefix(text, sourceLang)

	promptText := o.builder.Translation(text, sourceLang, targetLang, "", !direct)

	o.logger.Info("开始翻译",
		zap.String("text", logger.Preview(text, 60)),
		zap.String("source_lang", sourceLang),
		zap.String("target_lang", targetLang),
		zap.Bool("direct", direct))

	var attempted []string
	for _, tier := range o.tiers {
		if !tier.Available() {
			o.logger.Info("翻译服务不可用，跳过", zap.String("service", tier.GetName()))
			continue
		}

		attempted = append(attempted, tier.GetName())
		resp, err := tier.Call(ctx, &providers.AppRequest{Prompt: promptText})
		if err != nil {
			o.logger.Warn("翻译服务调用失败，降级到下一层",
				zap.String("service", tier.GetName()),
				zap.Error(err))
			continue
		}

		return o.assembleModelResult(tier.GetName(), resp.Text, direct, attempted, sourceLang, targetLang), nil
	}

	// 词典兜底，永远成功，不产生工作流也不写缓存
	attempted = append(attempted, "Enhanced-Dictionary")
	o.logger.Info("使用内置术语词典翻译", zap.String("text", logger.Preview(text, 60)))

	dr := o.dict.Translate(text, sourceLang, targetLang)
	return &Result{
		Content:             dr.Translation,
		Explanation:         dr.Explanation,
		ModelUsed:           dr.ModelUsed,
		ServicesAttempted:   attempted,
		IsDirectTranslation: direct,
		SourceLang:          sourceLang,
		TargetLang:          targetLang,
	}, nil
}

// assembleModelResult 组装大模型层的成功结果。
// 工作流模式下格式化输出并提取最终译文后写入缓存；
// 直接翻译模式下原始输出就是最终译文，不做格式化，缓存里三种形态都存原文。
func (o *Orchestrator) assembleModelResult(name, raw string, direct bool, attempted []string, sourceLang, targetLang string) *Result {
	content := raw
	if direct {
		o.cache.Set(&CachedAnswer{
			Raw:       raw,
			Formatted: raw,
			Final:     raw,
		})
	} else {
		formatted := o.formatter.Format(raw)
		final := workflow.ExtractFinalTranslation(raw)
		o.cache.Set(&CachedAnswer{
			Raw:       raw,
			Formatted: formatted,
			Final:     final,
		})
		content = formatted
	}

	o.logger.Info("翻译完成",
		zap.String("service", name),
		zap.String("result", logger.Preview(content, 60)))

	return &Result{
		Content:             content,
		Explanation:         explanationFor(name),
		ModelUsed:           name,
		ServicesAttempted:   attempted,
		IsDirectTranslation: direct,
		SourceLang:          sourceLang,
		TargetLang:          targetLang,
	}
}

// ShowSources 查询上一次翻译的引用来源
func (o *Orchestrator) ShowSources(ctx context.Context) (*Result, error) {
	tier := o.firstAvailableTier()
	if tier == nil {
		return nil, providers.NewError(providers.ErrCodeUnavailable, "没有可用的大模型服务")
	}

	querier := NewSourceQuerier(tier, o.builder, o.cache, o.logger)
	text, err := querier.Query(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Content:           text,
		Explanation:       "整理自上一次翻译的引用来源",
		ModelUsed:         tier.GetName(),
		ServicesAttempted: []string{tier.GetName()},
	}, nil
}

// showFinalOnly 返回上一次翻译的最终译文。
// 缓存里没有现成的最终译文时，对缓存的原始文本重跑一次提取。
func (o *Orchestrator) showFinalOnly() (*Result, error) {
	answer, ok := o.cache.Get()
	if ok {
		if answer.Final != "" {
			return finalOnlyResult(answer.Final), nil
		}
		if answer.Raw != "" {
			if final := workflow.ExtractFinalTranslation(answer.Raw); final != "" {
				answer.Final = final
				o.cache.Set(answer)
				return finalOnlyResult(final), nil
			}
		}
	}

	return &Result{
		Content:   noFinalAnswerMessage,
		ModelUsed: "AnswerCache",
	}, nil
}

func finalOnlyResult(final string) *Result {
	return &Result{
		Content:     final,
		Explanation: "上一次翻译的最终译文",
		ModelUsed:   "AnswerCache",
	}
}

// firstAvailableTier 返回第一个可用的大模型服务层
func (o *Orchestrator) firstAvailableTier() providers.Caller {
	for _, tier := range o.tiers {
		if tier.Available() {
			return tier
		}
	}
	return nil
}

// stripDirectionPrefix 去掉方向性前缀。
// 源语言是英文时去掉"翻译："前缀，是中文时去掉"translate:"前缀，
// 两者互为镜像，是沿用下来的历史行为。
func stripDirectionPrefix(text, sourceLang string) string {
	switch sourceLang {
	case "en":
		return strings.TrimSpace(strings.TrimPrefix(text, "翻译："))
	case "zh":
		return strings.TrimSpace(strings.TrimPrefix(text, "translate:"))
	}
	return text
}
