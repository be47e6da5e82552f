package translator

import (
	"context"

	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/logger"
	"github.com/wvclabs/customs-translator/internal/prompt"
	"github.com/wvclabs/customs-translator/pkg/providers"
)

// SourceQuerier 引用来源查询器。
// 对上一次缓存的工作流原始文本再发起一次调用，
// 让模型整理出其中引用的知识库来源。
type SourceQuerier struct {
	caller  providers.Caller
	builder *prompt.Builder
	cache   AnswerCache
	logger  *zap.Logger
}

// NewSourceQuerier 创建引用来源查询器
func NewSourceQuerier(caller providers.Caller, builder *prompt.Builder, cache AnswerCache, log *zap.Logger) *SourceQuerier {
	return &SourceQuerier{
		caller:  caller,
		builder: builder,
		cache:   cache,
		logger:  log,
	}
}

// Query 查询上一次翻译引用的来源。
// 缓存为空时返回 ErrNoCachedAnswer。
func (q *SourceQuerier) Query(ctx context.Context) (string, error) {
	answer, ok := q.cache.Get()
	if !ok || answer.Raw == "" {
		return "", ErrNoCachedAnswer
	}

	q.logger.Info("查询上一次翻译的引用来源",
		zap.String("cached_preview", logger.Preview(answer.Raw, 60)))

	resp, err := q.caller.Call(ctx, &providers.AppRequest{
		Prompt: q.builder.CitationQuery(answer.Raw),
	})
	if err != nil {
		q.logger.Error("引用来源查询失败", zap.Error(err))
		return "", err
	}

	return resp.Text, nil
}
