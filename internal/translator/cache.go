package translator

import "sync"

// CachedAnswer 上一次成功翻译的完整结果。
// Raw保留模型原始输出，来源查询和最终译文提取都基于它；
// Formatted是重排后的展示文本；Final是提取出的最终译文，可能为空。
type CachedAnswer struct {
	Raw       string
	Formatted string
	Final     string
}

// AnswerCache 单槽位的回答缓存。
// 整个进程只保留最近一次翻译，后写覆盖先写：并发请求下
// "查看上次来源"可能读到别的请求刚写入的结果，这是接受的限制。
type AnswerCache interface {
	// Get 返回缓存的回答，第二个返回值表示缓存是否非空
	Get() (*CachedAnswer, bool)

	// Set 覆盖缓存
	Set(answer *CachedAnswer)

	// Clear 清空缓存
	Clear()
}

// MemoryAnswerCache 内存实现的单槽位缓存
type MemoryAnswerCache struct {
	mu     sync.RWMutex
	answer *CachedAnswer
}

var _ AnswerCache = (*MemoryAnswerCache)(nil)

// NewMemoryAnswerCache 创建空的内存缓存
func NewMemoryAnswerCache() *MemoryAnswerCache {
	return &MemoryAnswerCache{}
}

// Get 返回缓存的回答
func (c *MemoryAnswerCache) Get() (*CachedAnswer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.answer == nil {
		return nil, false
	}
	answer := *c.answer
	return &answer, true
}

// Set 覆盖缓存
func (c *MemoryAnswerCache) Set(answer *CachedAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = answer
}

// Clear 清空缓存
func (c *MemoryAnswerCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = nil
}
