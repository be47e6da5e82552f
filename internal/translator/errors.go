package translator

import "errors"

var (
	// ErrEmptyInput 输入去除空白后为空
	ErrEmptyInput = errors.New("翻译内容不能为空")

	// ErrNoCachedAnswer 没有可供查询的上一次翻译结果
	ErrNoCachedAnswer = errors.New("没有可用的上一次翻译结果")
)
