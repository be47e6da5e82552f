package translator

import "unicode"

// DetectLanguages 根据字符构成推断源语言和目标语言。
// 统计汉字和ASCII字母的数量：只有一方出现时由它决定方向，
// 两者都出现时多的一方胜出，数量相同时按英译中处理。
// 两者都没有（纯数字、符号）时按中译英处理。
func DetectLanguages(text string) (sourceLang, targetLang string) {
	var han, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case r < 128 && unicode.IsLetter(r):
			latin++
		}
	}

	switch {
	case han > 0 && latin == 0:
		return "zh", "en"
	case latin > 0 && han == 0:
		return "en", "zh"
	case han > latin:
		return "zh", "en"
	case latin > 0:
		return "en", "zh"
	default:
		return "zh", "en"
	}
}
