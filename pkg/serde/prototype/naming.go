package prototype

import "unicode"

// TransformName 将成员名转换为外部字段名：开头连续的大写字母转为小写；
// 当这段大写多于一个字母且后面还有内容时，保留最后一个大写字母作为下一个单词的开头。
//
//	Name    -> name
//	ID      -> id
//	ABCDVar -> abcdVar
//	URLPath -> urlPath
func TransformName(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(name)
	caps := 0
	for _, r := range runes {
		if !unicode.IsUpper(r) {
			break
		}
		caps++
	}
	if caps > 1 && caps != len(runes) {
		caps--
	}
	if caps == 0 {
		return name
	}
	for i := 0; i < caps; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
