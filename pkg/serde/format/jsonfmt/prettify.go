package jsonfmt

import "strings"

const indentUnit = "  "

// Prettify 对合法的紧凑 JSON 文本做单遍重排：'{'、'[' 与 ',' 之后换行并缩进，
// '}'、']' 之前换行并回退缩进，':' 之后补一个空格。字符串内部（包括转义字符）原样保留。
func Prettify(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + len(text)/2)

	escaping := false
	inQuotes := false
	indent := 0

	newline := func() {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(indentUnit, max(indent, 0)))
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaping:
			escaping = false
			sb.WriteByte(c)
		case c == '\\':
			escaping = true
			sb.WriteByte(c)
		case c == '"':
			inQuotes = !inQuotes
			sb.WriteByte(c)
		case inQuotes:
			sb.WriteByte(c)
		case c == ',':
			sb.WriteByte(c)
			newline()
		case c == '{' || c == '[':
			sb.WriteByte(c)
			indent++
			newline()
		case c == '}' || c == ']':
			indent--
			newline()
			sb.WriteByte(c)
		case c == ':':
			sb.WriteString(": ")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// PrettifyBytes 是 Prettify 的字节切片形式。
func PrettifyBytes(data []byte) []byte {
	return []byte(Prettify(string(data)))
}
