package excel

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// builtinDateFormats are the built-in number format IDs that render a date
// or time (ECMA-376 18.8.30, including the East Asian date formats).
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// isDateStyle reports whether a cell style renders its number as a date/time
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormats[style.NumFmt]
}

// isDateFormatCode inspects a custom number format code for date/time tokens,
// ignoring quoted literals, escaped characters and bracketed sections such as
// locale or color tags.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	stripped := strings.ToLower(b.String())
	if strings.Contains(stripped, "general") {
		return false
	}
	return strings.ContainsAny(stripped, "ymdhs")
}

// styleCache memoizes the date check per style index
type styleCache struct {
	file   *excelize.File
	isDate map[int]bool
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, isDate: make(map[int]bool)}
}

func (c *styleCache) dateStyle(styleID int) bool {
	if v, ok := c.isDate[styleID]; ok {
		return v
	}
	style, err := c.file.GetStyle(styleID)
	v := err == nil && isDateStyle(style)
	c.isDate[styleID] = v
	return v
}
