package binding

import (
	"regexp"
	"strings"
)

// Vars 是扁平的占位符表，键形如 invoice.number、customer.name、invoice.items[0].hsn_sac。
type Vars map[string]string

var placeholder = regexp.MustCompile(`\$\{\s*([A-Za-z0-9_.\[\]]+)\s*\}`)

// Interpolate 将文本中的 ${key} 替换为 vars 中的值，未知的键原样保留。
func Interpolate(text string, vars Vars) string {
	if len(vars) == 0 || !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := vars[groups[1]]; ok {
			return val
		}
		return match
	})
}
