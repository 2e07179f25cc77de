package geo

import (
	"slices"
	"sort"

	"github.com/paulmach/orb/geojson"
)

// 文档注释：变更判定
// 背景：重算频繁发生，只有内容确实变化时才替换下游已发布状态。
// 规则：current 缺失、数量不同、或名称排序序列不同则替换；无名要素以空串参与比较，与对象身份和顺序无关。
func ShouldReplace(current *AggregateEntry, candidate AggregateEntry, names KeyRules) bool {
	if current == nil {
		return true
	}
	if current.Count != candidate.Count {
		return true
	}
	return !slices.Equal(SortedNames(current.Features, names), SortedNames(candidate.Features, names))
}

// SortedNames 返回要素名称的升序列表，无名要素为空串。
func SortedNames(features []*geojson.Feature, names KeyRules) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = names.FeatureKey(f)
	}
	sort.Strings(out)
	return out
}
