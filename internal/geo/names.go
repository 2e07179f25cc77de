// 包 geo：行政区与兴趣点（游乐场）的空间聚合引擎；纯函数实现，不做任何 I/O
package geo

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// 文档注释：属性名提取规则
// 背景：行政区名称键与要素名称的字段优先级由调用方配置，引擎只按顺序取第一个非空值。
// 约束：Paths 支持点号分隔的嵌套路径（如 tags.name）；全部未命中时返回 Fallback（可为空串）。
type KeyRules struct {
	Paths    []string
	Fallback string
}

var (
	// DefaultDistrictKeys：行政区名称键的默认优先级
	DefaultDistrictKeys = KeyRules{
		Paths:    []string{"Aj_kaupu_1", "NIMI", "name"},
		Fallback: "Unknown District",
	}
	// DefaultFeatureNames：游乐场名称的默认优先级；无名称时返回空串
	DefaultFeatureNames = KeyRules{
		Paths: []string{"tags.name", "name"},
	}
)

// ParseKeyRules 解析逗号分隔的路径列表，空串返回 def。
func ParseKeyRules(s string, def KeyRules) KeyRules {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return def
	}
	return KeyRules{Paths: paths, Fallback: def.Fallback}
}

// Extract 按优先级从属性中取值。
func (r KeyRules) Extract(props map[string]interface{}) string {
	for _, p := range r.Paths {
		v, ok := lookupPath(props, p)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok {
			return s
		}
	}
	return r.Fallback
}

// FeatureKey 对要素提取名称，nil 要素视为无属性。
func (r KeyRules) FeatureKey(f *geojson.Feature) string {
	if f == nil {
		return r.Fallback
	}
	return r.Extract(f.Properties)
}

func lookupPath(props map[string]interface{}, path string) (interface{}, bool) {
	if props == nil {
		return nil, false
	}
	cur := props
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := cur[part]
		if !ok || v == nil {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		switch m := v.(type) {
		case map[string]interface{}:
			cur = m
		case geojson.Properties:
			cur = m
		case map[string]string:
			s, ok := m[parts[i+1]]
			if !ok || i+1 != len(parts)-1 {
				return nil, false
			}
			return s, true
		default:
			return nil, false
		}
	}
	return nil, false
}

// 仅接受字符串与数值；空白串视为缺失，与前端 “a || b” 的回退语义一致
func scalarString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", false
		}
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}
