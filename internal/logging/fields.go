package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供缓存种类/脚本/命中状态字段，供请求日志复用。
func RequestFields(kind, script string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"kind":      kind,
		"script":    script,
		"cache_hit": cacheHit,
	}
}
