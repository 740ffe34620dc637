package model

// DegradationLevel describes how far down the fallback chain a single map
// resolution had to go. It is transient, recomputed per call, never persisted
// as request state (only echoed into the audit trail).
type DegradationLevel string

const (
	// DegradationNormal 正常调用成功，无降级
	DegradationNormal DegradationLevel = "NORMAL"
	// DegradationRetry 限流错误触发指数退避重试后成功
	DegradationRetry DegradationLevel = "RETRY"
	// DegradationSimplified 简化请求（缩略图尺寸、降低缩放、丢弃路径）后成功
	DegradationSimplified DegradationLevel = "SIMPLIFIED"
	// DegradationPlaceholder 所有策略失败，返回兜底占位图
	DegradationPlaceholder DegradationLevel = "PLACEHOLDER"
)
