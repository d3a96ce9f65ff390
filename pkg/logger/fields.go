package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldSessionID 会话 ID 字段
	FieldSessionID = "sessionId"

	// FieldAction 操作类型字段（connect / link / disconnect）
	FieldAction = "action"

	// FieldStatus 连接状态字段
	FieldStatus = "status"

	// FieldPrevStatus 上一个连接状态字段
	FieldPrevStatus = "prevStatus"

	// FieldDisplay 显示端 ID 字段
	FieldDisplay = "display"

	// FieldIdentifier 用户名称字段
	FieldIdentifier = "identifier"

	// FieldKey 存储键字段
	FieldKey = "key"

	// FieldBackend 存储后端字段
	FieldBackend = "backend"

	// FieldEndpoint 连接地址字段
	FieldEndpoint = "endpoint"

	// FieldDevice 设备 ID 字段
	FieldDevice = "device"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldCode 结果码字段
	FieldCode = "code"
)
