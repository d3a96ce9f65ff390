package code

import "net/http"

var (
	Success                    = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessIdentifierSaved     = NewSuss(2, lang{en: "Name saved", zh_cn: "名称已保存"})
	SuccessLinkRequested       = NewSuss(3, lang{en: "Link requested", zh_cn: "已发起链接请求"})
	SuccessDisconnectRequested = NewSuss(4, lang{en: "Disconnect requested", zh_cn: "已发起断开请求"})

	ErrorServerInternal    = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"}, http.StatusInternalServerError)
	ErrorInvalidParams     = NewError(501, lang{en: "Invalid parameters", zh_cn: "参数错误"}, http.StatusBadRequest)
	ErrorNotFound          = NewError(502, lang{en: "Resource not found", zh_cn: "资源不存在"}, http.StatusNotFound)
	ErrorTooManyRequests   = NewError(503, lang{en: "Too many requests", zh_cn: "请求过多"}, http.StatusTooManyRequests)
	ErrorControllerStopped = NewError(504, lang{en: "Controller is not running", zh_cn: "控制器未运行"}, http.StatusServiceUnavailable)

	// Session errors
	// 会话错误
	ErrorInvalidIdentifier = NewError(601, lang{
		en: "Invalid name, please only use alphanumeric characters and: dot (.), dash (-), at (@) and underscore (_). " +
			"Your name should start and end with an alphanumeric character and you cannot use two special characters in a row.",
		zh_cn: "名称无效，只能使用字母、数字以及：点 (.)、短横线 (-)、at (@) 和下划线 (_)。" +
			"名称必须以字母或数字开头和结尾，且不能连续使用两个特殊字符。",
	}, http.StatusBadRequest)
	ErrorNotConnected      = NewError(602, lang{en: "Not connected to the display", zh_cn: "尚未连接到显示端"}, http.StatusConflict)
	ErrorConnectFailed     = NewError(603, lang{en: "Error connecting", zh_cn: "连接失败"})
	ErrorLinkFailed        = NewError(604, lang{en: "Error linking", zh_cn: "链接失败"})
	ErrorDisconnectFailed  = NewError(605, lang{en: "Error disconnecting", zh_cn: "断开失败"})
)

// View texts rendered for each session branch
// 各会话分支的视图文案
var (
	TextGreeting     = lang{en: "Hello!", zh_cn: "你好！"}
	TextAccessing    = lang{en: "You're trying to access display %s", zh_cn: "你正在访问显示端 %s"}
	TextAskName      = lang{en: "What is your name?", zh_cn: "你叫什么名字？"}
	TextConnecting   = lang{en: "Connecting to %s as %s...", zh_cn: "正在以 %[2]s 的身份连接到 %[1]s..."}
	TextClosing      = lang{en: "Disconnecting from %s...", zh_cn: "正在断开与 %s 的连接..."}
	TextLinked       = lang{en: "Linked to %s as %s", zh_cn: "已以 %[2]s 的身份链接到 %[1]s"}
	TextClosed       = lang{en: "Display closed", zh_cn: "显示端已关闭"}
	TextDisconnected = lang{en: "Connection to %s lost", zh_cn: "与 %s 的连接已断开"}
)

// Text exposes a view text for formatting outside this package
// Text 供包外格式化使用的视图文案
type Text = lang
