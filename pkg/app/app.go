package app

import (
	"strings"

	"github.com/haierkeys/screen-connect-controller/pkg/code"

	"github.com/gin-gonic/gin"
)

// LangKey gin context key of the request language
// LangKey gin 上下文中请求语言的键
const LangKey = "lang"

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the unified response structure: Code/Status/Msg/Data
// Res 是统一的响应结构：Code/Status/Msg/Data
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

func GetAccessHost(c *gin.Context) string {
	AccessProto := ""
	if proto := c.Request.Header.Get("X-Forwarded-Proto"); proto == "" {
		AccessProto = "http" + "://"
	} else {
		AccessProto = proto + "://"
	}
	return AccessProto + c.Request.Host
}

// RequestLang language chosen for this request, empty for the global default
// RequestLang 当前请求的语言，空为全局默认
func RequestLang(c *gin.Context) string {
	return c.GetString(LangKey)
}

// ToResponse output to browser in the request language
// ToResponse 以请求语言输出到浏览器
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set("status_code", codeObj.StatusCode())

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.MsgIn(r.lang()),
		Data:    codeObj.Data(),
	}

	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}

	r.send(codeObj.StatusCode(), content)
}

// ToResponseData outputs codeObj carrying data without touching the shared code
// ToResponseData 输出携带数据的结果，不修改共享的结果码
func (r *Response) ToResponseData(codeObj *code.Code, data interface{}) {
	r.ToResponse(codeObj.Clone().WithData(data))
}

// ToErrorResponse outputs codeObj with validation or cause details
// ToErrorResponse 输出带详情的错误
func (r *Response) ToErrorResponse(codeObj *code.Code, details ...string) {
	if len(details) == 0 {
		r.ToResponse(codeObj)
		return
	}
	r.ToResponse(codeObj.Clone().WithDetails(details...))
}

func (r *Response) lang() string {
	if l := RequestLang(r.Ctx); l != "" {
		return l
	}
	return code.GetGlobalDefaultLang()
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
