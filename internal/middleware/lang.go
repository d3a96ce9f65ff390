package middleware

import (
	"github.com/haierkeys/screen-connect-controller/pkg/app"
	"github.com/haierkeys/screen-connect-controller/pkg/code"

	ut "github.com/go-playground/universal-translator"
	"github.com/gin-gonic/gin"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 语言只作用于当前请求，不修改全局默认语言
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); len(s) >= 2 {
			lang = s[:2]
		}

		if !code.IsSupportedLang(lang) {
			lang = code.GetGlobalDefaultLang()
		}
		c.Set(app.LangKey, lang)

		// validator translators are keyed by base locale: en / zh
		trans, found := uni.GetTranslator(lang[:2])
		if !found {
			trans, _ = uni.GetTranslator("en")
		}
		c.Set(app.TransKey, trans)

		c.Next()
	}
}
