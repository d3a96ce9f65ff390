package code

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// lang type, used to store English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

// Default language is English, stored at declaration so package level codes can read it
// 默认语言为英文，声明时即写入，包级别的 code 变量初始化时可以读取
var lng = func() (v atomic.Value) {
	v.Store(FALLBACK_LNG)
	return
}()

// GetMessage returns the message in the global default language
// GetMessage 方法根据全局语言返回相应的消息
func (l lang) GetMessage() string {
	return l.Message(GetGlobalDefaultLang())
}

// Message returns the message for the given language, falling back to English
// Message 返回指定语言的消息，无效时回退英文
func (l lang) Message(language string) string {
	language = normalize(language)
	val := reflect.ValueOf(l)
	// If the language field is valid and not empty, return the message in that language
	// 如果语言字段有效且非空，返回该语言的消息
	if field := val.FieldByName(language); field.IsValid() && field.String() != "" {
		return field.String()
	}
	if fallbackField := val.FieldByName(FALLBACK_LNG); fallbackField.IsValid() && fallbackField.String() != "" {
		return fallbackField.String()
	}
	return fmt.Sprintf("No message available for language: %s", language)
}

// GetSupportedLanguages returns all languages supported by the lang type
// GetSupportedLanguages 函数返回 lang 类型支持的所有语言
func GetSupportedLanguages() []string {
	var languages []string
	typ := reflect.TypeOf(lang{})
	for i := 0; i < typ.NumField(); i++ {
		languages = append(languages, typ.Field(i).Name)
	}
	return languages
}

// IsSupportedLang reports whether language has a message column
// IsSupportedLang 判断语言是否受支持
func IsSupportedLang(language string) bool {
	language = normalize(language)
	for _, l := range GetSupportedLanguages() {
		if l == language {
			return true
		}
	}
	return false
}

// SetGlobalDefaultLang sets the global default language
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	if IsSupportedLang(language) {
		lng.Store(normalize(language))
		return nil
	}
	// If the language is invalid, return an error and set it to the default language
	// 如果语言无效，返回错误并设置为默认语言
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang gets the global default language
// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	if l, ok := lng.Load().(string); ok && l != "" {
		return l
	}
	return FALLBACK_LNG
}

// normalize maps "zh-CN" / "ZH_cn" / "zh" to the field name zh_cn
func normalize(language string) string {
	language = strings.ToLower(strings.ReplaceAll(language, "-", "_"))
	if language == "zh" {
		return "zh_cn"
	}
	return language
}
