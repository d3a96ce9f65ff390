// Package validator gin binding validator with the controller's custom tags
// Package validator 带有自定义标签的 gin 绑定验证器
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/haierkeys/screen-connect-controller/pkg/util"

	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// TagDisplayName validates an identifier against the naming policy
// TagDisplayName 按命名规则校验标识
const TagDisplayName = "displayname"

type CustomValidator struct {
	Once     sync.Once
	Validate *validator.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
		v.Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.Validate.RegisterValidation(TagDisplayName, func(fl validator.FieldLevel) bool {
			return util.IsValidDisplayName(fl.Field().String())
		})
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

var displayNameMessages = map[string]string{
	"en": "{0} may only use letters, digits and . _ @ -, must start and end with a letter or digit, and cannot repeat special characters",
	"zh": "{0}只能使用字母、数字以及 . _ @ -，必须以字母或数字开头和结尾，且不能连续使用特殊字符",
}

// RegisterTranslations adds messages for the custom tags to trans
// RegisterTranslations 为自定义标签注册翻译
func RegisterTranslations(v *validator.Validate, trans ut.Translator) error {
	msg, ok := displayNameMessages[trans.Locale()]
	if !ok {
		msg = displayNameMessages["en"]
	}
	return v.RegisterTranslation(TagDisplayName, trans,
		func(ut ut.Translator) error {
			return ut.Add(TagDisplayName, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(TagDisplayName, fe.Field())
			return t
		},
	)
}
