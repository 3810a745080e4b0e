// pkg/validator/validator.go
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 推荐码字符集，排除易混淆字符（0/O、1/I/l）
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var validate *validator.Validate

func init() {
	validate = validator.New()

	// 使用 JSON 标签名作为字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 注册自定义验证规则
	registerCustomValidators()
}

func registerCustomValidators() {
	// 验证推荐码格式：长度 4-16，仅限去混淆字符集
	validate.RegisterValidation("refcode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) < 4 || len(code) > 16 {
			return false
		}
		for _, char := range code {
			if !strings.ContainsRune(codeCharset, char) {
				return false
			}
		}
		return true
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func GetValidator() *validator.Validate {
	return validate
}
