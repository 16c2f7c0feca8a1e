package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/ecommapi/internal/models"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,30}$`)

var (
	validatorOnce sync.Once
	sharedValid   *validator.Validate
)

// RegisterValidations 注册业务校验规则，gin 的 binding 引擎复用同一套规则
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// Money 按数值参与 gt/gte 等比较
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if m, ok := field.Interface().(models.Money); ok {
			return m.Decimal.InexactFloat64()
		}
		return nil
	}, models.Money{})
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

func defaultValidator() *validator.Validate {
	validatorOnce.Do(func() {
		sharedValid = validator.New()
		if err := RegisterValidations(sharedValid); err != nil {
			panic(fmt.Errorf("register validations: %w", err))
		}
	})
	return sharedValid
}

// validateStruct 校验输入结构体，返回首个字段级错误
func validateStruct(input interface{}) error {
	return TranslateValidationError(defaultValidator().Struct(input))
}

// TranslateValidationError 把 validator 错误转换为字段级业务错误
func TranslateValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError("", err.Error())
	}
	first := fieldErrs[0]
	return validationError(first.Field(), describeFieldError(first))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "datetime":
		return "Date has wrong format. Use YYYY-MM-DD."
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field is no greater than %s.", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
