package shared

import (
	"sync"

	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	bindingOnce sync.Once
	bindingErr  error
)

// RegisterBindingValidations 让 gin 绑定使用 validate 标签与业务校验规则
func RegisterBindingValidations() error {
	bindingOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.SetTagName("validate")
		bindingErr = service.RegisterValidations(v)
	})
	return bindingErr
}
