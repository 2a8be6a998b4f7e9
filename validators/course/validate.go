package courseValidator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
)

var validate = validator.New()

// pathID validates one route parameter and stashes the trimmed value under
// local.
func pathID(param, local string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Params(param))
		if err := validate.Var(id, "required,max=64,printascii"); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{param: idMessage(param, err)})
		}
		if strings.ContainsAny(id, " /") {
			return middleware.ValidationErrorResponse(c, map[string]string{param: param + " contains invalid characters!"})
		}
		c.Locals(local, id)
		return c.Next()
	}
}

func idMessage(param string, err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].Tag() {
		case "required":
			return param + " is required!"
		case "max":
			return param + " must not exceed 64 characters!"
		}
	}
	return param + " is invalid!"
}

// fieldErrors turns validator errors into the field -> message map the
// response envelope carries.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["body"] = "Invalid request body!"
		return out
	}
	for _, fe := range ve {
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		switch fe.Tag() {
		case "required":
			out[name] = fmt.Sprintf("%s is required!", name)
		case "max":
			out[name] = fmt.Sprintf("%s must not exceed %s!", name, fe.Param())
		case "min":
			out[name] = fmt.Sprintf("%s must be at least %s!", name, fe.Param())
		default:
			out[name] = fmt.Sprintf("%s is invalid!", name)
		}
	}
	return out
}
