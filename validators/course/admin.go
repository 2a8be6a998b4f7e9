package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
)

type PrerequisiteRequest struct {
	// nil clears the prerequisite.
	PrerequisiteID *string `json:"prerequisite_id" validate:"omitempty,min=1,max=64,printascii"`
}

func PublishCourse() fiber.Handler {
	return pathID("course_id", "courseID")
}

func ArchiveCourse() fiber.Handler {
	return pathID("course_id", "courseID")
}

func ValidateQuiz() fiber.Handler {
	return pathID("quiz_id", "quizID")
}

func SetModulePrerequisite() fiber.Handler {
	return prerequisite("module_id", "moduleID")
}

func SetTopicPrerequisite() fiber.Handler {
	return prerequisite("topic_id", "topicID")
}

func prerequisite(param, local string) fiber.Handler {
	check := pathID(param, local)
	return func(c *fiber.Ctx) error {
		reqData := new(PrerequisiteRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.PrerequisiteID != nil {
			trimmed := strings.TrimSpace(*reqData.PrerequisiteID)
			reqData.PrerequisiteID = &trimmed
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedPrerequisite", reqData)
		return check(c)
	}
}
