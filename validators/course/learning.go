package courseValidator

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
)

type SubmitQuizRequest struct {
	Answers   map[string][]string `json:"answers" validate:"max=500,dive,keys,required,max=64,endkeys,max=50,dive,max=2000"`
	StartedAt *time.Time          `json:"started_at"`
	Practice  bool                `json:"practice"`
}

func EnrollCourse() fiber.Handler {
	return pathID("course_id", "courseID")
}

func GetCourseProgress() fiber.Handler {
	return pathID("course_id", "courseID")
}

// TopicAction covers access, start, complete and skip.
func TopicAction() fiber.Handler {
	return pathID("topic_id", "topicID")
}

func GetQuiz() fiber.Handler {
	check := pathID("quiz_id", "quizID")
	return func(c *fiber.Ctx) error {
		c.Locals("practice", c.QueryBool("practice", false))
		return check(c)
	}
}

func ListAttempts() fiber.Handler {
	return pathID("quiz_id", "quizID")
}

func SubmitQuiz() fiber.Handler {
	check := pathID("quiz_id", "quizID")
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}
		if reqData.StartedAt != nil && reqData.StartedAt.After(time.Now().Add(time.Minute)) {
			return middleware.ValidationErrorResponse(c, map[string]string{"started_at": "started_at cannot be in the future!"})
		}

		c.Locals("validatedSubmission", reqData)
		return check(c)
	}
}
