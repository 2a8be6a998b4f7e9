package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all student-facing learning routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course", middleware.JWTMiddleware)

	// Enrollment
	courseGroup.Post("/:course_id/enroll", validators.EnrollCourse(), controllers.EnrollInCourse)
	courseGroup.Delete("/:course_id/enroll", validators.EnrollCourse(), controllers.UnenrollFromCourse)

	// Progress tracking
	courseGroup.Get("/:course_id/progress", validators.GetCourseProgress(), controllers.GetUserProgress)

	// Topics
	topicGroup := app.Group("/topic", middleware.JWTMiddleware)
	topicGroup.Get("/:topic_id/access", validators.TopicAction(), controllers.GetTopicAccess)
	topicGroup.Post("/:topic_id/start", validators.TopicAction(), controllers.StartTopic)
	topicGroup.Post("/:topic_id/complete", validators.TopicAction(), controllers.CompleteTopic)
	topicGroup.Post("/:topic_id/skip", validators.TopicAction(), controllers.SkipTopic)

	// Quizzes
	quizGroup := app.Group("/quiz", middleware.JWTMiddleware)
	quizGroup.Get("/:quiz_id", validators.GetQuiz(), controllers.GetQuiz)
	quizGroup.Post("/:quiz_id/submit", validators.SubmitQuiz(), controllers.SubmitQuizAnswers)
	quizGroup.Get("/:quiz_id/attempts", validators.ListAttempts(), controllers.GetQuizAttempts)
}
