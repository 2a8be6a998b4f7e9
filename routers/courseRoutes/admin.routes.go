package courseRoutes

import (
	"coursehub/authz"
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up course authoring routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware(authz.ActionAuthorCourse))

	// Course lifecycle
	adminGroup.Post("/course/:course_id/publish", validators.PublishCourse(), controllers.AdminPublishCourse)
	adminGroup.Post("/course/:course_id/archive", validators.ArchiveCourse(), controllers.AdminArchiveCourse)

	// Prerequisites
	adminGroup.Put("/module/:module_id/prerequisite", validators.SetModulePrerequisite(), controllers.AdminSetModulePrerequisite)
	adminGroup.Put("/topic/:topic_id/prerequisite", validators.SetTopicPrerequisite(), controllers.AdminSetTopicPrerequisite)

	// Quiz configuration
	adminGroup.Get("/quiz/:quiz_id/validate", validators.ValidateQuiz(), controllers.AdminValidateQuiz)
}
