package controllers

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
	courseValidator "coursehub/validators/course"
)

func AdminPublishCourse(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(string)

	course, err := learning.PublishCourse(c.UserContext(), actor, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", course)
}

func AdminArchiveCourse(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(string)

	if err := learning.ArchiveCourse(c.UserContext(), actor, courseID); err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course archived successfully!", nil)
}

func AdminSetModulePrerequisite(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	moduleID := c.Locals("moduleID").(string)
	reqData := c.Locals("validatedPrerequisite").(*courseValidator.PrerequisiteRequest)

	if err := learning.SetModulePrerequisite(c.UserContext(), actor, moduleID, reqData.PrerequisiteID); err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module prerequisite updated!", reqData)
}

func AdminSetTopicPrerequisite(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	topicID := c.Locals("topicID").(string)
	reqData := c.Locals("validatedPrerequisite").(*courseValidator.PrerequisiteRequest)

	if err := learning.SetTopicPrerequisite(c.UserContext(), actor, topicID, reqData.PrerequisiteID); err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic prerequisite updated!", reqData)
}

func AdminValidateQuiz(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	quizID := c.Locals("quizID").(string)

	warnings, err := learning.ValidateQuiz(c.UserContext(), actor, quizID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz configuration is valid!", fiber.Map{
		"warnings": warnings,
	})
}
