package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/apperr"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/prerequisite"
	"coursehub/services"
)

var (
	learning *services.LearningService
	log      = logger.Nop()
)

// Init wires the handlers to the learning service. Must run before routes
// are served.
func Init(svc *services.LearningService, baseLog *logger.Logger) {
	learning = svc
	log = baseLog.With("controller", "course")
}

// errorResponse maps a service error onto the envelope. Configuration errors
// list every problem found.
func errorResponse(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	switch {
	case apperr.IsConfiguration(err):
		return middleware.JsonResponse(c, status, false, "Course configuration is invalid!", fiber.Map{
			"kind":     apperr.KindOf(err),
			"problems": strings.Split(err.Error(), "\n"),
		})
	case status == fiber.StatusInternalServerError:
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return middleware.JsonResponse(c, status, false, "Something went wrong!", nil)
	}
	return middleware.JsonResponse(c, status, false, err.Error(), nil)
}

func accessDenied(c *fiber.Ctx, d prerequisite.Decision) error {
	return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", fiber.Map{
		"reason":     d.Reason,
		"unlocks_at": d.UnlocksAt,
	})
}

func EnrollInCourse(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(string)

	enrollment, err := learning.Enroll(c.UserContext(), actor, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled in course successfully!", enrollment)
}

func UnenrollFromCourse(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(string)

	enrollment, err := learning.Unenroll(c.UserContext(), actor, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Unenrolled from course!", enrollment)
}

func GetUserProgress(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals("courseID").(string)

	view, err := learning.GetProgress(c.UserContext(), actor, courseID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", view)
}
