package controllers

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/grading"
	"coursehub/middleware"
	"coursehub/services"
	courseValidator "coursehub/validators/course"
)

func GetQuiz(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	quizID := c.Locals("quizID").(string)
	practice, _ := c.Locals("practice").(bool)

	view, err := learning.GetQuiz(c.UserContext(), actor, quizID, practice)
	if err != nil {
		return errorResponse(c, err)
	}
	if !view.Access.Accessible {
		return accessDenied(c, view.Access)
	}
	if view.Redirect != "" {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No attempt available, showing results.", view)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", view)
}

// SubmitQuizAnswers grades a submission. A refused attempt is answered with
// a results redirect rather than an error.
func SubmitQuizAnswers(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	quizID := c.Locals("quizID").(string)
	reqData := c.Locals("validatedSubmission").(*courseValidator.SubmitQuizRequest)

	res, err := learning.SubmitQuiz(c.UserContext(), actor, quizID, services.Submission{
		Answers:   grading.Submission(reqData.Answers),
		StartedAt: reqData.StartedAt,
		Practice:  reqData.Practice,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	if !res.Access.Accessible {
		return accessDenied(c, res.Access)
	}
	if res.Redirect != "" {
		return middleware.JsonResponse(c, fiber.StatusOK, false, "No attempt available, showing results.", res)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted!", res)
}

func GetQuizAttempts(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	quizID := c.Locals("quizID").(string)

	list, err := learning.ListAttempts(c.UserContext(), actor, quizID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", list)
}
