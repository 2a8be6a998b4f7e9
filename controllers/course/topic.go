package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"coursehub/authz"
	"coursehub/middleware"
	"coursehub/services"
)

// GetTopicAccess answers with the decision itself; a denial is not an error
// here.
func GetTopicAccess(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	topicID := c.Locals("topicID").(string)

	decision, err := learning.TopicAccess(c.UserContext(), actor, topicID)
	if err != nil {
		return errorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access checked!", decision)
}

func StartTopic(c *fiber.Ctx) error {
	return topicAction(c, learning.StartTopic, "Topic started!")
}

func CompleteTopic(c *fiber.Ctx) error {
	return topicAction(c, learning.CompleteTopic, "Topic completed!")
}

func SkipTopic(c *fiber.Ctx) error {
	return topicAction(c, learning.SkipTopic, "Topic prerequisite skipped!")
}

type topicFunc func(ctx context.Context, actor authz.Actor, topicID string) (*services.TopicResult, error)

func topicAction(c *fiber.Ctx, action topicFunc, message string) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	topicID := c.Locals("topicID").(string)

	res, err := action(c.UserContext(), actor, topicID)
	if err != nil {
		return errorResponse(c, err)
	}
	if !res.Access.Accessible {
		return accessDenied(c, res.Access)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, res)
}
