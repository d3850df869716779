package server

import (
	"context"

	"socialgraph/internal/models"
	"socialgraph/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/follows/:userId
func (s *Server) Follow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	follow, err := s.follows.AddFollower(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.notifier.Notify(ctx, targetID, notifications.EventFollowerAdded, map[string]any{
		"follower": userID,
	})

	return c.Status(fiber.StatusCreated).JSON(follow)
}

// Unfollow handles DELETE /api/follows/:userId
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	removed, err := s.follows.RemoveFollower(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// GetFollowStatus handles GET /api/follows/:userId
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ok, err := s.follows.Follows(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"follows": ok})
}

// GetFollowCounts handles GET /api/follows/counts
func (s *Server) GetFollowCounts(c *fiber.Ctx) error {
	counts, err := s.follows.FollowCounts(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(counts)
}

func (s *Server) respondUserList(c *fiber.Ctx, key string, userID uint, list func(context.Context, uint) ([]uint, error)) error {
	ids, err := list(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"user": userID,
		key:    ids,
	})
}

// GetMyFollowers handles GET /api/followers
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	return s.respondUserList(c, "followers", currentUserID(c), s.follows.Followers)
}

// GetMyFollowing handles GET /api/following
func (s *Server) GetMyFollowing(c *fiber.Ctx) error {
	return s.respondUserList(c, "following", currentUserID(c), s.follows.Following)
}

// GetUserFollowers handles GET /api/users/:userId/followers
func (s *Server) GetUserFollowers(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	return s.respondUserList(c, "followers", targetID, s.follows.Followers)
}

// GetUserFollowing handles GET /api/users/:userId/following
func (s *Server) GetUserFollowing(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	return s.respondUserList(c, "following", targetID, s.follows.Following)
}
