package server

import (
	"context"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

type addFriendBody struct {
	ToUser  uint   `json:"to_user"`
	Message string `json:"message"`
}

type friendResponse struct {
	User    uint      `json:"user"`
	Created time.Time `json:"created"`
}

type requestCountsResponse struct {
	Unread     int64 `json:"unread"`
	Unrejected int64 `json:"unrejected"`
}

// AddFriend handles POST /api/friends/requests
func (s *Server) AddFriend(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var body addFriendBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if body.ToUser == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("to_user is required"))
	}

	req, err := s.requests.AddFriend(ctx, userID, body.ToUser, body.Message)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.notifier.Notify(ctx, req.ToUserID, notifications.EventFriendRequestReceived, map[string]any{
		"request_id": req.ID,
		"from_user":  req.FromUserID,
		"message":    req.Message,
	})

	return c.Status(fiber.StatusCreated).JSON(req)
}

func (s *Server) respondRequests(c *fiber.Ctx, list func(context.Context, uint) ([]models.FriendshipRequest, error)) error {
	reqs, err := list(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(reqs)
}

// GetRequests handles GET /api/friends/requests
func (s *Server) GetRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.Requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.SentRequests)
}

// GetUnreadRequests handles GET /api/friends/requests/unread
func (s *Server) GetUnreadRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.UnreadRequests)
}

// GetReadRequests handles GET /api/friends/requests/read
func (s *Server) GetReadRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.ReadRequests)
}

// GetRejectedRequests handles GET /api/friends/requests/rejected
func (s *Server) GetRejectedRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.RejectedRequests)
}

// GetUnrejectedRequests handles GET /api/friends/requests/unrejected
func (s *Server) GetUnrejectedRequests(c *fiber.Ctx) error {
	return s.respondRequests(c, s.requests.UnrejectedRequests)
}

// GetRequestCounts handles GET /api/friends/requests/counts
func (s *Server) GetRequestCounts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	unread, err := s.requests.UnreadCount(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	unrejected, err := s.requests.UnrejectedCount(ctx, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(requestCountsResponse{Unread: unread, Unrejected: unrejected})
}

// loadRequestFor returns the request when userID takes part in it. With
// recipientOnly only the addressee qualifies.
func (s *Server) loadRequestFor(ctx context.Context, requestID, userID uint, recipientOnly bool) (*models.FriendshipRequest, error) {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if recipientOnly && req.ToUserID != userID {
		return nil, models.NewUnauthorizedError("Only the recipient can answer a friend request")
	}
	if !req.Involves(userID) {
		return nil, models.NewUnauthorizedError("You are not part of this friend request")
	}
	return req, nil
}

// GetRequest handles GET /api/friends/requests/:requestId
// The recipient opening a request marks it viewed.
func (s *Server) GetRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, err := s.loadRequestFor(ctx, requestID, userID, false)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if req.ToUserID == userID && !req.IsViewed() {
		if req, err = s.requests.MarkViewed(ctx, requestID); err != nil {
			return models.RespondWithAppError(c, err)
		}
	}

	return c.JSON(req)
}

// AcceptRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.loadRequestFor(ctx, requestID, userID, true); err != nil {
		return models.RespondWithAppError(c, err)
	}

	req, err := s.requests.Accept(ctx, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.notifier.Notify(ctx, req.FromUserID, notifications.EventFriendRequestAccepted, map[string]any{
		"request_id": req.ID,
		"friend":     req.ToUserID,
	})

	return c.JSON(fiber.Map{
		"accepted": true,
		"friend":   req.FromUserID,
	})
}

// RejectRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.loadRequestFor(ctx, requestID, userID, true); err != nil {
		return models.RespondWithAppError(c, err)
	}

	req, err := s.requests.Reject(ctx, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.notifier.Notify(ctx, req.FromUserID, notifications.EventFriendRequestRejected, map[string]any{
		"request_id": req.ID,
	})

	return c.JSON(req)
}

// CancelRequest handles DELETE /api/friends/requests/:requestId
// Either party may cancel. A request that no longer exists is treated as cancelled.
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	req, err := s.loadRequestFor(ctx, requestID, userID, false)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return models.RespondWithAppError(c, err)
	}

	deleted, err := s.requests.Cancel(ctx, requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if deleted {
		other := req.ToUserID
		if other == userID {
			other = req.FromUserID
		}
		s.notifier.Notify(ctx, other, notifications.EventFriendRequestCancelled, map[string]any{
			"request_id": req.ID,
			"by_user":    userID,
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyFriends handles GET /api/friends
func (s *Server) GetMyFriends(c *fiber.Ctx) error {
	edges, err := s.friends.FriendEdges(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	friends := make([]friendResponse, 0, len(edges))
	for _, e := range edges {
		friends = append(friends, friendResponse{User: e.FromUserID, Created: e.CreatedAt})
	}
	return c.JSON(friends)
}

// GetUserFriends handles GET /api/users/:userId/friends
func (s *Server) GetUserFriends(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ids, err := s.friends.Friends(c.UserContext(), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":    targetID,
		"friends": ids,
	})
}

// GetFriendshipStatus handles GET /api/friends/:userId/status
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ok, err := s.friends.AreFriends(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"are_friends": ok})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	removed, err := s.friends.RemoveFriend(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if removed {
		s.notifier.Notify(ctx, targetID, notifications.EventFriendRemoved, map[string]any{
			"by_user": userID,
		})
	}

	return c.JSON(fiber.Map{"removed": removed})
}
