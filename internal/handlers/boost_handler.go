package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/events"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/repositories"
	"github.com/labstack/echo/v4"
)

// BoostHandler handles HTTP requests related to boosts
type BoostHandler struct {
	boostRepository  repositories.BoostRepository
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	walletRepository repositories.WalletRepository
	publisher        events.Publisher
}

// NewBoostHandler creates a new BoostHandler
func NewBoostHandler(
	boostRepo repositories.BoostRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	publisher events.Publisher,
) *BoostHandler {
	return &BoostHandler{
		boostRepository:  boostRepo,
		postRepository:   postRepo,
		userRepository:   userRepo,
		walletRepository: walletRepo,
		publisher:        publisher,
	}
}

// RegisterBoostRoutes registers boost-related routes
func (h *BoostHandler) RegisterBoostRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/boost", h.BoostPost)
	g.DELETE("/posts/:post_id/boost", h.UnboostPost)
	g.GET("/posts/:post_id/boosts/count", h.GetBoostCountForPost)
	g.GET("/posts/:post_id/boosts/status", h.GetUserBoostStatusForPost)
	g.GET("/posts/boosted", h.GetBoostedPosts)
	g.GET("/users/:user_id/received-boosts", h.GetReceivedBoosts)
}

// BoostPost casts a boost on a post, debiting one point from the viewer
func (h *BoostHandler) BoostPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Boosting your own post is forbidden
	if post.UserID == getFirebaseUIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot boost your own post")
	}

	hasBoosted, err := h.boostRepository.HasUserBoostedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasBoosted {
		return echo.NewHTTPError(http.StatusConflict, "Post already boosted by this user")
	}

	wallet, earnings, err := h.walletRepository.GetBalance(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if wallet+earnings < models.BoostCost {
		return echo.NewHTTPError(http.StatusPaymentRequired, "Insufficient balance to boost")
	}

	boost := &models.Boost{
		PostID: postID,
		UserID: currentUserID,
	}
	if err := h.boostRepository.CreateBoost(boost); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.walletRepository.DebitBoost(currentUserID, post.UserID, postID); err != nil {
		// Keep the ledger honest: a failed debit voids the boost row.
		h.boostRepository.DeleteBoost(postID, currentUserID)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Maintain the denormalized count and fan out the change feed
	go h.postRepository.IncrementBoostsCount(context.Background(), postID)
	go h.publisher.PublishBoostInsert(context.Background(), postID, currentUserID)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data": echo.Map{
			"boosted":     true,
			"can_unboost": true,
		},
	})
}

// UnboostPost withdraws the viewer's boost while still inside the undo window
func (h *BoostHandler) UnboostPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	boost, err := h.boostRepository.GetBoost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Boost not found")
	}
	if !boost.WithinUnboostWindow(time.Now()) {
		return echo.NewHTTPError(http.StatusConflict, "Unboost window has expired")
	}

	if err := h.boostRepository.DeleteBoost(postID, currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.walletRepository.RefundBoost(currentUserID, post.UserID, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.postRepository.DecrementBoostsCount(context.Background(), postID)
	go h.publisher.PublishBoostDelete(context.Background(), postID, currentUserID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"boosted":     false,
			"can_unboost": false,
		},
	})
}

// GetBoostCountForPost retrieves the authoritative boost count for a post
func (h *BoostHandler) GetBoostCountForPost(c echo.Context) error {
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	count, err := h.boostRepository.GetBoostCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "boosts_count": count})
}

// GetUserBoostStatusForPost reports whether the viewer has boosted the post
// and whether the boost is still inside the undo window
func (h *BoostHandler) GetUserBoostStatusForPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	hasBoosted, err := h.boostRepository.HasUserBoostedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	canUnboost := false
	if hasBoosted {
		canUnboost, err = h.boostRepository.CanUnboost(postID, currentUserID, time.Now())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":     postID,
		"user_id":     currentUserID,
		"has_boosted": hasBoosted,
		"can_unboost": canUnboost,
	})
}

// GetBoostedPosts lists the posts the viewer has boosted, most recent boost first
func (h *BoostHandler) GetBoostedPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	boosts, err := h.boostRepository.GetBoostsByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	postIDs := make([]string, len(boosts))
	for i, b := range boosts {
		postIDs[i] = b.PostID
	}
	posts, err := h.postRepository.GetPostsByIDs(c.Request().Context(), postIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Preserve boost recency ordering from the membership rows
	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID.Hex()] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, pid := range postIDs {
		if p, ok := byID[pid]; ok {
			ordered = append(ordered, p)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"posts": ordered})
}

// GetReceivedBoosts lists a user's posts that have received at least one boost
func (h *BoostHandler) GetReceivedBoosts(c echo.Context) error {
	subjectID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	subject, err := h.userRepository.GetUserByID(uint(subjectID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	posts, err := h.postRepository.GetBoostedPostsByAuthor(c.Request().Context(), subject.FirebaseUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}
