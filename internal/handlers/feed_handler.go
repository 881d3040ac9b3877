package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	boostRepository     repositories.BoostRepository
	savedPostRepository repositories.SavedPostRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	boostRepo repositories.BoostRepository,
	savedPostRepo repositories.SavedPostRepository,
) *FeedHandler {
	return &FeedHandler{
		postRepository:      postRepo,
		userRepository:      userRepo,
		boostRepository:     boostRepo,
		savedPostRepository: savedPostRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedPost is a post with author info and viewer-specific boost/save state
type EnrichedPost struct {
	models.Post
	Author     models.UserCompact `json:"author"`
	IsBoosted  bool               `json:"is_boosted"`
	CanUnboost bool               `json:"can_unboost"`
	IsSaved    bool               `json:"is_saved"`
}

// GetFeed returns enriched feed posts for the current user. The viewer flags
// carried on each item are what hydrates the client-side state mirror.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	skip := int64((page - 1) * limit)

	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Get total count for pagination
	allPosts, err := h.postRepository.GetAllPosts(c.Request().Context(), 0, 10000)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	totalItems := len(allPosts)

	// Collect unique author UIDs and post ids
	authorUIDs := make(map[string]bool)
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		authorUIDs[p.UserID] = true
		postIDs[i] = p.ID.Hex()
	}

	// Build author map by Firebase UID
	userMap := make(map[string]models.UserCompact)
	for uid := range authorUIDs {
		if user, err := h.userRepository.GetUserByFirebaseUID(uid); err == nil {
			userMap[uid] = user.ToCompact()
		}
	}

	// Viewer-specific boost/save state
	boostedMap := make(map[string]bool)
	savedMap := make(map[string]bool)
	canUnboostMap := make(map[string]bool)
	if currentUserID > 0 {
		boostedMap, _ = h.boostRepository.GetBoostedPostIDs(currentUserID, postIDs)
		savedMap, _ = h.savedPostRepository.GetSavedPostIDs(currentUserID, postIDs)
		now := time.Now()
		for pid, boosted := range boostedMap {
			if boosted {
				canUnboostMap[pid], _ = h.boostRepository.CanUnboost(pid, currentUserID, now)
			}
		}
	}

	enrichedPosts := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		pid := p.ID.Hex()
		enrichedPosts[i] = EnrichedPost{
			Post:       p,
			Author:     userMap[p.UserID],
			IsBoosted:  boostedMap[pid],
			CanUnboost: canUnboostMap[pid],
			IsSaved:    savedMap[pid],
		}
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enrichedPosts,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      totalItems,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}
