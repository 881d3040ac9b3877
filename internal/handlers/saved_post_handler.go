package handlers

import (
	"context"
	"net/http"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/events"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/repositories"
	"github.com/labstack/echo/v4"
)

// SavedPostHandler handles saved post HTTP requests. Saving is exposed as a
// single idempotent toggle, unlike boosting which has distinct cast and
// withdraw calls with a point cost.
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
	publisher           events.Publisher
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(savedPostRepo repositories.SavedPostRepository, postRepo repositories.PostRepository, publisher events.Publisher) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
		publisher:           publisher,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.ToggleSave)
	g.GET("/posts/saved", h.GetSavedPosts)
}

// ToggleSave flips the saved state of a post for the current user
func (h *SavedPostHandler) ToggleSave(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID := c.Param("id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	isSaved, err := h.savedPostRepository.IsPostSaved(currentUserID, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if isSaved {
		if err := h.savedPostRepository.UnsavePost(currentUserID, postID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		go h.publisher.PublishSaveDelete(context.Background(), postID, currentUserID)
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false}})
	}

	savedPost := &models.SavedPost{
		UserID: currentUserID,
		PostID: postID,
	}
	if err := h.savedPostRepository.SavePost(savedPost); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	go h.publisher.PublishSaveInsert(context.Background(), postID, currentUserID)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": true}})
}

// GetSavedPosts lists the viewer's saved posts, most recently saved first
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	saved, err := h.savedPostRepository.GetSavedPostsByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	postIDs := make([]string, len(saved))
	for i, s := range saved {
		postIDs[i] = s.PostID
	}
	posts, err := h.postRepository.GetPostsByIDs(c.Request().Context(), postIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Preserve save recency ordering from the membership rows
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
