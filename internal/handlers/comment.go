package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"geomark/internal/middleware"
	"geomark/internal/services"
	"geomark/internal/store"

	"github.com/gin-gonic/gin"
)

// AnonymousName is the display name attached to comments posted without a
// token.
const AnonymousName = "Guest"

var (
	errNotAnImage    = errors.New("only image files are allowed")
	errImageTooLarge = errors.New("image must not exceed 10 MB")
)

type CommentHandler struct {
	store     *store.Store
	uploadDir string
}

func NewCommentHandler(s *store.Store) *CommentHandler {
	return &CommentHandler{
		store:     s,
		uploadDir: services.UploadDir(),
	}
}

// ListByLocation handles GET /api/comments?lat=..&lng=..[&radius=..]. It
// returns the comments around a point with their replies nested, oldest
// first.
func (h *CommentHandler) ListByLocation(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		JSONError(c, http.StatusBadRequest, "Invalid or missing coordinate parameters (lat, lng).")
		return
	}

	radius := 0.0
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			JSONError(c, http.StatusBadRequest, "Invalid radius parameter.")
			return
		}
		radius = r
	}

	comments, err := h.store.ListByLocation(c.Request.Context(), lat, lng, radius)
	if err != nil {
		log.Printf("Failed to list comments near (%f, %f): %v", lat, lng, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	out := make([]commentWithRepliesJSON, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentWithRepliesJSON(&comments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": out})
}

// ListInBounds handles GET /api/comments/all with the four viewport corner
// parameters. Marker-only: no replies attached.
func (h *CommentHandler) ListInBounds(c *gin.Context) {
	swLat, errSWLat := strconv.ParseFloat(c.Query("sw_lat"), 64)
	swLng, errSWLng := strconv.ParseFloat(c.Query("sw_lng"), 64)
	neLat, errNELat := strconv.ParseFloat(c.Query("ne_lat"), 64)
	neLng, errNELng := strconv.ParseFloat(c.Query("ne_lng"), 64)
	if errSWLat != nil || errSWLng != nil || errNELat != nil || errNELng != nil {
		JSONError(c, http.StatusBadRequest, "Invalid or missing bounds parameters (sw_lat, sw_lng, ne_lat, ne_lng).")
		return
	}

	comments, err := h.store.ListInBounds(c.Request.Context(), swLat, swLng, neLat, neLng)
	if err != nil {
		log.Printf("Failed to list comments in bounds: %v", err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": toCommentListJSON(comments)})
}

// ListMarkers handles GET /api/comments/markers: one pin per distinct
// coordinate, carrying the newest comment there.
func (h *CommentHandler) ListMarkers(c *gin.Context) {
	comments, err := h.store.ListLatestPerLocation(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list markers: %v", err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": toCommentListJSON(comments)})
}

// Detail handles GET /api/comments/:id and returns the comment plus its
// ordered replies.
func (h *CommentHandler) Detail(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid comment id.")
		return
	}

	comment, replies, err := h.store.GetCommentWithReplies(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(c, http.StatusNotFound, "Comment not found.")
			return
		}
		log.Printf("Failed to get comment %d: %v", id, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"comment": toCommentJSON(comment),
		"replies": toReplyListJSON(replies),
	})
}

// Create handles POST /api/comments. Authentication is optional: anonymous
// callers post as "Guest" with no owner; authenticated callers post under
// their username and own the comment.
func (h *CommentHandler) Create(c *gin.Context) {
	text := textPolicy.Sanitize(strings.TrimSpace(c.PostForm("text")))
	if text == "" {
		JSONError(c, http.StatusBadRequest, "Missing required parameters (text, lat, lng).")
		return
	}

	latStr, lngStr := c.PostForm("lat"), c.PostForm("lng")
	if latStr == "" || lngStr == "" {
		JSONError(c, http.StatusBadRequest, "Missing required parameters (text, lat, lng).")
		return
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		JSONError(c, http.StatusBadRequest, "Invalid coordinate format.")
		return
	}

	name := AnonymousName
	var ownerID *uint
	if userID, username, ok := middleware.CurrentUser(c); ok {
		name = username
		ownerID = &userID
	}

	imageRef, err := h.saveUploadedImage(c)
	if err != nil {
		h.writeUploadError(c, err)
		return
	}

	comment, err := h.store.CreateComment(c.Request.Context(), name, text, lat, lng, ownerID, imageRef)
	if err != nil {
		log.Printf("Failed to create comment by %q: %v", name, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": toCommentJSON(comment)})
}

// Delete handles DELETE /api/comments/:id. The store collapses "not found"
// and "not yours" into an affected count of 0; like the original API, the
// handler re-fetches to pick between 404 and 403 for the response code.
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid comment id.")
		return
	}

	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	affected, err := h.store.DeleteComment(c.Request.Context(), id, userID)
	if err != nil {
		log.Printf("Failed to delete comment %d for user %d: %v", id, userID, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if affected == 0 {
		if _, err := h.store.GetCommentByID(c.Request.Context(), id); errors.Is(err, store.ErrNotFound) {
			JSONError(c, http.StatusNotFound, "Comment not found.")
			return
		}
		JSONError(c, http.StatusForbidden, "Delete failed, you may not have permission for this comment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Comment deleted."})
}

// CreateReply handles POST /api/replies. Requires authentication.
func (h *CommentHandler) CreateReply(c *gin.Context) {
	userID, username, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	commentID, err := parseID(c.PostForm("comment_id"))
	if err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid comment id.")
		return
	}
	text := textPolicy.Sanitize(strings.TrimSpace(c.PostForm("text")))
	if text == "" {
		JSONError(c, http.StatusBadRequest, "Required fields (comment_id, text) must not be empty.")
		return
	}

	imageRef, err := h.saveUploadedImage(c)
	if err != nil {
		h.writeUploadError(c, err)
		return
	}

	reply, err := h.store.CreateReply(c.Request.Context(), commentID, username, text, &userID, imageRef)
	if err != nil {
		if errors.Is(err, store.ErrParentNotFound) {
			JSONError(c, http.StatusNotFound, "The comment being replied to does not exist.")
			return
		}
		log.Printf("Failed to create reply to comment %d: %v", commentID, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "reply": toReplyJSON(reply)})
}

// DeleteReply handles DELETE /api/replies/:id with the same collapsed
// ownership semantics as comment deletion.
func (h *CommentHandler) DeleteReply(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		JSONError(c, http.StatusBadRequest, "Invalid reply id.")
		return
	}

	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		JSONError(c, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	affected, err := h.store.DeleteReply(c.Request.Context(), id, userID)
	if err != nil {
		log.Printf("Failed to delete reply %d for user %d: %v", id, userID, err)
		JSONError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if affected == 0 {
		JSONError(c, http.StatusForbidden, "Delete failed or you do not have permission.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Reply deleted."})
}

func (h *CommentHandler) saveUploadedImage(c *gin.Context) (*string, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		// No image field; uploads are optional.
		return nil, nil
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil, errNotAnImage
	}
	if header.Size > services.MaxImageSize {
		return nil, errImageTooLarge
	}

	name, err := services.SaveImage(file, header, h.uploadDir)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

func (h *CommentHandler) writeUploadError(c *gin.Context, err error) {
	if errors.Is(err, errNotAnImage) || errors.Is(err, errImageTooLarge) {
		JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("Failed to store uploaded image: %v", err)
	JSONError(c, http.StatusInternalServerError, "Failed to store the uploaded image.")
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
