package handlers

import (
	"time"

	"geomark/internal/models"
	"geomark/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// StaticImgPrefix is the URL prefix uploaded images are served under. Stored
// image references are bare filename tokens; every read path renders them
// through imageURL so the prefix is applied uniformly.
const StaticImgPrefix = "/static/img/"

// Comment and reply bodies are plain text; strip any markup instead of
// rendering it.
var textPolicy = bluemonday.StrictPolicy()

// JSONError writes the API's error envelope.
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

func imageURL(ref *string) *string {
	if ref == nil || *ref == "" {
		// Null stays null, never "" or a placeholder path.
		return nil
	}
	u := StaticImgPrefix + *ref
	return &u
}

type commentJSON struct {
	ID        uint      `json:"id"`
	UserID    *uint     `json:"user_id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	ImgURL    *string   `json:"img_url"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}

type commentWithRepliesJSON struct {
	commentJSON
	Replies []replyJSON `json:"replies"`
}

type replyJSON struct {
	ID        uint      `json:"id"`
	CommentID uint      `json:"comment_id"`
	UserID    *uint     `json:"user_id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	ImgURL    *string   `json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentJSON(c *models.Comment) commentJSON {
	return commentJSON{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Text:      c.Text,
		ImgURL:    imageURL(c.ImgURL),
		Lat:       c.Lat,
		Lng:       c.Lng,
		CreatedAt: c.CreatedAt,
	}
}

func toCommentListJSON(comments []models.Comment) []commentJSON {
	out := make([]commentJSON, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentJSON(&comments[i]))
	}
	return out
}

func toCommentWithRepliesJSON(c *store.CommentWithReplies) commentWithRepliesJSON {
	return commentWithRepliesJSON{
		commentJSON: toCommentJSON(&c.Comment),
		Replies:     toReplyListJSON(c.Replies),
	}
}

func toReplyJSON(r *models.Reply) replyJSON {
	return replyJSON{
		ID:        r.ID,
		CommentID: r.CommentID,
		UserID:    r.UserID,
		Name:      r.Name,
		Text:      r.Text,
		ImgURL:    imageURL(r.ImgURL),
		CreatedAt: r.CreatedAt,
	}
}

func toReplyListJSON(replies []models.Reply) []replyJSON {
	out := make([]replyJSON, 0, len(replies))
	for i := range replies {
		out = append(out, toReplyJSON(&replies[i]))
	}
	return out
}
