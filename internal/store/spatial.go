package store

import (
	"context"
	"fmt"

	"geomark/internal/models"
)

// DefaultRadius is the half-width, in degrees, of the bounding box used by
// ListByLocation when the caller does not pass a radius. Latitude/longitude
// degrees are treated as a flat proxy for distance; this is an approximation
// for small map scales, not a geodesic calculation.
const DefaultRadius = 0.001

// CommentWithReplies pairs a comment with its full, ascending-ordered reply
// list for the nearby-comments view.
type CommentWithReplies struct {
	models.Comment
	Replies []models.Reply `json:"replies"`
}

// ListByLocation returns every comment whose coordinate falls in
// [lat-radius, lat+radius] x [lng-radius, lng+radius], oldest first, with
// replies eagerly attached. The per-comment reply fetch makes this a
// read-amplifying join; callers that only need markers should use
// ListInBounds instead.
func (s *Store) ListByLocation(ctx context.Context, lat, lng, radius float64) ([]CommentWithReplies, error) {
	if radius <= 0 {
		radius = DefaultRadius
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", lat-radius, lat+radius, lng-radius, lng+radius).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments near (%f, %f): %w", lat, lng, err)
	}

	out := make([]CommentWithReplies, 0, len(comments))
	for _, comment := range comments {
		replies, err := s.GetRepliesByComment(ctx, comment.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CommentWithReplies{Comment: comment, Replies: replies})
	}
	return out, nil
}

// ListInBounds returns the comments inside the rectangle spanned by the
// southwest and northeast corners. No replies are attached; this is the
// lightweight marker query for viewport rendering.
func (s *Store) ListInBounds(ctx context.Context, swLat, swLng, neLat, neLng float64) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", swLat, neLat, swLng, neLng).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments in bounds: %w", err)
	}
	return comments, nil
}

// ListLatestPerLocation returns, for each distinct (lat, lng) pair, only the
// most recently created comment. Grouping uses exact floating-point equality:
// two comments collapse into one marker only when their coordinates are
// bit-identical, which holds in practice because both come from the same map
// click in the client. The id tiebreak is safe because ids follow insertion
// order.
func (s *Store) ListLatestPerLocation(ctx context.Context) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("comments.id = (SELECT c2.id FROM comments c2 WHERE c2.lat = comments.lat AND c2.lng = comments.lng ORDER BY c2.created_at DESC, c2.id DESC LIMIT 1)").
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list latest comment per location: %w", err)
	}
	return comments, nil
}
