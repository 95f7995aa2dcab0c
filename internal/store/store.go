package store

import (
	"context"
	"errors"
	"fmt"

	"geomark/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for any entity lookup miss.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when registration hits the unique
	// index on users.username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrParentNotFound is returned when a reply references a comment that
	// does not exist.
	ErrParentNotFound = errors.New("parent comment not found")
)

// Store owns all persistent records for users, comments and replies. Every
// multi-step write runs as a single transaction; failed storage calls are
// wrapped and surfaced immediately, never retried.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new user. Uniqueness is enforced by the database's
// unique index, not by a check-then-insert, so concurrent registrations of
// the same username cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := models.User{
		Username: username,
		Password: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}

// CreateComment inserts a geotagged comment and returns the fully
// materialized record (id and created_at assigned). ownerID is nil for
// anonymous comments; imageRef is a bare filename token or nil.
func (s *Store) CreateComment(ctx context.Context, name, text string, lat, lng float64, ownerID *uint, imageRef *string) (*models.Comment, error) {
	comment := models.Comment{
		UserID: ownerID,
		Name:   name,
		Text:   text,
		ImgURL: imageRef,
		Lat:    lat,
		Lng:    lng,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// CreateReply inserts a reply under an existing comment. The parent check
// and the insert run in one transaction so the reply cannot be attached to
// a comment that a concurrent caller is deleting.
func (s *Store) CreateReply(ctx context.Context, commentID uint, name, text string, ownerID *uint, imageRef *string) (*models.Reply, error) {
	reply := models.Reply{
		CommentID: commentID,
		UserID:    ownerID,
		Name:      name,
		Text:      text,
		ImgURL:    imageRef,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).Count(&exists).Error; err != nil {
			return fmt.Errorf("check parent comment: %w", err)
		}
		if exists == 0 {
			return ErrParentNotFound
		}
		if err := tx.Create(&reply).Error; err != nil {
			return fmt.Errorf("create reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteComment removes a comment and all of its replies, but only when the
// comment is owned by requesterID. The returned count is 0 both when the
// comment does not exist and when it belongs to someone else; callers cannot
// distinguish the two from this call alone.
func (s *Store) DeleteComment(ctx context.Context, commentID, requesterID uint) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The reply cascade is guarded by the same ownership predicate so
		// it can never fire for a comment the requester does not own.
		res := tx.Where(
			"comment_id = ? AND EXISTS (SELECT 1 FROM comments WHERE comments.id = ? AND comments.user_id = ?)",
			commentID, commentID, requesterID,
		).Delete(&models.Reply{})
		if res.Error != nil {
			return fmt.Errorf("delete replies of comment %d: %w", commentID, res.Error)
		}

		res = tx.Where("id = ? AND user_id = ?", commentID, requesterID).Delete(&models.Comment{})
		if res.Error != nil {
			return fmt.Errorf("delete comment %d: %w", commentID, res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DeleteReply removes a single reply with the same ownership-gated,
// collapsed-count semantics as DeleteComment. Replies have no children, so
// there is nothing to cascade.
func (s *Store) DeleteReply(ctx context.Context, replyID, requesterID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", replyID, requesterID).Delete(&models.Reply{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete reply %d: %w", replyID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) GetCommentByID(ctx context.Context, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment %d: %w", commentID, err)
	}
	return &comment, nil
}

// GetRepliesByComment returns a comment's replies in ascending creation
// order. Re-querying returns current state; there is no cursor to resume.
func (s *Store) GetRepliesByComment(ctx context.Context, commentID uint) ([]models.Reply, error) {
	replies := make([]models.Reply, 0)
	err := s.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("get replies of comment %d: %w", commentID, err)
	}
	return replies, nil
}

// GetCommentWithReplies assembles a comment together with its ordered reply
// list, or ErrNotFound when the comment does not exist.
func (s *Store) GetCommentWithReplies(ctx context.Context, commentID uint) (*models.Comment, []models.Reply, error) {
	comment, err := s.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.GetRepliesByComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	return comment, replies, nil
}
