package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alerta_social/model"

	"gorm.io/gorm"
)

// PostService is the minimal write path for postagens, curtidas and comentarios.
// Callers hand the results to Emitters once the write has committed.
type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// CreatePost stores a new notice.
func (s *PostService) CreatePost(ctx context.Context, userID uint, content, postType string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", ErrInvalidInput)
	}
	if postType == "" {
		postType = "alerta"
	}

	post := &model.Post{UserID: userID, Content: content, Type: postType}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetPost loads a post by id.
func (s *PostService) GetPost(ctx context.Context, postID uint) (*model.Post, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// DeletePost removes a post with its likes and comments. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("postagem_id = ?", postID).Delete(&model.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		if err := tx.Where("postagem_id = ?", postID).Delete(&model.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Delete(&model.Post{}, postID).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

// ToggleLike likes the post, or removes the like when it already exists.
// It returns the post, whether the post is now liked, and the like total.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*model.Post, bool, int64, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, false, 0, err
	}

	liked := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("postagem_id = ? AND usuario_id = ?", postID, userID).Delete(&model.Like{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove like: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(&model.Like{PostID: postID, UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to create like: %w", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return nil, false, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Like{}).Where("postagem_id = ?", postID).Count(&total).Error; err != nil {
		return nil, false, 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return post, liked, total, nil
}

// AddComment stores a comment on an existing post.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, content string) (*model.Comment, *model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("content is required: %w", ErrInvalidInput)
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}

	comment := &model.Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, post, nil
}

// DeleteComment removes a comment. The comment author or the post author may delete.
// It returns the deleted comment and the remaining comment total of its post.
func (s *PostService) DeleteComment(ctx context.Context, userID, commentID uint) (*model.Comment, int64, error) {
	var comment model.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.UserID != userID {
		post, err := s.GetPost(ctx, comment.PostID)
		if err != nil {
			return nil, 0, err
		}
		if post.UserID != userID {
			return nil, 0, ErrForbidden
		}
	}

	if err := s.db.WithContext(ctx).Delete(&model.Comment{}, comment.ID).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to delete comment: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("postagem_id = ?", comment.PostID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return &comment, total, nil
}
