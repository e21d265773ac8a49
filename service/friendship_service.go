package service

import (
	"context"
	"errors"
	"fmt"

	"alerta_social/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendshipService owns the amigos state machine:
// pendente -> aceito | recusado (target only), recusado -> pendente (original requester resends).
type FriendshipService struct {
	db *gorm.DB
}

func NewFriendshipService(db *gorm.DB) *FriendshipService {
	return &FriendshipService{db: db}
}

// findPair returns the most recent row for the unordered pair {a, b}.
func findPair(db *gorm.DB, a, b uint) (*model.Friendship, error) {
	var friendship model.Friendship
	err := db.
		Where("(usuario_id = ? AND amigo_id = ?) OR (usuario_id = ? AND amigo_id = ?)", a, b, b, a).
		Order("id DESC").
		First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	return &friendship, nil
}

// Request creates a pendente request, or reopens a recusado one sent by the same requester.
// Both user rows are locked in id order, so A->B and B->A racing each other
// see one another's row instead of both inserting.
func (s *FriendshipService) Request(ctx context.Context, requesterID, targetID uint) (*model.Friendship, error) {
	if requesterID == targetID {
		return nil, ErrSelfAction
	}

	var result *model.Friendship
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id IN ?", []uint{requesterID, targetID}).
			Order("id").
			Find(&users).Error; err != nil {
			return fmt.Errorf("failed to lock users: %w", err)
		}
		targetFound := false
		for _, u := range users {
			if u.ID == targetID {
				targetFound = true
			}
		}
		if !targetFound {
			return fmt.Errorf("user %d: %w", targetID, ErrNotFound)
		}

		existing, err := findPair(tx, requesterID, targetID)
		if err != nil {
			return err
		}

		if existing != nil {
			switch existing.Status {
			case model.FriendshipPending:
				return fmt.Errorf("friend request already pending: %w", ErrAlreadyExists)
			case model.FriendshipAccepted:
				return fmt.Errorf("users are already friends: %w", ErrAlreadyExists)
			case model.FriendshipRejected:
				if existing.RequesterID == requesterID {
					update := tx.Model(&model.Friendship{}).
						Where("id = ? AND status = ?", existing.ID, model.FriendshipRejected).
						Update("status", model.FriendshipPending)
					if update.Error != nil {
						return fmt.Errorf("failed to reopen friend request: %w", update.Error)
					}
					if update.RowsAffected == 0 {
						return ErrInvalidTransition
					}
					existing.Status = model.FriendshipPending
					result = existing
					return nil
				}
			}
		}

		friendship := &model.Friendship{
			RequesterID: requesterID,
			TargetID:    targetID,
			Status:      model.FriendshipPending,
		}
		if err := tx.Create(friendship).Error; err != nil {
			return fmt.Errorf("failed to create friend request: %w", err)
		}
		result = friendship
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Accept moves a pendente request to aceito. Only the target may accept.
func (s *FriendshipService) Accept(ctx context.Context, friendshipID, userID uint) (*model.Friendship, error) {
	return s.respond(ctx, friendshipID, userID, model.FriendshipAccepted)
}

// Reject moves a pendente request to recusado. Only the target may reject.
func (s *FriendshipService) Reject(ctx context.Context, friendshipID, userID uint) (*model.Friendship, error) {
	return s.respond(ctx, friendshipID, userID, model.FriendshipRejected)
}

func (s *FriendshipService) respond(ctx context.Context, friendshipID, userID uint, status string) (*model.Friendship, error) {
	var friendship model.Friendship
	if err := s.db.WithContext(ctx).First(&friendship, friendshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("friend request %d: %w", friendshipID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}

	if friendship.TargetID != userID {
		return nil, ErrForbidden
	}
	if friendship.Status != model.FriendshipPending {
		return nil, ErrInvalidTransition
	}

	// conditional update so two concurrent answers cannot both win
	result := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("id = ? AND status = ?", friendship.ID, model.FriendshipPending).
		Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update friend request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	friendship.Status = status
	return &friendship, nil
}

// ListPending returns pendente requests addressed to userID.
func (s *FriendshipService) ListPending(ctx context.Context, userID uint) ([]model.Friendship, error) {
	var requests []model.Friendship
	err := s.db.WithContext(ctx).
		Where("amigo_id = ? AND status = ?", userID, model.FriendshipPending).
		Order("criado_em DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	return requests, nil
}

// AreFriends reports whether a and b have an aceito row.
func (s *FriendshipService) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	friendship, err := findPair(s.db.WithContext(ctx), a, b)
	if err != nil {
		return false, err
	}
	return friendship != nil && friendship.Status == model.FriendshipAccepted, nil
}
