package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"gorm.io/gorm"
)

// SearchPageSize is the number of users shown per search page
const SearchPageSize = 10

// UserRelation pairs a user with how they relate to the viewer
type UserRelation struct {
	User     models.User
	Relation models.Relation
}

// SearchResult is one page of a user search
type SearchResult struct {
	Users    []UserRelation
	Total    int64
	Page     int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// ConnectionService manages friend requests and the friendship relation
type ConnectionService struct {
	store   *repositories.Store
	metrics *metrics.Metrics
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(store *repositories.Store, m *metrics.Metrics) *ConnectionService {
	return &ConnectionService{store: store, metrics: m}
}

// RequestConnection creates a pending edge from fromUserID to toUserID.
// Any existing edge between the pair, whatever its direction or status, refuses the request.
func (s *ConnectionService) RequestConnection(ctx context.Context, fromUserID, toUserID uint) (*models.UserConnect, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfConnection
	}

	connect := &models.UserConnect{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.ConnectPending,
	}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Users.GetUserByID(ctx, toUserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("get user %d: %w", toUserID, err)
		}

		_, err := tx.Connects.GetConnectBetween(ctx, fromUserID, toUserID)
		if err == nil {
			return ErrConnectionExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("get connect: %w", err)
		}

		if err := tx.Connects.CreateConnect(ctx, connect); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConnectionExists
			}
			return fmt.Errorf("create connect: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncConnect("requested")
	return connect, nil
}

// AcceptConnection accepts the pending request fromUserID sent to viewerID.
// A missing request is not an error; accepted is false in that case.
func (s *ConnectionService) AcceptConnection(ctx context.Context, viewerID, fromUserID uint) (bool, error) {
	accepted, err := s.store.Connects.AcceptConnect(ctx, fromUserID, viewerID)
	if err != nil {
		return false, fmt.Errorf("accept connect: %w", err)
	}
	if accepted {
		s.metrics.IncConnect("accepted")
	}
	return accepted, nil
}

// IsFriend reports whether the two users are friends
func (s *ConnectionService) IsFriend(ctx context.Context, userID, otherUserID uint) (bool, error) {
	ok, err := s.store.Connects.IsFriend(ctx, userID, otherUserID)
	if err != nil {
		return false, fmt.Errorf("is friend: %w", err)
	}
	return ok, nil
}

// ListFriends returns the viewer's friends
func (s *ConnectionService) ListFriends(ctx context.Context, viewerID uint) ([]models.User, error) {
	users, err := s.store.Connects.GetFriends(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return users, nil
}

// ListIncomingRequests returns the users waiting for the viewer to accept them
func (s *ConnectionService) ListIncomingRequests(ctx context.Context, viewerID uint) ([]models.User, error) {
	users, err := s.store.Connects.GetRequestedFriends(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return users, nil
}

// ListOutgoingRequests returns the users the viewer is waiting on
func (s *ConnectionService) ListOutgoingRequests(ctx context.Context, viewerID uint) ([]models.User, error) {
	users, err := s.store.Connects.GetRequestingFriends(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return users, nil
}

// SearchUsers finds active users by username and annotates each with its relation to the viewer.
// Pages start at 1.
func (s *ConnectionService) SearchUsers(ctx context.Context, viewerID uint, username string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}

	users, total, err := s.store.Users.SearchUsers(ctx, viewerID, username, (page-1)*SearchPageSize, SearchPageSize)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	connects, err := s.store.Connects.GetConnectsWith(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("get connects: %w", err)
	}
	byUser := make(map[uint]*models.UserConnect, len(connects))
	for i := range connects {
		c := &connects[i]
		other := c.ToUserID
		if other == viewerID {
			other = c.FromUserID
		}
		byUser[other] = c
	}

	result := &SearchResult{
		Users:    make([]UserRelation, 0, len(users)),
		Total:    total,
		Page:     page,
		HasPrev:  page > 1,
		HasNext:  int64(page*SearchPageSize) < total,
		PrevPage: page - 1,
		NextPage: page + 1,
	}
	for _, u := range users {
		result.Users = append(result.Users, UserRelation{
			User:     u,
			Relation: models.RelationFor(viewerID, byUser[u.ID]),
		})
	}
	return result, nil
}
