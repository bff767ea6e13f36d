package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

const maxMypagePageSize = 50

type mypageReviewRepository interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LatestReview, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	AverageRatingByUser(ctx context.Context, userID string) (float64, error)
}

type mypageBookmarkRepository interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	ListLecturesByUser(ctx context.Context, userID string, limit, offset int) ([]models.BookmarkedLecture, error)
}

type mypageThankRepository interface {
	CountReceivedByUser(ctx context.Context, userID string) (int, error)
}

type mypageUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	RankingPosition(ctx context.Context, id string) (position, totalUsers, reviewCount int, err error)
}

// MypageStatistics aggregates the numbers shown on a user's dashboard.
// ReviewCount comes from actual review rows, not the denormalized counter, so
// the dashboard stays truthful even if the counter drifts.
type MypageStatistics struct {
	ReviewCount     int     `json:"review_count"`
	AverageRating   float64 `json:"average_rating"`
	ThanksReceived  int     `json:"thanks_received"`
	BookmarkCount   int     `json:"bookmark_count"`
	RankingPosition int     `json:"ranking_position"`
	RankedUsers     int     `json:"ranked_users"`
}

// MypageService assembles the authenticated user's dashboard.
type MypageService struct {
	users     mypageUserRepository
	reviews   mypageReviewRepository
	bookmarks mypageBookmarkRepository
	thanks    mypageThankRepository
	logger    *zap.Logger
}

// NewMypageService creates a new mypage service instance.
func NewMypageService(
	users mypageUserRepository,
	reviews mypageReviewRepository,
	bookmarks mypageBookmarkRepository,
	thanks mypageThankRepository,
	logger *zap.Logger,
) *MypageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MypageService{users: users, reviews: reviews, bookmarks: bookmarks, thanks: thanks, logger: logger}
}

// Profile returns the user's public projection.
func (s *MypageService) Profile(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	info := user.Info()
	return &info, nil
}

// Statistics computes the dashboard numbers for the user.
func (s *MypageService) Statistics(ctx context.Context, userID string) (*MypageStatistics, error) {
	position, rankedUsers, reviewCount, err := s.users.RankingPosition(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute ranking")
	}

	avgRating, err := s.reviews.AverageRatingByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average rating")
	}

	thanksReceived, err := s.thanks.CountReceivedByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count received thanks")
	}

	bookmarkCount, err := s.bookmarks.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookmarks")
	}

	return &MypageStatistics{
		ReviewCount:     reviewCount,
		AverageRating:   avgRating,
		ThanksReceived:  thanksReceived,
		BookmarkCount:   bookmarkCount,
		RankingPosition: position,
		RankedUsers:     rankedUsers,
	}, nil
}

// Reviews returns the user's reviews with lecture headlines, newest first.
func (s *MypageService) Reviews(ctx context.Context, userID string, page, pageSize int) ([]models.LatestReview, *models.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)

	total, err := s.reviews.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reviews")
	}

	reviews, err := s.reviews.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}

	return reviews, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Bookmarks returns the user's bookmarked lectures, newest bookmark first.
func (s *MypageService) Bookmarks(ctx context.Context, userID string, page, pageSize int) ([]models.BookmarkedLecture, *models.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)

	total, err := s.bookmarks.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookmarks")
	}

	lectures, err := s.bookmarks.ListLecturesByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookmarks")
	}

	return lectures, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > maxMypagePageSize {
		pageSize = maxMypagePageSize
	}
	return page, pageSize
}
