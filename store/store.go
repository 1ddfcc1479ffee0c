// Package store defines the persistence contract shared by the SQL and document backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/amaforum/ama/models"
)

var (
	// ErrNotFound is returned by single-record reads when nothing matches.
	ErrNotFound = errors.New("store: record not found")
	// ErrInvalidID is returned when a lookup is given an empty identifier.
	ErrInvalidID = errors.New("store: invalid id")
)

// InsertResult mirrors the raw result of an insert. InsertedID is nil when nothing was inserted.
type InsertResult struct {
	InsertedID *string `json:"insertedId"`
}

// UpdateResult mirrors the raw result of an update-one call.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult mirrors the raw result of a delete-one call.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// Inserted builds an InsertResult for id.
func Inserted(id string) InsertResult {
	return InsertResult{InsertedID: &id}
}

// PostOrder selects the sort applied by ListPosts.
type PostOrder int

const (
	// OrderNewest sorts by creation date descending.
	OrderNewest PostOrder = iota
	// OrderPopular sorts by upVote - downVote descending, newest first on ties.
	OrderPopular
)

// PostQuery filters and pages a post listing. Zero-valued filters are ignored.
type PostQuery struct {
	AuthorEmail string
	// TagContains matches tags containing the text, case-insensitively.
	TagContains string
	// TagEquals matches the tag exactly.
	TagEquals string
	Order     PostOrder
	Offset    int
	Limit     int
}

// Statistics holds approximate collection sizes.
type Statistics struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}

// Store is implemented by sqlstore (gorm) and mongostore (mongo-driver).
type Store interface {
	// CreateUserIfAbsent inserts u unless a user with the same email exists.
	CreateUserIfAbsent(ctx context.Context, u *models.User) (InsertResult, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers returns users newest first. A non-empty keyword filters names case-insensitively.
	ListUsers(ctx context.Context, keyword string, offset, limit int) ([]models.User, int64, error)
	UpgradeMembership(ctx context.Context, email string) (UpdateResult, error)
	MakeAdmin(ctx context.Context, id string) (UpdateResult, error)
	CountUsers(ctx context.Context) (int64, error)

	CreatePost(ctx context.Context, p *models.Post) (InsertResult, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, int64, error)
	DeletePost(ctx context.Context, id string) (DeleteResult, error)
	CountPosts(ctx context.Context, authorEmail string) (int64, error)
	// ApplyVote increments the requested counter and decrements the opposing one when it is
	// positive, as a single atomic update. A missing post yields MatchedCount 0 and no error.
	ApplyVote(ctx context.Context, postID string, dir models.VoteDirection) (UpdateResult, error)

	// AddComment inserts c and increments the parent post's comment counter.
	AddComment(ctx context.Context, c *models.Comment) (InsertResult, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	ListCommentsByTitle(ctx context.Context, title string) ([]models.Comment, error)
	CountComments(ctx context.Context) (int64, error)

	ListTags(ctx context.Context) ([]models.Tag, error)
	// RegisterTag inserts tag unless an identical one exists. Existing records are left untouched.
	RegisterTag(ctx context.Context, tag string) (InsertResult, error)

	// ListSearchTags returns recorded search tags, most recently used first.
	ListSearchTags(ctx context.Context) ([]models.SearchTag, error)
	// RecordSearchTag upserts tag keyed by its text and sets its date to at.
	RecordSearchTag(ctx context.Context, tag string, at time.Time) error
	// PruneSearchTags deletes search tags last used before cutoff.
	PruneSearchTags(ctx context.Context, cutoff time.Time) (DeleteResult, error)

	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	AddAnnouncement(ctx context.Context, a *models.Announcement) (InsertResult, error)
	CountAnnouncements(ctx context.Context) (int64, error)

	ListFeedback(ctx context.Context) ([]models.Feedback, error)
	AddFeedback(ctx context.Context, f *models.Feedback) (InsertResult, error)
	DeleteFeedback(ctx context.Context, id string) (DeleteResult, error)

	Close() error
}

// CollectStatistics gathers the three counts. The counts are read independently and may be
// mutually inconsistent under concurrent writes.
func CollectStatistics(ctx context.Context, s Store) (Statistics, error) {
	var st Statistics
	var err error
	if st.Users, err = s.CountUsers(ctx); err != nil {
		return st, err
	}
	if st.Posts, err = s.CountPosts(ctx, ""); err != nil {
		return st, err
	}
	if st.Comments, err = s.CountComments(ctx); err != nil {
		return st, err
	}
	return st, nil
}
