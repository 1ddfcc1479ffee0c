package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
)

var _ store.Store = (*Store)(nil)

// '!' is portable across MySQL, PostgreSQL and SQLite, unlike backslash.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func updateResult(res *gorm.DB) store.UpdateResult {
	return store.UpdateResult{MatchedCount: res.RowsAffected, ModifiedCount: res.RowsAffected}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// users

func (s *Store) CreateUserIfAbsent(ctx context.Context, u *models.User) (store.InsertResult, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return store.InsertResult{}, fmt.Errorf("create user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.InsertResult{}, nil
	}
	return store.Inserted(u.ID), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, keyword string, offset, limit int) ([]models.User, int64, error) {
	keyword = strings.TrimSpace(keyword)
	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.User{})
		if keyword != "" {
			q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", containsPattern(keyword))
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users := []models.User{}
	q := scope().Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *Store) UpgradeMembership(ctx context.Context, email string) (store.UpdateResult, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).
		UpdateColumns(map[string]interface{}{
			"membership": models.MembershipMember,
			"post_limit": models.UnlimitedPosts,
		})
	if res.Error != nil {
		return store.UpdateResult{}, fmt.Errorf("upgrade membership: %w", res.Error)
	}
	return updateResult(res), nil
}

func (s *Store) MakeAdmin(ctx context.Context, id string) (store.UpdateResult, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("role", models.RoleAdmin)
	if res.Error != nil {
		return store.UpdateResult{}, fmt.Errorf("make admin: %w", res.Error)
	}
	return updateResult(res), nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// posts

func (s *Store) CreatePost(ctx context.Context, p *models.Post) (store.InsertResult, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return store.InsertResult{}, fmt.Errorf("create post: %w", err)
	}
	return store.Inserted(p.ID), nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidID
	}
	var p models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) postScope(ctx context.Context, q store.PostQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Post{})
	if q.AuthorEmail != "" {
		db = db.Where("author_email = ?", q.AuthorEmail)
	}
	if q.TagContains != "" {
		db = db.Where("LOWER(tag) LIKE ? ESCAPE '!'", containsPattern(q.TagContains))
	}
	if q.TagEquals != "" {
		db = db.Where("tag = ?", q.TagEquals)
	}
	return db
}

func (s *Store) ListPosts(ctx context.Context, q store.PostQuery) ([]models.Post, int64, error) {
	var total int64
	if err := s.postScope(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	db := s.postScope(ctx, q)
	switch q.Order {
	case store.OrderPopular:
		db = db.Order("(up_vote - down_vote) DESC").Order("created_at DESC").Order("id ASC")
	default:
		db = db.Order("created_at DESC").Order("id ASC")
	}
	if q.Limit > 0 {
		db = db.Offset(q.Offset).Limit(q.Limit)
	}

	posts := []models.Post{}
	if err := db.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) (store.DeleteResult, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return store.DeleteResult{}, fmt.Errorf("delete post: %w", res.Error)
	}
	return store.DeleteResult{DeletedCount: res.RowsAffected}, nil
}

func (s *Store) CountPosts(ctx context.Context, authorEmail string) (int64, error) {
	var n int64
	err := s.postScope(ctx, store.PostQuery{AuthorEmail: authorEmail}).Count(&n).Error
	return n, err
}

func (s *Store) ApplyVote(ctx context.Context, postID string, dir models.VoteDirection) (store.UpdateResult, error) {
	if !dir.Valid() {
		return store.UpdateResult{}, fmt.Errorf("apply vote: unknown direction %q", dir)
	}
	inc, opp := "up_vote", "down_vote"
	if dir == models.VoteDown {
		inc, opp = opp, inc
	}
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			inc: gorm.Expr(inc + " + 1"),
			opp: gorm.Expr("CASE WHEN " + opp + " > 0 THEN " + opp + " - 1 ELSE " + opp + " END"),
		})
	if res.Error != nil {
		return store.UpdateResult{}, fmt.Errorf("apply vote: %w", res.Error)
	}
	return updateResult(res), nil
}

// comments

func (s *Store) AddComment(ctx context.Context, c *models.Comment) (store.InsertResult, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return store.InsertResult{}, fmt.Errorf("add comment: %w", err)
	}
	return store.Inserted(c.ID), nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (s *Store) ListCommentsByTitle(ctx context.Context, title string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).Where("post_title = ?", title).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (s *Store) CountComments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error
	return n, err
}

// tags

func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.WithContext(ctx).Order("tag ASC").Find(&tags).Error
	return tags, err
}

func (s *Store) RegisterTag(ctx context.Context, tag string) (store.InsertResult, error) {
	t := models.Tag{Tag: tag}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag"}}, DoNothing: true}).
		Create(&t)
	if res.Error != nil {
		return store.InsertResult{}, fmt.Errorf("register tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.InsertResult{}, nil
	}
	return store.Inserted(t.ID), nil
}

func (s *Store) ListSearchTags(ctx context.Context) ([]models.SearchTag, error) {
	tags := []models.SearchTag{}
	err := s.db.WithContext(ctx).Order("date DESC").Find(&tags).Error
	return tags, err
}

func (s *Store) RecordSearchTag(ctx context.Context, tag string, at time.Time) error {
	if tag = strings.TrimSpace(tag); tag == "" {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag"}},
			DoUpdates: clause.AssignmentColumns([]string{"date"}),
		}).
		Create(&models.SearchTag{Tag: tag, Date: at.UTC()}).Error
	if err != nil {
		return fmt.Errorf("record search tag: %w", err)
	}
	return nil
}

func (s *Store) PruneSearchTags(ctx context.Context, cutoff time.Time) (store.DeleteResult, error) {
	res := s.db.WithContext(ctx).Where("date < ?", cutoff.UTC()).Delete(&models.SearchTag{})
	if res.Error != nil {
		return store.DeleteResult{}, fmt.Errorf("prune search tags: %w", res.Error)
	}
	return store.DeleteResult{DeletedCount: res.RowsAffected}, nil
}

// announcements

func (s *Store) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	items := []models.Announcement{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *Store) AddAnnouncement(ctx context.Context, a *models.Announcement) (store.InsertResult, error) {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return store.InsertResult{}, fmt.Errorf("add announcement: %w", err)
	}
	return store.Inserted(a.ID), nil
}

func (s *Store) CountAnnouncements(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Announcement{}).Count(&n).Error
	return n, err
}

// feedback

func (s *Store) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	items := []models.Feedback{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *Store) AddFeedback(ctx context.Context, f *models.Feedback) (store.InsertResult, error) {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return store.InsertResult{}, fmt.Errorf("add feedback: %w", err)
	}
	return store.Inserted(f.ID), nil
}

func (s *Store) DeleteFeedback(ctx context.Context, id string) (store.DeleteResult, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Feedback{})
	if res.Error != nil {
		return store.DeleteResult{}, fmt.Errorf("delete feedback: %w", res.Error)
	}
	return store.DeleteResult{DeletedCount: res.RowsAffected}, nil
}
