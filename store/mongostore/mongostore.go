// Package mongostore implements store.Store on MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps one handle per collection.
type Store struct {
	client        *mongo.Client
	users         *mongo.Collection
	posts         *mongo.Collection
	comments      *mongo.Collection
	tags          *mongo.Collection
	searchTags    *mongo.Collection
	announcements *mongo.Collection
	feedback      *mongo.Collection
}

// Open connects to uri, selects database dbName and ensures the indexes the store relies on.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:        client,
		users:         db.Collection("users"),
		posts:         db.Collection("posts"),
		comments:      db.Collection("comments"),
		tags:          db.Collection("tags"),
		searchTags:    db.Collection("alltags"),
		announcements: db.Collection("announcements"),
		feedback:      db.Collection("feedback"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{s.tags, mongo.IndexModel{Keys: bson.D{{Key: "tag", Value: 1}}, Options: unique}},
		{s.searchTags, mongo.IndexModel{Keys: bson.D{{Key: "tag", Value: 1}}, Options: unique}},
		{s.posts, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{s.posts, mongo.IndexModel{Keys: bson.D{{Key: "authorEmail", Value: 1}}}},
		{s.comments, mongo.IndexModel{Keys: bson.D{{Key: "postId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("mongostore: create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func containsRegex(text string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
}

func updateResult(res *mongo.UpdateResult) store.UpdateResult {
	return store.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.D) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptionsBuilder) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) (store.InsertResult, error) {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return store.InsertResult{}, fmt.Errorf("insert %s: %w", coll.Name(), err)
	}
	return store.Inserted(id), nil
}

// users

func (s *Store) CreateUserIfAbsent(ctx context.Context, u *models.User) (store.InsertResult, error) {
	u.Prepare(time.Now().UTC())
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "email", Value: u.Email}},
		bson.D{{Key: "$setOnInsert", Value: u}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.InsertResult{}, nil
		}
		return store.InsertResult{}, fmt.Errorf("create user: %w", err)
	}
	if res.UpsertedCount == 0 {
		return store.InsertResult{}, nil
	}
	return store.Inserted(u.ID), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.D{{Key: "email", Value: email}})
}

func (s *Store) ListUsers(ctx context.Context, keyword string, offset, limit int) ([]models.User, int64, error) {
	filter := bson.D{}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		filter = bson.D{{Key: "name", Value: containsRegex(keyword)}}
	}
	total, err := s.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64(offset)).SetLimit(int64(limit))
	}
	users, err := findAll[models.User](ctx, s.users, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Store) UpgradeMembership(ctx context.Context, email string) (store.UpdateResult, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "membership", Value: models.MembershipMember},
			{Key: "postLimit", Value: models.UnlimitedPosts},
		}}},
	)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("upgrade membership: %w", err)
	}
	return updateResult(res), nil
}

func (s *Store) MakeAdmin(ctx context.Context, id string) (store.UpdateResult, error) {
	res, err := s.users.UpdateOne(ctx, byID(id),
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: models.RoleAdmin}}}})
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("make admin: %w", err)
	}
	return updateResult(res), nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.users.EstimatedDocumentCount(ctx)
}

// posts

func (s *Store) CreatePost(ctx context.Context, p *models.Post) (store.InsertResult, error) {
	p.Prepare(time.Now().UTC())
	return insert(ctx, s.posts, p.ID, p)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidID
	}
	return findOne[models.Post](ctx, s.posts, byID(id))
}

func postFilter(q store.PostQuery) bson.D {
	filter := bson.D{}
	if q.AuthorEmail != "" {
		filter = append(filter, bson.E{Key: "authorEmail", Value: q.AuthorEmail})
	}
	if q.TagContains != "" {
		filter = append(filter, bson.E{Key: "tag", Value: containsRegex(q.TagContains)})
	}
	if q.TagEquals != "" {
		filter = append(filter, bson.E{Key: "tag", Value: q.TagEquals})
	}
	return filter
}

func (s *Store) ListPosts(ctx context.Context, q store.PostQuery) ([]models.Post, int64, error) {
	filter := postFilter(q)
	total, err := s.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	if q.Order != store.OrderPopular {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
		if q.Limit > 0 {
			opts.SetSkip(int64(q.Offset)).SetLimit(int64(q.Limit))
		}
		posts, err := findAll[models.Post](ctx, s.posts, filter, opts)
		if err != nil {
			return nil, 0, err
		}
		return posts, total, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.D{{Key: "score", Value: bson.D{
			{Key: "$subtract", Value: bson.A{"$upVote", "$downVote"}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: int64(q.Offset)}},
			bson.D{{Key: "$limit", Value: int64(q.Limit)}},
		)
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.D{{Key: "score", Value: 0}}}})

	cur, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("rank posts: %w", err)
	}
	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("decode ranked posts: %w", err)
	}
	return posts, total, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.posts.DeleteOne(ctx, byID(id))
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete post: %w", err)
	}
	return store.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (s *Store) CountPosts(ctx context.Context, authorEmail string) (int64, error) {
	if authorEmail == "" {
		return s.posts.EstimatedDocumentCount(ctx)
	}
	return s.posts.CountDocuments(ctx, bson.D{{Key: "authorEmail", Value: authorEmail}})
}

func (s *Store) ApplyVote(ctx context.Context, postID string, dir models.VoteDirection) (store.UpdateResult, error) {
	if !dir.Valid() {
		return store.UpdateResult{}, fmt.Errorf("apply vote: unknown direction %q", dir)
	}
	inc, opp := "upVote", "downVote"
	if dir == models.VoteDown {
		inc, opp = opp, inc
	}
	current := func(field string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}
	}
	// Pipeline updates are applied atomically to the single matched document.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: inc, Value: bson.D{{Key: "$add", Value: bson.A{current(inc), 1}}}},
			{Key: opp, Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{current(opp), 0}}},
				bson.D{{Key: "$subtract", Value: bson.A{current(opp), 1}}},
				current(opp),
			}}}},
		}}},
	}
	res, err := s.posts.UpdateOne(ctx, byID(postID), update)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("apply vote: %w", err)
	}
	return updateResult(res), nil
}

// comments

// AddComment performs two independent writes; a failure between them leaves the counter behind.
func (s *Store) AddComment(ctx context.Context, c *models.Comment) (store.InsertResult, error) {
	c.Prepare(time.Now().UTC())
	res, err := insert(ctx, s.comments, c.ID, c)
	if err != nil {
		return res, err
	}
	_, err = s.posts.UpdateOne(ctx, byID(c.PostID),
		bson.D{{Key: "$inc", Value: bson.D{{Key: "commentCount", Value: 1}}}})
	if err != nil {
		return res, fmt.Errorf("increment comment count: %w", err)
	}
	return res, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[models.Comment](ctx, s.comments, bson.D{{Key: "postId", Value: postID}}, opts)
}

func (s *Store) ListCommentsByTitle(ctx context.Context, title string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[models.Comment](ctx, s.comments, bson.D{{Key: "postTitle", Value: title}}, opts)
}

func (s *Store) CountComments(ctx context.Context) (int64, error) {
	return s.comments.EstimatedDocumentCount(ctx)
}

// tags

func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tag", Value: 1}})
	return findAll[models.Tag](ctx, s.tags, bson.D{}, opts)
}

func (s *Store) RegisterTag(ctx context.Context, tag string) (store.InsertResult, error) {
	id := models.NewID()
	res, err := s.tags.UpdateOne(ctx,
		bson.D{{Key: "tag", Value: tag}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: id}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.InsertResult{}, nil
		}
		return store.InsertResult{}, fmt.Errorf("register tag: %w", err)
	}
	if res.UpsertedCount == 0 {
		return store.InsertResult{}, nil
	}
	return store.Inserted(id), nil
}

func (s *Store) ListSearchTags(ctx context.Context) ([]models.SearchTag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findAll[models.SearchTag](ctx, s.searchTags, bson.D{}, opts)
}

func (s *Store) RecordSearchTag(ctx context.Context, tag string, at time.Time) error {
	if tag = strings.TrimSpace(tag); tag == "" {
		return nil
	}
	_, err := s.searchTags.UpdateOne(ctx,
		bson.D{{Key: "tag", Value: tag}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "date", Value: at.UTC()}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: models.NewID()}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("record search tag: %w", err)
	}
	return nil
}

func (s *Store) PruneSearchTags(ctx context.Context, cutoff time.Time) (store.DeleteResult, error) {
	res, err := s.searchTags.DeleteMany(ctx, bson.D{{Key: "date", Value: bson.D{{Key: "$lt", Value: cutoff.UTC()}}}})
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("prune search tags: %w", err)
	}
	return store.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// announcements

func (s *Store) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Announcement](ctx, s.announcements, bson.D{}, opts)
}

func (s *Store) AddAnnouncement(ctx context.Context, a *models.Announcement) (store.InsertResult, error) {
	a.Prepare(time.Now().UTC())
	return insert(ctx, s.announcements, a.ID, a)
}

func (s *Store) CountAnnouncements(ctx context.Context) (int64, error) {
	return s.announcements.CountDocuments(ctx, bson.D{})
}

// feedback

func (s *Store) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Feedback](ctx, s.feedback, bson.D{}, opts)
}

func (s *Store) AddFeedback(ctx context.Context, f *models.Feedback) (store.InsertResult, error) {
	f.Prepare(time.Now().UTC())
	return insert(ctx, s.feedback, f.ID, f)
}

func (s *Store) DeleteFeedback(ctx context.Context, id string) (store.DeleteResult, error) {
	res, err := s.feedback.DeleteOne(ctx, byID(id))
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete feedback: %w", err)
	}
	return store.DeleteResult{DeletedCount: res.DeletedCount}, nil
}
