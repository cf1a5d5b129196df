package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Totarae/shortlinks/internal/database"
	"github.com/Totarae/shortlinks/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	linksCollection = "urls"
	usersCollection = "users"
)

// MongoRepository хранит ссылки и пользователей в MongoDB в формате
// коллекций urls и users.
type MongoRepository struct {
	conn  *database.Mongo
	links *mongo.Collection
	users *mongo.Collection
}

// NewMongoRepository создаёт репозиторий и уникальные индексы.
func NewMongoRepository(ctx context.Context, conn *database.Mongo) (*MongoRepository, error) {
	r := &MongoRepository{
		conn:  conn,
		links: conn.DB.Collection(linksCollection),
		users: conn.DB.Collection(usersCollection),
	}

	_, err := r.links.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shortId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "longUrl", Value: 1}, {Key: "createdBy", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create url indexes: %w", err)
	}
	_, err = r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}
	return r, nil
}

func mongoNotFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("mongo error: %w", err)
}

func decodeLink(res *mongo.SingleResult, what string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := res.Decode(&link); err != nil {
		return nil, mongoNotFound(err, what)
	}
	if link.VisitHistory == nil {
		link.VisitHistory = []model.Visit{}
	}
	return &link, nil
}

// FindByLongURL ищет самую раннюю ссылку на longURL того же владельца.
func (r *MongoRepository) FindByLongURL(ctx context.Context, longURL, ownerID string) (*model.ShortLink, error) {
	filter := bson.M{"longUrl": longURL, "createdBy": ownerID}
	if ownerID == "" {
		filter["createdBy"] = bson.M{"$exists": false}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return decodeLink(r.links.FindOne(ctx, filter, opts), "link by long url")
}

// Create сохраняет новую ссылку.
func (r *MongoRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if link.VisitHistory == nil {
		link.VisitHistory = []model.Visit{}
	}
	if _, err := r.links.InsertOne(ctx, link); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrCodeTaken
		}
		return fmt.Errorf("mongo insert error: %w", err)
	}
	return nil
}

// FindByCode извлекает ссылку по короткому идентификатору.
func (r *MongoRepository) FindByCode(ctx context.Context, shortID string) (*model.ShortLink, error) {
	return decodeLink(r.links.FindOne(ctx, bson.M{"shortId": shortID}), "link by short id")
}

// FindByID извлекает ссылку по id.
func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.ShortLink, error) {
	return decodeLink(r.links.FindOne(ctx, bson.M{"_id": id}), "link by id")
}

// AppendVisit дописывает переход атомарным $push и возвращает документ после обновления.
func (r *MongoRepository) AppendVisit(ctx context.Context, shortID string, at time.Time) (*model.ShortLink, error) {
	update := bson.M{
		"$push": bson.M{"visitHistory": model.NewVisit(at)},
		"$set":  bson.M{"updatedAt": at},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeLink(r.links.FindOneAndUpdate(ctx, bson.M{"shortId": shortID}, update, opts), "append visit")
}

// ListByOwner возвращает ссылки пользователя.
func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	return r.findLinks(ctx, bson.M{"createdBy": ownerID})
}

// ListAll возвращает все ссылки.
func (r *MongoRepository) ListAll(ctx context.Context) ([]*model.ShortLink, error) {
	return r.findLinks(ctx, bson.M{})
}

func (r *MongoRepository) findLinks(ctx context.Context, filter bson.M) ([]*model.ShortLink, error) {
	cur, err := r.links.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	links := make([]*model.ShortLink, 0)
	if err := cur.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode links: %w", err)
	}
	for _, l := range links {
		if l.VisitHistory == nil {
			l.VisitHistory = []model.Visit{}
		}
	}
	return links, nil
}

// DeleteByID удаляет ссылку.
func (r *MongoRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.links.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// Ping проверяет соединение.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

// Close отключается от MongoDB.
func (r *MongoRepository) Close() error {
	r.conn.Close()
	return nil
}

// userDocument хранит роль строкой, как в исходной коллекции users.
type userDocument struct {
	ID           string        `bson:"_id"`
	Email        string        `bson:"email"`
	Phone        string        `bson:"phone"`
	PasswordHash string        `bson:"password"`
	Role         string        `bson:"role"`
	Profile      model.Profile `bson:"profile"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func toUserDocument(u *model.User) userDocument {
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toUser() (*model.User, error) {
	role, err := model.ParseRole(d.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", d.ID, err)
	}
	return &model.User{
		ID:           d.ID,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		Role:         role,
		Profile:      d.Profile,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M, what string, opts ...*options.FindOneOptions) (*model.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, mongoNotFound(err, what)
	}
	return doc.toUser()
}

// CreateUser сохраняет нового пользователя.
func (r *MongoRepository) CreateUser(ctx context.Context, u *model.User) error {
	if _, err := r.users.InsertOne(ctx, toUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("mongo insert error: %w", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по id.
func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"_id": id}, "user by id")
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	filter := bson.M{"email": bson.M{"$regex": "^" + regexp.QuoteMeta(email) + "$", "$options": "i"}}
	return r.findUser(ctx, filter, "user by email")
}

// UpdateUser перезаписывает документ пользователя.
func (r *MongoRepository) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, toUserDocument(u))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, model.ErrNotFound)
	}
	return nil
}

// ListUsers возвращает пользователей, новые первыми.
func (r *MongoRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	cur, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	users := make([]*model.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// DeleteUser удаляет пользователя.
func (r *MongoRepository) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return res.DeletedCount > 0, nil
}
