package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// ContactRepository defines the interface for support inquiry storage
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *models.UserContact) error
	GetContactsByUserID(ctx context.Context, userID uint) ([]models.UserContact, error)
}

// PostgresContactRepository implements ContactRepository on top of gorm
type PostgresContactRepository struct {
	db *gorm.DB
}

// NewPostgresContactRepository creates a new PostgresContactRepository
func NewPostgresContactRepository(db *gorm.DB) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

// CreateContact inserts a new inquiry
func (r *PostgresContactRepository) CreateContact(ctx context.Context, contact *models.UserContact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// GetContactsByUserID retrieves a user's inquiries, newest first
func (r *PostgresContactRepository) GetContactsByUserID(ctx context.Context, userID uint) ([]models.UserContact, error) {
	var contacts []models.UserContact
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

type contactDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    uint               `bson:"user_id"`
	Inquiry   string             `bson:"inquiry"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// MongoContactRepository implements ContactRepository for MongoDB
type MongoContactRepository struct {
	collection *mongo.Collection
}

// NewMongoContactRepository creates a new MongoContactRepository
func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{collection: db.Collection("user_contacts")}
}

// CreateContact inserts a new inquiry document
func (r *MongoContactRepository) CreateContact(ctx context.Context, contact *models.UserContact) error {
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, contactDocument{
		ID:        primitive.NewObjectID(),
		UserID:    contact.UserID,
		Inquiry:   contact.Inquiry,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

// GetContactsByUserID retrieves a user's inquiries, newest first.
// Documents carry no numeric ID, so ID is left zero.
func (r *MongoContactRepository) GetContactsByUserID(ctx context.Context, userID uint) ([]models.UserContact, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []contactDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	contacts := make([]models.UserContact, 0, len(docs))
	for _, d := range docs {
		contacts = append(contacts, models.UserContact{
			UserID:    d.UserID,
			Inquiry:   d.Inquiry,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return contacts, nil
}
