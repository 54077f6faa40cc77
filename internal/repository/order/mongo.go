package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
)

// CollectionName is the Mongo collection orders live in.
const CollectionName = "orders"

type lineDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
	Quantity  int                  `bson:"quantity"`
}

type orderDocument struct {
	ID               string               `bson:"_id"`
	UserID           string               `bson:"user_id"`
	Items            []lineDocument       `bson:"items"`
	PaymentMethod    string               `bson:"payment_method"`
	TotalAmount      primitive.Decimal128 `bson:"total_amount"`
	Address          string               `bson:"address"`
	Status           string               `bson:"status"`
	GatewayOrderID   string               `bson:"gateway_order_id,omitempty"`
	GatewayPaymentID string               `bson:"gateway_payment_id,omitempty"`
	GatewaySignature string               `bson:"gateway_signature,omitempty"`
	IdempotencyKey   string               `bson:"idempotency_key,omitempty"`
	CreatedAt        time.Time            `bson:"created_at"`
}

type mongoRepo struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewMongo returns a Repository storing one document per order.
func NewMongo(db *mongo.Database, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &mongoRepo{collection: db.Collection(CollectionName), logger: logger}
}

// EnsureIndexes creates the uniqueness and history indexes the Mongo store relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetName("user_idempotency_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "gateway_payment_id", Value: 1}},
			Options: options.Index().
				SetName("gateway_payment_id").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"gateway_payment_id": bson.M{"$exists": true}}),
		},
	}
	if _, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}

func (m *mongoRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc, err := toDocument(o)
	if err != nil {
		return nil, err
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			m.logger.Printf("order repo: create user_id=%s duplicate", o.UserID)
			return nil, domain.ErrAlreadyExists
		}
		m.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, fmt.Errorf("insert order: %w", err)
	}
	m.logger.Printf("order repo: created id=%s user_id=%s total=%s", o.ID, o.UserID, o.TotalAmount)
	return &o, nil
}

func (m *mongoRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	var doc orderDocument
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID, "idempotency_key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find order by key: %w", err)
	}
	return fromDocument(doc)
}

func (m *mongoRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		m.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]domain.Order, 0)
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		o, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	m.logger.Printf("order repo: list user_id=%s count=%d", userID, len(result))
	return result, nil
}

func toDocument(o domain.Order) (orderDocument, error) {
	total, err := primitive.ParseDecimal128(o.TotalAmount.String())
	if err != nil {
		return orderDocument{}, fmt.Errorf("encode total: %w", err)
	}
	items := make([]lineDocument, 0, len(o.Items))
	for _, l := range o.Items {
		price, err := primitive.ParseDecimal128(l.Price.String())
		if err != nil {
			return orderDocument{}, fmt.Errorf("encode price of %s: %w", l.ProductID, err)
		}
		items = append(items, lineDocument{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Image:     l.Image,
			Quantity:  l.Quantity,
		})
	}
	return orderDocument{
		ID:               o.ID,
		UserID:           o.UserID,
		Items:            items,
		PaymentMethod:    string(o.PaymentMethod),
		TotalAmount:      total,
		Address:          o.Address,
		Status:           o.Status,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		GatewaySignature: o.GatewaySignature,
		IdempotencyKey:   o.IdempotencyKey,
		CreatedAt:        o.CreatedAt,
	}, nil
}

func fromDocument(doc orderDocument) (*domain.Order, error) {
	total, err := decimal.NewFromString(doc.TotalAmount.String())
	if err != nil {
		return nil, fmt.Errorf("decode total for order %s: %w", doc.ID, err)
	}
	items := make([]domain.CartLine, 0, len(doc.Items))
	for _, l := range doc.Items {
		price, err := decimal.NewFromString(l.Price.String())
		if err != nil {
			return nil, fmt.Errorf("decode price for order %s: %w", doc.ID, err)
		}
		items = append(items, domain.CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Image:     l.Image,
			Quantity:  l.Quantity,
		})
	}
	return &domain.Order{
		ID:               doc.ID,
		UserID:           doc.UserID,
		Items:            items,
		PaymentMethod:    domain.PaymentMethod(doc.PaymentMethod),
		TotalAmount:      total,
		Address:          doc.Address,
		Status:           doc.Status,
		GatewayOrderID:   doc.GatewayOrderID,
		GatewayPaymentID: doc.GatewayPaymentID,
		GatewaySignature: doc.GatewaySignature,
		IdempotencyKey:   doc.IdempotencyKey,
		CreatedAt:        doc.CreatedAt.UTC(),
	}, nil
}
