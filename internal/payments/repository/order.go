package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/pkg/config"
	"travelpay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	OrdersCollection = "Orders"
)

// OrderRepository only touches the payment-facing fields of an order.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.OrderStatus, paymentID string) error
}

type mongoOrderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoOrderRepository(cfg *config.Config) OrderRepository {
	return &mongoOrderRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(OrdersCollection),
	}
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var order model.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", paymentserrors.ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("database: failed to find order: %w", err)
	}
	return &order, nil
}

func (r *mongoOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status model.OrderStatus, paymentID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if paymentID != "" {
		set["payment_id"] = paymentID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("database: failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", paymentserrors.ErrOrderNotFound, id)
	}
	return nil
}
