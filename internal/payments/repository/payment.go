package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/pkg/config"
	mongotx "travelpay/pkg/db/mongo"
	"travelpay/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	PaymentsCollection = "Payments"
)

type PaymentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ApplyUpdate(ctx context.Context, id string, update *model.PaymentUpdate) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(PaymentsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *mongoPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID}, orderID)
}

func (r *mongoPaymentRepository) findOne(ctx context.Context, filter bson.M, ref string) (*model.Payment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	if err := r.collection.FindOne(ctx, filter).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", paymentserrors.ErrPaymentNotFound, ref)
		}
		return nil, fmt.Errorf("database: failed to find payment: %w", err)
	}
	return &payment, nil
}

// ApplyUpdate sets the new status and provider references and appends the
// history entry in a single update.
func (r *mongoPaymentRepository) ApplyUpdate(ctx context.Context, id string, update *model.PaymentUpdate) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.M{
		"status":     update.Status,
		"updated_at": now,
	}
	if update.PaymentKey != "" {
		set["payment_key"] = update.PaymentKey
	}
	if update.TID != "" {
		set["tid"] = update.TID
	}
	if update.Method != "" {
		set["method"] = update.Method
	}
	if update.ApprovedAt != nil {
		set["approved_at"] = update.ApprovedAt.UTC()
	}
	if update.FromHook {
		set["last_webhook_at"] = now
	}

	change := update.Change
	if change.At.IsZero() {
		change.At = now
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":  set,
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return fmt.Errorf("database: failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", paymentserrors.ErrPaymentNotFound, id)
	}
	return nil
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
