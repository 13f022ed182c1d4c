package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookDomain "github.com/davicafu/dddlab/internal/bookstore/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Documento BSON local para no contaminar el dominio con tags de bson.
type mongoCustomer struct {
	ID           uuid.UUID `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	RegisteredAt time.Time `bson:"registeredAt"`
}

// CustomerRepo persiste clientes en una colección de MongoDB. Sin
// transacciones multi-documento el INSERT del cliente y el de la outbox
// no son atómicos; la deduplicación corre a cargo del índice único.
type CustomerRepo struct {
	coll *mongo.Collection
}

func NewCustomerRepo(ctx context.Context, client *mongo.Client, dbName string) (*CustomerRepo, error) {
	coll := client.Database(dbName).Collection("customers")

	// Índice único sobre email, equivalente al UNIQUE de los backends SQL.
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create customers email index: %w", err)
	}
	return &CustomerRepo{coll: coll}, nil
}

func (r *CustomerRepo) Save(ctx context.Context, c *bookDomain.Customer) error {
	doc := mongoCustomer{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		RegisteredAt: c.RegisteredAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookDomain.ErrCustomerAlreadyExists
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*bookDomain.Customer, error) {
	var doc mongoCustomer
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookDomain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return &bookDomain.Customer{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		RegisteredAt: doc.RegisteredAt,
	}, nil
}

// Verificación en tiempo de compilación.
var _ bookDomain.CustomerRepository = (*CustomerRepo)(nil)
