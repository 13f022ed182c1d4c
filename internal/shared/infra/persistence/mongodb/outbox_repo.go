package mongodb

import (
	"context"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
	"github.com/davicafu/dddlab/internal/shared/infra/events"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Session para MongoDB standalone: sin transacciones multi-documento, Begin y
// Commit son no-op y Rollback no puede deshacer nada. El UnitOfWork mantiene
// su protocolo intacto; la atomicidad agregado+outbox solo está garantizada en
// los backends transaccionales.
type Session struct{}

func NewSession() *Session { return &Session{} }

func (s *Session) Begin(ctx context.Context) error    { return nil }
func (s *Session) Commit(ctx context.Context) error   { return nil }
func (s *Session) Rollback(ctx context.Context) error { return nil }

// Documento BSON local para no contaminar el dominio con tags de bson.
type mongoOutboxEntry struct {
	ID          uuid.UUID  `bson:"_id"`
	EventType   string     `bson:"eventType"`
	EventName   string     `bson:"eventName"`
	Payload     string     `bson:"payload"`
	CreatedAt   time.Time  `bson:"createdAt"`
	ProcessedAt *time.Time `bson:"processedAt"`
}

// OutboxRepo implementa el repositorio outbox sobre una colección de MongoDB.
type OutboxRepo struct {
	coll *mongo.Collection
}

func NewOutboxRepo(ctx context.Context, client *mongo.Client, dbName string) (*OutboxRepo, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return &OutboxRepo{coll: client.Database(dbName).Collection("outbox_entries")}, nil
}

func (r *OutboxRepo) SaveEvent(ctx context.Context, evt sharedDomain.Event) error {
	if evt == nil {
		return sharedDomain.ErrNilEvent
	}

	payload, err := events.Serialize(evt)
	if err != nil {
		return err
	}

	header := evt.EventHeader()
	doc := mongoOutboxEntry{
		ID:        uuid.New(),
		EventType: string(header.Kind),
		EventName: header.Name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}

func (r *OutboxRepo) PendingEntries(ctx context.Context, limit int) ([]sharedDomain.OutboxEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"processedAt": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending outbox entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []sharedDomain.OutboxEntry
	for cursor.Next(ctx) {
		var doc mongoOutboxEntry
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode outbox document: %w", err)
		}
		entries = append(entries, sharedDomain.OutboxEntry{
			ID:          doc.ID,
			EventType:   sharedDomain.EventKind(doc.EventType),
			EventName:   doc.EventName,
			Payload:     doc.Payload,
			CreatedAt:   doc.CreatedAt,
			ProcessedAt: doc.ProcessedAt,
		})
	}
	return entries, cursor.Err()
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	// Filtrando por processedAt nil la operación es idempotente: repetirla
	// sobre una entrada procesada no toca ningún documento.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "processedAt": nil},
		bson.M{"$set": bson.M{"processedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry as processed: %w", err)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.Session = (*Session)(nil)
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
