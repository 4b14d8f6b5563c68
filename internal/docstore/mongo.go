package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo keeps one collection per entity with string ids. Subscriptions use
// change streams, which need a replica set; on a standalone server they
// degrade to in-process notifications.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	hub    *hub

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	next    int
	wg      sync.WaitGroup
}

func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		client:  client,
		db:      client.Database(database),
		hub:     newHub(),
		cancels: make(map[int]context.CancelFunc),
	}, nil
}

func (m *Mongo) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	cur, err := m.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	result := []Record{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := fromBSON(doc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		result = append(result, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Mongo) Add(ctx context.Context, collection string, fields Record) (string, error) {
	doc := bson.M{"_id": uuid.NewString()}
	for k, v := range fields.withoutID() {
		doc[k] = v
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	m.notify(ctx, collection)
	return doc["_id"].(string), nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, patch Record) error {
	coll := m.db.Collection(collection)
	fields := patch.withoutID()

	if len(fields) == 0 {
		err := coll.FindOne(ctx, bson.M{"_id": id}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	m.notify(ctx, collection)
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount > 0 {
		m.notify(ctx, collection)
	}
	return nil
}

func (m *Mongo) Subscribe(ctx context.Context, collection string, onChange func([]Record)) (func(), error) {
	stream, err := m.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		slog.Warn("change streams unavailable, using local notifications",
			"collection", collection, "error", err)
		return m.hub.add(collection, onChange), nil
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Lock()
	m.next++
	key := m.next
	m.cancels[key] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			records, err := m.LoadAll(watchCtx, collection)
			if err != nil {
				slog.Error("docstore reload failed", "collection", collection, "error", err)
				continue
			}
			onChange(records)
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			slog.Error("change stream closed", "collection", collection, "error", err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.cancels, key)
			m.mu.Unlock()
			cancel()
		})
	}, nil
}

// notify serves subscribers that fell back to local notifications.
func (m *Mongo) notify(ctx context.Context, collection string) {
	err := m.hub.refresh(collection, func() ([]Record, error) {
		return m.LoadAll(context.WithoutCancel(ctx), collection)
	})
	if err != nil {
		slog.Error("docstore reload failed", "collection", collection, "error", err)
	}
}

func (m *Mongo) Close() error {
	m.mu.Lock()
	for key, cancel := range m.cancels {
		cancel()
		delete(m.cancels, key)
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.hub.clear()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// fromBSON flattens driver types (int32, bson.A, nested documents) into the
// plain JSON shapes the entity stores decode.
func fromBSON(doc bson.M) (Record, error) {
	id, ok := doc["_id"].(string)
	if !ok {
		return nil, ErrMissingID
	}
	delete(doc, "_id")

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return decodeRecord(id, data)
}
