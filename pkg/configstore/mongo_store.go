package configstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig represents the configuration for the MongoDB-backed store.
type MongoConfig struct {
	ConnectionURL   string        `env:"MONGODB_URL,required"`
	Database        string        `env:"MONGODB_DATABASE" envDefault:"experimentkit"`
	Collection      string        `env:"MONGODB_COLLECTION" envDefault:"experiment_config"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

// ConnectMongo creates a mongo client, retrying per the config before giving
// up with ErrStoreUnavailable.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime).
				SetRetryWrites(cfg.RetryWrites).
				SetRetryReads(cfg.RetryReads),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrStoreUnavailable, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, ErrStoreUnavailable
}

// MongoHealthcheck returns a health check function suitable for readiness
// probes. It performs a lightweight Ping to verify connectivity.
func MongoHealthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
		return nil
	}
}

// The configuration lives in two well-known documents within one collection.
const (
	flagsDocID    = "flags"
	segmentsDocID = "segments"
)

type flagsRecord struct {
	ID            string `bson:"_id"`
	FlagsDocument `bson:",inline"`
}

type segmentsRecord struct {
	ID               string `bson:"_id"`
	SegmentsDocument `bson:",inline"`
}

// MongoStore is a Store backed by a MongoDB collection holding the two
// configuration documents.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a store on the configured database and collection.
func NewMongoStore(client *mongo.Client, cfg MongoConfig) *MongoStore {
	return &MongoStore{col: client.Database(cfg.Database).Collection(cfg.Collection)}
}

// GetFlags loads the flag document.
func (s *MongoStore) GetFlags(ctx context.Context) (FlagsDocument, error) {
	var rec flagsRecord
	if err := s.col.FindOne(ctx, bson.M{"_id": flagsDocID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return FlagsDocument{}, ErrNotFound
		}
		return FlagsDocument{}, errors.Join(ErrStoreUnavailable, err)
	}
	return rec.FlagsDocument, nil
}

// PutFlags validates and replaces the flag document. The replace filter only
// matches documents strictly below the incoming version; a concurrent write
// at or above it turns the upsert into a duplicate-key insert, which is
// reported as ErrVersionConflict.
func (s *MongoStore) PutFlags(ctx context.Context, doc FlagsDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	filter := bson.M{"_id": flagsDocID, "version": bson.M{"$lt": doc.Version}}
	_, err := s.col.ReplaceOne(ctx, filter, flagsRecord{ID: flagsDocID, FlagsDocument: doc},
		options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// GetSegments loads the segment document.
func (s *MongoStore) GetSegments(ctx context.Context) (SegmentsDocument, error) {
	var rec segmentsRecord
	if err := s.col.FindOne(ctx, bson.M{"_id": segmentsDocID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return SegmentsDocument{}, ErrNotFound
		}
		return SegmentsDocument{}, errors.Join(ErrStoreUnavailable, err)
	}
	return rec.SegmentsDocument, nil
}

// PutSegments validates and replaces the segment document with the same
// version discipline as PutFlags.
func (s *MongoStore) PutSegments(ctx context.Context, doc SegmentsDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	filter := bson.M{"_id": segmentsDocID, "version": bson.M{"$lt": doc.Version}}
	_, err := s.col.ReplaceOne(ctx, filter, segmentsRecord{ID: segmentsDocID, SegmentsDocument: doc},
		options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
