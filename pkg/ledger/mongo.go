package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect establishes a connection to the document store and returns the
// database configured in cfg. It retries the connection according to the
// retry settings before giving up.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
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
				return client.Database(cfg.Database), nil
			}
		}

		time.Sleep(cfg.RetryInterval)
	}

	return nil, ErrFailedToConnectToDB
}

// accountDoc is the persisted shape of an Account. The ID travels as a
// string to keep the _id index portable across driver versions.
type accountDoc struct {
	ID                 string     `bson:"_id"`
	Plan               string     `bson:"plan"`
	TokensUsed         int64      `bson:"tokens_used"`
	PeriodStart        *time.Time `bson:"period_start,omitempty"`
	PeriodEnd          *time.Time `bson:"period_end,omitempty"`
	SubscriptionID     string     `bson:"subscription_id,omitempty"`
	SubscriptionStatus string     `bson:"subscription_status,omitempty"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

func toDoc(a Account) accountDoc {
	return accountDoc{
		ID:                 a.ID.String(),
		Plan:               string(a.Plan),
		TokensUsed:         a.TokensUsed,
		PeriodStart:        a.PeriodStart,
		PeriodEnd:          a.PeriodEnd,
		SubscriptionID:     a.SubscriptionID,
		SubscriptionStatus: a.SubscriptionStatus,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (d accountDoc) toAccount() (Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Account{}, errors.Join(ErrInvalidAccountRecord, err)
	}
	return Account{
		ID:                 id,
		Plan:               Plan(d.Plan),
		TokensUsed:         d.TokensUsed,
		PeriodStart:        d.PeriodStart,
		PeriodEnd:          d.PeriodEnd,
		SubscriptionID:     d.SubscriptionID,
		SubscriptionStatus: d.SubscriptionStatus,
		UpdatedAt:          d.UpdatedAt,
	}, nil
}

// MongoStore persists account records in a MongoDB collection, one document
// per account. Transact runs inside a server-side transaction so the
// read-modify-write cycle is linearizable per document.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the given database using the configured
// collection name.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if db == nil {
		panic("ledger: mongo database is required")
	}
	if collection == "" {
		collection = "accounts"
	}
	return &MongoStore{coll: db.Collection(collection)}
}

// Get retrieves an account by ID.
func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	var doc accountDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	account, err := doc.toAccount()
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Transact executes fn against the current document inside a transaction and
// upserts the result. An absent document is presented to fn as the default
// account record.
func (s *MongoStore) Transact(ctx context.Context, id uuid.UUID, fn TransactFunc) (*Account, error) {
	session, err := s.coll.Database().Client().StartSession()
	if err != nil {
		return nil, errors.Join(ErrTransactionFailed, err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		current := NewAccount(id)

		var doc accountDoc
		err := s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			// First write for this account, fn sees the defaults.
		case err != nil:
			return nil, err
		default:
			if current, err = doc.toAccount(); err != nil {
				return nil, err
			}
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}

		next.ID = id
		next.UpdatedAt = time.Now().UTC()

		if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id.String()}, toDoc(next), options.Replace().SetUpsert(true)); err != nil {
			return nil, err
		}

		return &next, nil
	})
	if err != nil {
		return nil, errors.Join(ErrTransactionFailed, err)
	}

	account, ok := result.(*Account)
	if !ok {
		return nil, ErrUnexpectedResultShape
	}
	return account, nil
}
