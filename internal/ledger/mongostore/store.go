// Package mongostore persists ledger records in MongoDB. Records are
// partitioned by owner scope and month; a record written before
// scoping existed has no chat_id field at all and stays visible to
// every scope.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/normalize"
)

// Store is a MongoDB-backed ledger.Store.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
	clock  *normalize.Clock
}

// document is the stored shape of a record. chat_id is omitted for
// legacy records rather than stored empty, which is what keeps the
// owned-or-absent filter working.
type document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerScope *string            `bson:"chat_id,omitempty"`
	Amount     float64            `bson:"amount"`
	Category   string             `bson:"category"`
	Payee      string             `bson:"payee"`
	TimeLocal  string             `bson:"time_local"`
	Month      string             `bson:"ym"`
	InstantUTC time.Time          `bson:"ts_utc"`
	Timezone   string             `bson:"tz"`
	CreatedAt  time.Time          `bson:"created_at_utc"`
}

func (d *document) toRecord() *ledger.Record {
	return &ledger.Record{
		ID:             d.ID.Hex(),
		OwnerScope:     d.OwnerScope,
		Amount:         d.Amount,
		Category:       d.Category,
		Payee:          d.Payee,
		TimeLocal:      d.TimeLocal,
		MonthPartition: d.Month,
		InstantUTC:     d.InstantUTC,
		Timezone:       d.Timezone,
		CreatedAt:      d.CreatedAt,
	}
}

// Connect dials MongoDB, verifies the connection and returns a Store
// bound to the given database and collection.
func Connect(ctx context.Context, uri, database, collection string, clock *normalize.Clock) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("Connect: dial mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("Connect: ping mongo: %w", err)
	}
	return &Store{
		client: client,
		col:    client.Database(database).Collection(collection),
		clock:  clock,
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the compound index backing monthly listings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "chat_id", Value: 1},
			{Key: "ym", Value: 1},
			{Key: "ts_utc", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("EnsureIndexes: create index: %w", err)
	}
	return nil
}

// scopeFilter matches records owned by scope plus legacy records that
// predate scoping and carry no chat_id at all.
func scopeFilter(scope string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"chat_id": scope},
		bson.M{"chat_id": bson.M{"$exists": false}},
	}}
}

// Insert implements ledger.Store.
func (s *Store) Insert(ctx context.Context, rec *ledger.Record) (*ledger.Record, error) {
	_, utc, err := s.clock.LocalToUTC(rec.TimeLocal)
	if err != nil {
		return nil, &ledger.ValidationError{Field: "time", Err: err}
	}

	doc := document{
		ID:         primitive.NewObjectID(),
		OwnerScope: rec.OwnerScope,
		Amount:     rec.Amount,
		Category:   rec.Category,
		Payee:      rec.Payee,
		TimeLocal:  rec.TimeLocal,
		Month:      normalize.MonthOf(rec.TimeLocal),
		InstantUTC: utc,
		Timezone:   s.clock.Location().String(),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("Insert: insert record: %w", err)
	}
	return doc.toRecord(), nil
}

// Get implements ledger.Store.
func (s *Store) Get(ctx context.Context, id, scope string) (*ledger.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ledger.ErrNotFound
	}

	filter := bson.M{
		"_id": oid,
		"$or": scopeFilter(scope)["$or"],
	}
	var doc document
	err = s.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: find record %s: %w", id, err)
	}
	return doc.toRecord(), nil
}

// ListMonth implements ledger.Store.
func (s *Store) ListMonth(ctx context.Context, scope, month string, limit int) ([]*ledger.Record, error) {
	filter := bson.M{
		"ym":  month,
		"$or": scopeFilter(scope)["$or"],
	}
	opts := options.Find().SetSort(bson.D{{Key: "ts_utc", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ListMonth: query month %s: %w", month, err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ListMonth: decode records: %w", err)
	}

	result := make([]*ledger.Record, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toRecord())
	}
	return result, nil
}

// Update implements ledger.Store. The read-modify-write runs as a
// single FindOneAndUpdate so concurrent edits cannot interleave.
func (s *Store) Update(ctx context.Context, id, scope string, upd ledger.Update) (*ledger.Record, error) {
	if upd.IsEmpty() {
		return nil, ledger.ErrEmptyUpdate
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ledger.ErrNotFound
	}

	set := bson.M{}
	if upd.Amount != nil {
		set["amount"] = *upd.Amount
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Payee != nil {
		set["payee"] = *upd.Payee
	}
	if upd.TimeLocal != nil {
		_, utc, err := s.clock.LocalToUTC(*upd.TimeLocal)
		if err != nil {
			return nil, &ledger.ValidationError{Field: "time", Err: err}
		}
		set["time_local"] = *upd.TimeLocal
		set["ym"] = normalize.MonthOf(*upd.TimeLocal)
		set["ts_utc"] = utc
		set["tz"] = s.clock.Location().String()
	}

	filter := bson.M{
		"_id": oid,
		"$or": scopeFilter(scope)["$or"],
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	err = s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Update: update record %s: %w", id, err)
	}
	return doc.toRecord(), nil
}

// Delete implements ledger.Store. Each id is deleted independently so
// one bad id never blocks the rest of the batch.
func (s *Store) Delete(ctx context.Context, ids []string, scope string) (ledger.DeleteResult, error) {
	var res ledger.DeleteResult
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			res.Invalid = append(res.Invalid, id)
			continue
		}
		filter := bson.M{
			"_id": oid,
			"$or": scopeFilter(scope)["$or"],
		}
		out, err := s.col.DeleteOne(ctx, filter)
		if err != nil {
			return res, fmt.Errorf("Delete: delete record %s: %w", id, err)
		}
		if out.DeletedCount == 0 {
			res.NotFound++
			continue
		}
		res.Deleted++
	}
	return res, nil
}

var _ ledger.Store = (*Store)(nil)
