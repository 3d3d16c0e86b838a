package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using MongoDB. Collections:
//
//	impi_av            _id=impi
//	impu_subscription  _id=impu
//	impi_impu_mapping  _id=impi, impus=[]string
type MongoStore struct {
	client        *mongo.Client
	av            *mongo.Collection
	subscriptions *mongo.Collection
	mappings      *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a ready Store.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:        client,
		av:            db.Collection("impi_av"),
		subscriptions: db.Collection("impu_subscription"),
		mappings:      db.Collection("impi_impu_mapping"),
	}

	if err := s.createIndexes(connectCtx); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	if _, err := s.av.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create impi_av indexes: %w", err)
	}
	if _, err := s.subscriptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create impu_subscription indexes: %w", err)
	}
	return nil
}

type mongoAV struct {
	ID              string `bson:"_id"`
	Scheme          string `bson:"scheme"`
	HA1             string `bson:"ha1,omitempty"`
	Realm           string `bson:"realm,omitempty"`
	QOP             string `bson:"qop,omitempty"`
	PreferredScheme string `bson:"preferred_scheme,omitempty"`
	Challenge       string `bson:"challenge,omitempty"`
	Response        string `bson:"response,omitempty"`
	CryptKey        string `bson:"cryptkey,omitempty"`
	IntegrityKey    string `bson:"integritykey,omitempty"`
	Timestamp       int64  `bson:"ts"`
	ExpiresAt       time.Time `bson:"expires_at"`
}

// GetAV returns the stored AV for impi, or ErrNotFound.
func (s *MongoStore) GetAV(ctx context.Context, impi string) (AV, error) {
	var doc mongoAV
	err := s.av.FindOne(ctx, bson.M{"_id": impi}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return AV{}, ErrNotFound
	}
	if err != nil {
		return AV{}, fmt.Errorf("get av: %w", err)
	}
	if time.Now().After(doc.ExpiresAt) {
		return AV{}, ErrNotFound
	}
	return AV{
		Scheme:          AVScheme(doc.Scheme),
		HA1:             doc.HA1,
		Realm:           doc.Realm,
		QOP:             doc.QOP,
		PreferredScheme: doc.PreferredScheme,
		Challenge:       doc.Challenge,
		Response:        doc.Response,
		CryptKey:        doc.CryptKey,
		IntegrityKey:    doc.IntegrityKey,
	}, nil
}

// PutAV upserts the AV for impi, last-write-wins by ts.
func (s *MongoStore) PutAV(ctx context.Context, impi string, av AV, ts int64, ttl time.Duration) error {
	doc := mongoAV{
		ID:              impi,
		Scheme:          string(av.Scheme),
		HA1:             av.HA1,
		Realm:           av.Realm,
		QOP:             av.QOP,
		PreferredScheme: av.PreferredScheme,
		Challenge:       av.Challenge,
		Response:        av.Response,
		CryptKey:        av.CryptKey,
		IntegrityKey:    av.IntegrityKey,
		Timestamp:       ts,
		ExpiresAt:       time.Now().Add(ttl),
	}

	filter := bson.M{
		"_id": impi,
		"$or": bson.A{
			bson.M{"ts": bson.M{"$lte": ts}},
			bson.M{"ts": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := s.av.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Stale write raced with a newer one; the newer write already won.
			return nil
		}
		return fmt.Errorf("put av: %w", err)
	}
	return nil
}

type mongoSubscription struct {
	ID                string    `bson:"_id"`
	XML               string    `bson:"xml"`
	RegState          string    `bson:"reg_state"`
	AssociatedImpis   []string  `bson:"associated_impis"`
	ChargingAddresses string    `bson:"charging_addresses,omitempty"`
	Timestamp         int64     `bson:"ts"`
	ExpiresAt         time.Time `bson:"expires_at"`
}

// GetIMSSubscription returns the subscription row for impu, or ErrNotFound.
func (s *MongoStore) GetIMSSubscription(ctx context.Context, impu string) (IMSSubscription, error) {
	var doc mongoSubscription
	err := s.subscriptions.FindOne(ctx, bson.M{"_id": impu}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return IMSSubscription{}, ErrNotFound
	}
	if err != nil {
		return IMSSubscription{}, fmt.Errorf("get ims subscription: %w", err)
	}
	if time.Now().After(doc.ExpiresAt) {
		return IMSSubscription{}, ErrNotFound
	}
	return IMSSubscription{
		XML:               doc.XML,
		RegState:          RegState(doc.RegState),
		AssociatedImpis:   doc.AssociatedImpis,
		ChargingAddresses: doc.ChargingAddresses,
		ExpiresAt:         doc.ExpiresAt,
	}, nil
}

// PutIMSSubscription writes an identical row for every IMPU in impus,
// recording associatedImpis and mapping each of them to the default IMPU
// (impus[0]) in impi_impu_mapping. A RegStateUnchanged write preserves
// whatever reg_state each row already has.
func (s *MongoStore) PutIMSSubscription(ctx context.Context, impus []string, associatedImpis []string, xml string, chargingAddresses string, regState RegState, ts int64, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	for _, impu := range impus {
		state := regState
		if state == RegStateUnchanged {
			existing, err := s.GetIMSSubscription(ctx, impu)
			if err == nil {
				state = existing.RegState
			} else {
				state = RegStateNotRegistered
			}
		}

		doc := mongoSubscription{
			ID:                impu,
			XML:               xml,
			RegState:          string(state),
			AssociatedImpis:   associatedImpis,
			ChargingAddresses: chargingAddresses,
			Timestamp:         ts,
			ExpiresAt:         expiresAt,
		}

		filter := bson.M{
			"_id": impu,
			"$or": bson.A{
				bson.M{"ts": bson.M{"$lte": ts}},
				bson.M{"ts": bson.M{"$exists": false}},
			},
		}
		update := bson.M{"$set": doc}
		opts := options.Update().SetUpsert(true)

		if _, err := s.subscriptions.UpdateOne(ctx, filter, update, opts); err != nil {
			return fmt.Errorf("put ims subscription %s: %w", impu, err)
		}
	}

	if len(impus) > 0 && len(associatedImpis) > 0 {
		defaultImpu := impus[0]
		for _, impi := range associatedImpis {
			if _, err := s.mappings.UpdateOne(ctx,
				bson.M{"_id": impi},
				bson.M{"$addToSet": bson.M{"impus": defaultImpu}},
				options.Update().SetUpsert(true),
			); err != nil {
				return fmt.Errorf("put ims subscription: map %s to %s: %w", impi, defaultImpu, err)
			}
		}
	}

	return nil
}

type mongoMapping struct {
	ID    string   `bson:"_id"`
	Impus []string `bson:"impus"`
}

// GetAssociatedPrimaryPublicIDs returns the flat union of default IMPUs
// mapped to by the given IMPIs.
func (s *MongoStore) GetAssociatedPrimaryPublicIDs(ctx context.Context, impis []string) ([]string, error) {
	if len(impis) == 0 {
		return nil, nil
	}

	cursor, err := s.mappings.Find(ctx, bson.M{"_id": bson.M{"$in": impis}})
	if err != nil {
		return nil, fmt.Errorf("get associated primary public ids: %w", err)
	}
	defer cursor.Close(ctx)

	seen := make(map[string]struct{})
	var impus []string
	for cursor.Next(ctx) {
		var doc mongoMapping
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode impi_impu_mapping: %w", err)
		}
		for _, impu := range doc.Impus {
			if _, ok := seen[impu]; !ok {
				seen[impu] = struct{}{}
				impus = append(impus, impu)
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return impus, nil
}

// DissociateImplicitRegistrationSetFromImpi clears the impu_subscription
// rows for impus and removes impus from the mapping rows of impis.
func (s *MongoStore) DissociateImplicitRegistrationSetFromImpi(ctx context.Context, impus []string, impis []string, ts int64) error {
	if len(impus) > 0 {
		if _, err := s.subscriptions.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": impus}}); err != nil {
			return fmt.Errorf("dissociate: delete subscriptions: %w", err)
		}
	}
	for _, impi := range impis {
		if _, err := s.mappings.UpdateOne(ctx,
			bson.M{"_id": impi},
			bson.M{"$pull": bson.M{"impus": bson.M{"$in": impus}}},
		); err != nil && err != mongo.ErrNoDocuments {
			return fmt.Errorf("dissociate: update mapping %s: %w", impi, err)
		}
	}
	return nil
}

// DeleteIMPIMapping removes all impi_impu_mapping rows for the given IMPIs.
func (s *MongoStore) DeleteIMPIMapping(ctx context.Context, impis []string, ts int64) error {
	if len(impis) == 0 {
		return nil
	}
	if _, err := s.mappings.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": impis}}); err != nil {
		return fmt.Errorf("delete impi mapping: %w", err)
	}
	return nil
}

// Close disconnects the MongoDB client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
