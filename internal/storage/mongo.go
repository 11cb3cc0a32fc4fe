package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

const connectTimeout = 10 * time.Second

// runDocument is how a run is stored in MongoDB: the metadata fields at
// the top level next to the recorded rows.
type runDocument struct {
	RunMetadata `bson:",inline"`
	Times       []float64   `bson:"times"`
	Telemetry   [][]float64 `bson:"telemetry"`
	Controls    [][]float64 `bson:"controls"`
}

// MongoSink stores runs as documents in one collection.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage: connect %s: %w", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("storage: ping %s: %w", uri, err)
	}
	log.WithFields(logrus.Fields{"db": database, "col": collection}).Info("connected to mongo")
	return &MongoSink{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *MongoSink) Write(ctx context.Context, meta RunMetadata, result *dynamo.Result) error {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	}
	data := NewExportData(meta, result)
	doc := runDocument{
		RunMetadata: meta,
		Times:       data.Times,
		Telemetry:   data.Telemetry,
		Controls:    data.Controls,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("storage: insert %s: %w", meta.ID, err)
	}
	log.WithField("id", meta.ID).Info("run sent to mongo")
	return nil
}

// Load fetches one run by ID.
func (m *MongoSink) Load(ctx context.Context, runID string) (*RunMetadata, *dynamo.Result, error) {
	var doc runDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, nil, err
	}
	result := &dynamo.Result{
		Times:      doc.Times,
		Metrics:    doc.Metrics,
		StepsTaken: doc.Steps,
	}
	for _, row := range doc.Telemetry {
		result.Telemetry = append(result.Telemetry, row)
	}
	for _, u := range doc.Controls {
		result.Controls = append(result.Controls, u)
	}
	return &doc.RunMetadata, result, nil
}

// List returns run metadata newest first, without telemetry.
func (m *MongoSink) List(ctx context.Context, limit int64) ([]RunMetadata, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetProjection(bson.M{"times": 0, "telemetry": 0, "controls": 0}).
		SetLimit(limit)
	cursor, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := make([]RunMetadata, 0)
	for cursor.Next(ctx) {
		var meta RunMetadata
		if err := cursor.Decode(&meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, cursor.Err()
}

func (m *MongoSink) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
