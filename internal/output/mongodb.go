// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valpere/jobharvest/internal/extract"
	"github.com/valpere/jobharvest/internal/utils"
)

var mongoLogger = utils.NewComponentLogger("mongodb-output")

// MongoDBWriter upserts listings into a collection keyed by url. Listings
// without a url are inserted as new documents.
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
	upserted   int64
	matched    int64
}

// NewMongoDBWriter connects, pings and ensures a unique url index.
func NewMongoDBWriter(ctx context.Context, uri, database, collection string) (*MongoDBWriter, error) {
	if uri == "" {
		return nil, fmt.Errorf("MongoDB connection string is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "url", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"url": bson.M{"$type": "string"}}),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create url index: %w", err)
	}

	mongoLogger.Debugf("connected to %s.%s", database, collection)
	return &MongoDBWriter{client: client, collection: coll}, nil
}

func listingDocument(l extract.Listing) bson.M {
	doc := bson.M{
		"title":             l.Title,
		"company":           l.Company,
		"location":          l.Location,
		"salary":            l.Salary,
		"salary_period":     l.SalaryPeriod,
		"job_type":          l.JobType,
		"posted_date":       l.PostedDate,
		"summary":           l.Summary,
		"scraped_from_page": l.Page,
	}
	if hasURL(l) {
		doc["url"] = l.URL
	}
	if !l.ScrapedAt.IsZero() {
		doc["scraped_at"] = l.ScrapedAt.UTC()
	}
	return doc
}

func (w *MongoDBWriter) Write(ctx context.Context, listings []extract.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(listings))
	for _, l := range listings {
		doc := listingDocument(l)
		if !hasURL(l) {
			models = append(models, mongo.NewInsertOneModel().SetDocument(doc))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"url": l.URL}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	res, err := w.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("MongoDB bulk write failed: %w", err)
	}
	w.upserted += res.UpsertedCount + res.InsertedCount
	w.matched += res.MatchedCount
	mongoLogger.Debugf("bulk write: %d new, %d updated", res.UpsertedCount+res.InsertedCount, res.MatchedCount)
	return nil
}

// Close disconnects the client.
func (w *MongoDBWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConfig().Timeout)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client = nil
	return err
}
