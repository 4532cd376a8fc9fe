package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

const (
	collectionSnapshots = "capture_snapshots"

	// Only compress payloads larger than this.
	compressionThreshold = 1024 // 1KB

	// Snapshots expire after the evidentiary retention window.
	snapshotTTL = 180 * 24 * time.Hour
)

// SnapshotAdapter implements out.SnapshotArchive using MongoDB. One
// document per flagged item holds the raw payload as captured.
type SnapshotAdapter struct {
	collection *mongo.Collection
}

// NewSnapshotAdapter creates the snapshot archive adapter.
func NewSnapshotAdapter(db *mongo.Database) *SnapshotAdapter {
	return &SnapshotAdapter{
		collection: db.Collection(collectionSnapshots),
	}
}

// EnsureIndexes creates the collection indexes.
func (a *SnapshotAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "item_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// snapshotDocument is the MongoDB document structure.
type snapshotDocument struct {
	SnapshotID   string    `bson:"snapshot_id"`
	ItemID       int64     `bson:"item_id"`
	Source       string    `bson:"source"`
	Payload      []byte    `bson:"payload"`
	IsCompressed bool      `bson:"is_compressed"`
	OriginalSize int64     `bson:"original_size"`
	ArchivedAt   time.Time `bson:"archived_at"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

// SaveSnapshot archives one raw payload and returns the snapshot ID.
func (a *SnapshotAdapter) SaveSnapshot(ctx context.Context, itemID int64, source domain.Source, raw []byte) (string, error) {
	doc := snapshotDocument{
		SnapshotID:   uuid.NewString(),
		ItemID:       itemID,
		Source:       string(source),
		Payload:      raw,
		OriginalSize: int64(len(raw)),
		ArchivedAt:   time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(snapshotTTL),
	}

	if len(raw) > compressionThreshold {
		compressed, err := gzipBytes(raw)
		if err == nil && len(compressed) < len(raw) {
			doc.Payload = compressed
			doc.IsCompressed = true
		}
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return doc.SnapshotID, nil
}

// GetSnapshot fetches the raw payload archived for a flagged item.
func (a *SnapshotAdapter) GetSnapshot(ctx context.Context, itemID int64) ([]byte, error) {
	var doc snapshotDocument
	err := a.collection.FindOne(ctx, bson.M{"item_id": itemID},
		options.FindOne().SetSort(bson.D{{Key: "archived_at", Value: -1}})).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	if doc.IsCompressed {
		return gunzipBytes(doc.Payload)
	}
	return doc.Payload, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

var _ out.SnapshotArchive = (*SnapshotAdapter)(nil)
