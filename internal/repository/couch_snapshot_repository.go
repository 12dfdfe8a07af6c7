package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kivik/kivik/v4"

	"sim-sync/internal/domain"
)

type couchSnapshotDoc struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev,omitempty"`
	domain.Snapshot
}

type couchSnapshotRepository struct {
	client *kivik.Client
	dbName string
}

func NewCouchSnapshotRepository(client *kivik.Client, dbName string) SnapshotRepository {
	return &couchSnapshotRepository{
		client: client,
		dbName: dbName,
	}
}

// OpenCouchSnapshotRepository connects to the CouchDB server at dsn and
// creates dbName when it does not exist yet.
func OpenCouchSnapshotRepository(ctx context.Context, dsn, dbName string) (SnapshotRepository, error) {
	client, err := kivik.New("couch", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return NewCouchSnapshotRepository(client, dbName), nil
}

func snapshotDocID(resource string, gameID int) string {
	return "snapshot:" + domain.SnapshotKey(resource, gameID)
}

func (r *couchSnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	db := r.client.DB(r.dbName)
	docID := snapshotDocID(snapshot.Resource, snapshot.GameID)

	doc := couchSnapshotDoc{ID: docID, Snapshot: *snapshot}
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now()
	}

	rev, err := db.GetRev(ctx, docID)
	switch {
	case err == nil:
		doc.Rev = rev
	case kivik.HTTPStatus(err) != http.StatusNotFound:
		return fmt.Errorf("failed to fetch snapshot revision: %w", err)
	}

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (r *couchSnapshotRepository) Find(ctx context.Context, resource string, gameID int) (*domain.Snapshot, error) {
	db := r.client.DB(r.dbName)

	var doc couchSnapshotDoc
	if err := db.Get(ctx, snapshotDocID(resource, gameID)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}

	snapshot := doc.Snapshot
	return &snapshot, nil
}

func (r *couchSnapshotRepository) Delete(ctx context.Context, resource string, gameID int) error {
	db := r.client.DB(r.dbName)
	docID := snapshotDocID(resource, gameID)

	rev, err := db.GetRev(ctx, docID)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to fetch snapshot revision: %w", err)
	}

	if _, err := db.Delete(ctx, docID, rev); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

func (r *couchSnapshotRepository) Close() error {
	return r.client.Close()
}
