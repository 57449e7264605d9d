package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/debemdeboas/inkwell/internal/errs"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreAPI is the part of a Firestore client FirestoreStore uses, flattened
// to collection and document ids. A missing document is reported with a gRPC
// NotFound status, as the client does.
type FirestoreAPI interface {
	Add(ctx context.Context, collection string, data map[string]interface{}) (id string, err error)
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)
	List(ctx context.Context, collection string) ([]StoredDocument, error)
	Close() error
}

type firestoreClient struct {
	client *firestore.Client
}

func (c firestoreClient) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := c.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (c firestoreClient) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	snap, err := c.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data(), nil
}

func (c firestoreClient) List(ctx context.Context, collection string) ([]StoredDocument, error) {
	snaps, err := c.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	docs := make([]StoredDocument, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, StoredDocument{
			Ref:  DocumentRef{Collection: collection, ID: snap.Ref.ID},
			Data: Document(snap.Data()),
		})
	}
	return docs, nil
}

func (c firestoreClient) Close() error {
	return c.client.Close()
}

// FirestoreStore writes documents into Cloud Firestore collections.
// ServerTimestamp maps onto firestore.ServerTimestamp so the backend assigns it.
type FirestoreStore struct { // implements Store
	client FirestoreAPI
}

func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firestore client: %w", err)
	}
	return NewFirestoreStoreWithClient(firestoreClient{client: client}), nil
}

func NewFirestoreStoreWithClient(client FirestoreAPI) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func toFirestore(doc Document) map[string]interface{} {
	data := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if _, ok := v.(serverTimestamp); ok {
			data[k] = firestore.ServerTimestamp
			continue
		}
		data[k] = v
	}
	return data
}

func (f *FirestoreStore) AddDocument(ctx context.Context, collectionPath string, doc Document) (DocumentRef, error) {
	if err := ValidateCollection(collectionPath); err != nil {
		return DocumentRef{}, err
	}

	id, err := f.client.Add(ctx, collectionPath, toFirestore(doc))
	if err != nil {
		return DocumentRef{}, fmt.Errorf("error saving document: %w", err)
	}

	storeLogger.Debug().Str("collection", collectionPath).Str("id", id).Msg("Document saved")
	return DocumentRef{Collection: collectionPath, ID: id}, nil
}

func (f *FirestoreStore) GetDocument(ctx context.Context, collectionPath, id string) (Document, error) {
	data, err := f.client.Get(ctx, collectionPath, id)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("document %s/%s: %w", collectionPath, id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}
	return Document(data), nil
}

func (f *FirestoreStore) ListDocuments(ctx context.Context, collectionPath string) ([]StoredDocument, error) {
	docs, err := f.client.List(ctx, collectionPath)
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	return docs, nil
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}
