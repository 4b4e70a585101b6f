package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore. Collection paths map
// directly onto Firestore paths, so "users/{uid}/cart" is a subcollection.
type FirestoreStore struct {
	Client *firestore.Client
}

// NewFirestoreStore connects to Firestore. An empty credentialsFile uses
// Application Default Credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if strings.TrimSpace(credentialsFile) != "" {
		client, err = firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: firestore.NewClient (project=%s): %w", projectID, err)
	}
	log.Printf("[docstore] Firestore connected project=%s", projectID)
	return &FirestoreStore{Client: client}, nil
}

func (s *FirestoreStore) col(collection string) (*firestore.CollectionRef, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("docstore: firestore client is nil")
	}
	if !validCollection(collection) {
		return nil, ErrInvalidCollection
	}
	ref := s.Client.Collection(collection)
	if ref == nil {
		return nil, ErrInvalidCollection
	}
	return ref, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	col, err := s.col(collection)
	if err != nil {
		return Document{}, err
	}
	snap, err := col.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	if _, err := col.Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	_, err = col.Doc(id).Set(ctx, data)
	return err
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := col.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	_, err = col.Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	col, err := s.col(collection)
	if err != nil {
		return nil, err
	}
	q := col.Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toDocuments(snaps), nil
}

// Watch runs a Firestore snapshot listener in the background.
func (s *FirestoreStore) Watch(ctx context.Context, collection string, fn WatchFunc) error {
	col, err := s.col(collection)
	if err != nil {
		return err
	}
	it := col.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				log.Printf("[docstore] WARN: snapshot listener on %s stopped: %v", collection, err)
				fn(nil, err)
				return
			}
			snaps, err := snap.Documents.GetAll()
			if err != nil {
				fn(nil, err)
				continue
			}
			fn(toDocuments(snaps), nil)
		}
	}()
	return nil
}

func (s *FirestoreStore) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []Document {
	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		out = append(out, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out
}
