package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ownedMemoryRepository[T any, PT DocumentPtr[T]] struct {
	mu   sync.RWMutex
	docs map[bson.ObjectID]T
}

// NewOwnedMemoryRepository returns an OwnedRepository kept in process memory.
func NewOwnedMemoryRepository[T any, PT DocumentPtr[T]]() OwnedRepository[T, PT] {
	return &ownedMemoryRepository[T, PT]{docs: make(map[bson.ObjectID]T)}
}

func (r *ownedMemoryRepository[T, PT]) Create(_ context.Context, userID string, doc PT) (PT, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	doc.SetDocumentID(bson.NewObjectID())
	doc.SetOwner(userID)
	doc.Touch(now, now)
	r.docs[doc.DocumentID()] = *doc

	out := *doc
	return &out, nil
}

func (r *ownedMemoryRepository[T, PT]) List(_ context.Context, userID string) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := []T{}
	for _, doc := range r.docs {
		if PT(&doc).Owner() == userID {
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return PT(&docs[i]).Created().After(PT(&docs[j]).Created())
	})

	return docs, nil
}

// lookup returns the document under id owned by userID. Callers hold mu.
func (r *ownedMemoryRepository[T, PT]) lookup(userID, id string) (T, error) {
	var zero T

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return zero, ErrInvalidID
	}

	doc, ok := r.docs[objectID]
	if !ok || PT(&doc).Owner() != userID {
		return zero, ErrNotFound
	}
	return doc, nil
}

func (r *ownedMemoryRepository[T, PT]) Get(_ context.Context, userID, id string) (PT, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, err := r.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *ownedMemoryRepository[T, PT]) Replace(_ context.Context, userID, id string, doc PT) (PT, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.lookup(userID, id)
	if err != nil {
		return nil, err
	}

	prev := PT(&existing)
	doc.SetDocumentID(prev.DocumentID())
	doc.SetOwner(userID)
	doc.Touch(prev.Created(), time.Now())
	r.docs[doc.DocumentID()] = *doc

	out := *doc
	return &out, nil
}

func (r *ownedMemoryRepository[T, PT]) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(userID, id); err != nil {
		return err
	}

	objectID, _ := bson.ObjectIDFromHex(id)
	delete(r.docs, objectID)
	return nil
}
