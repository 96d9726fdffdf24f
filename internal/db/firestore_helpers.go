package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// getDoc fetches and decodes one document, mapping codes.NotFound to ErrNotFound.
func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, setID func(*T, string)) (*T, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s/%s: %w", ref.Parent.ID, ref.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", ref.Parent.ID, ref.ID, err)
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", ref.Parent.ID, ref.ID, err)
	}
	setID(&v, snap.Ref.ID)
	return &v, nil
}

// collect runs q and decodes every result.
func collect[T any](ctx context.Context, q firestore.Query, setID func(*T, string)) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*T{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", doc.Ref.ID, err)
		}
		setID(&v, doc.Ref.ID)
		out = append(out, &v)
	}
	return out, nil
}

// count runs a server-side COUNT aggregation over q.
func count(ctx context.Context, q firestore.Query) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	raw, ok := res["total"]
	if !ok {
		return 0, errors.New("count aggregation returned no result")
	}
	v, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count aggregation type %T", raw)
	}
	return int(v.GetIntegerValue()), nil
}

// deleteDoc deletes an existing document; a missing document yields ErrNotFound.
func deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s/%s: %w", ref.Parent.ID, ref.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s/%s: %w", ref.Parent.ID, ref.ID, err)
	}
	return nil
}
