package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Firestore talks to a Cloud Firestore project. Live updates come from
// collection snapshot listeners, so writes from other clients are seen too.
type Firestore struct {
	client *firestore.Client
}

func OpenFirestore(ctx context.Context, projectID, credentialsPath string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	snaps, err := f.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", collection, err)
	}
	return fromSnapshots(snaps), nil
}

func (f *Firestore) Add(ctx context.Context, collection string, fields Record) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, map[string]any(fields.withoutID()))
	if err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, patch Record) error {
	ref := f.client.Collection(collection).Doc(id)
	fields := patch.withoutID()

	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if snap != nil && !snap.Exists() {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", collection, id, err)
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Set(ref, map[string]any(fields), firestore.MergeAll)
	})
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Subscribe(ctx context.Context, collection string, onChange func([]Record)) (func(), error) {
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	it := f.client.Collection(collection).Snapshots(listenCtx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if errors.Is(err, iterator.Done) || listenCtx.Err() != nil {
				return
			}
			if err != nil {
				slog.Error("snapshot listener failed", "collection", collection, "error", err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				slog.Error("snapshot read failed", "collection", collection, "error", err)
				continue
			}
			onChange(fromSnapshots(docs))
		}
	}()

	return cancel, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func fromSnapshots(snaps []*firestore.DocumentSnapshot) []Record {
	out := make([]Record, 0, len(snaps))
	for _, s := range snaps {
		rec := Record(s.Data())
		if rec == nil {
			rec = Record{}
		}
		rec[IDField] = s.Ref.ID
		out = append(out, rec)
	}
	return out
}
