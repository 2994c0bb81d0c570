package repository

import (
	"context"
	"strings"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/store"
)

// Tags is the tag repository.
type Tags struct {
	base
}

// Create adds a tag. Names are unique.
func (t *Tags) Create(ctx context.Context, name string) (*model.Tag, error) {
	return store.Write(ctx, t.store, func(tx *store.WriteTx) (*model.Tag, error) {
		tag := &model.Tag{Name: name}
		if err := tx.InsertTag(tag); err != nil {
			return nil, err
		}
		return tag, nil
	})
}

// GetOrCreate returns the tag named name, creating it if needed.
func (t *Tags) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	return store.Write(ctx, t.store, func(tx *store.WriteTx) (*model.Tag, error) {
		existing, err := tx.TagByName(name)
		if err != nil || existing != nil {
			return existing, err
		}
		tag := &model.Tag{Name: name}
		if err := tx.InsertTag(tag); err != nil {
			return nil, err
		}
		return tag, nil
	})
}

// All returns every tag by name.
func (t *Tags) All(ctx context.Context) ([]model.Tag, error) {
	return store.Read(ctx, t.store, func(tx *store.ReadTx) ([]model.Tag, error) {
		return tx.Tags()
	})
}

// Rename changes a tag's name.
func (t *Tags) Rename(ctx context.Context, id, name string) (*model.Tag, error) {
	return store.Write(ctx, t.store, func(tx *store.WriteTx) (*model.Tag, error) {
		if err := tx.RenameTag(id, name); err != nil {
			return nil, err
		}
		return tx.GetTag(id)
	})
}

// Delete removes a tag and detaches it from every reminder. The reminders
// themselves are kept.
func (t *Tags) Delete(ctx context.Context, id string) (bool, error) {
	return store.Write(ctx, t.store, func(tx *store.WriteTx) (bool, error) {
		return tx.DeleteTag(id)
	})
}
