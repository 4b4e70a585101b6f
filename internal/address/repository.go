package address

import (
	"context"
	"errors"
	"sort"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

var (
	ErrNotFound = errors.New("address not found")
)

type Repository interface {
	List(ctx context.Context, userID string) ([]Address, error)
	Get(ctx context.Context, userID, id string) (Address, error)
	Save(ctx context.Context, a Address) error
	Delete(ctx context.Context, userID, id string) error
	// SetDefaultFlag writes only the isDefault field.
	SetDefaultFlag(ctx context.Context, userID, id string, isDefault bool) error
}

// DocRepository keeps addresses in a per-user subcollection.
type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func collection(userID string) string {
	return docstore.Path("users", userID, "addresses")
}

// List returns the default address first, then the rest by receiver name.
func (r *DocRepository) List(ctx context.Context, userID string) ([]Address, error) {
	docs, err := r.store.Query(ctx, collection(userID))
	if err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(userID, d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ReceiverName < out[j].ReceiverName
	})
	return out, nil
}

func (r *DocRepository) Get(ctx context.Context, userID, id string) (Address, error) {
	doc, err := r.store.Get(ctx, collection(userID), id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, err
	}
	return decode(userID, doc), nil
}

func (r *DocRepository) Save(ctx context.Context, a Address) error {
	return r.store.Set(ctx, collection(a.UserID), a.ID, map[string]any{
		"id":            a.ID,
		"userId":        a.UserID,
		"receiverName":  a.ReceiverName,
		"phoneNumber":   a.PhoneNumber,
		"streetAddress": a.StreetAddress,
		"city":          a.City,
		"district":      a.District,
		"ward":          a.Ward,
		"isDefault":     a.IsDefault,
	})
}

func (r *DocRepository) Delete(ctx context.Context, userID, id string) error {
	return r.store.Delete(ctx, collection(userID), id)
}

func (r *DocRepository) SetDefaultFlag(ctx context.Context, userID, id string, isDefault bool) error {
	err := r.store.Update(ctx, collection(userID), id, map[string]any{"isDefault": isDefault})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func decode(userID string, doc docstore.Document) Address {
	a := Address{ID: doc.ID, UserID: userID}
	a.ReceiverName, _ = docstore.String(doc.Data, "receiverName")
	a.PhoneNumber, _ = docstore.String(doc.Data, "phoneNumber")
	a.StreetAddress, _ = docstore.String(doc.Data, "streetAddress")
	a.City, _ = docstore.String(doc.Data, "city")
	a.District, _ = docstore.String(doc.Data, "district")
	a.Ward, _ = docstore.String(doc.Data, "ward")
	a.IsDefault, _ = docstore.Bool(doc.Data, "isDefault")
	return a
}
