// internal/adapters/out/firestore/wishlist_remote_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	wishdom "atelier/internal/domain/wishlist"
)

// WishlistRemoteFS reads and writes the "wishlist" field of the per-user
// document.
//
// Supported stored shapes:
//  1. wishlist: [ {productId, name, imageUrl, price} ]
//  2. wishlist: [ "productId", ... ] (legacy; ids only)
type WishlistRemoteFS struct {
	Client *firestore.Client
}

func NewWishlistRemoteFS(client *firestore.Client) *WishlistRemoteFS {
	return &WishlistRemoteFS{Client: client}
}

func (r *WishlistRemoteFS) col() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

func (r *WishlistRemoteFS) Fetch(ctx context.Context, uid string) ([]wishdom.Item, bool, error) {
	if r == nil || r.Client == nil {
		return nil, false, errors.New("wishlist_remote_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, false, errors.New("wishlist_remote_fs: uid is empty")
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	raw := snap.Data()
	if raw == nil {
		return nil, false, nil
	}
	field, ok := raw["wishlist"]
	if !ok || field == nil {
		return nil, false, nil
	}

	entries, ok := field.([]any)
	if !ok {
		return nil, false, nil
	}

	items := make([]wishdom.Item, 0, len(entries))
	seen := map[string]struct{}{}
	for _, e := range entries {
		var it wishdom.Item
		switch v := e.(type) {
		case map[string]any:
			it = wishdom.Item{
				ProductID: strings.TrimSpace(asString(v["productId"])),
				Name:      strings.TrimSpace(asString(v["name"])),
				ImageURL:  strings.TrimSpace(asString(v["imageUrl"])),
				Price:     asInt64(v["price"]),
			}
		case string:
			// legacy shape: bare product id
			it = wishdom.Item{ProductID: strings.TrimSpace(v)}
		default:
			continue
		}
		if it.ProductID == "" {
			continue
		}
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		items = append(items, it)
	}
	return items, true, nil
}

func (r *WishlistRemoteFS) Store(ctx context.Context, uid string, items []wishdom.Item) error {
	if r == nil || r.Client == nil {
		return errors.New("wishlist_remote_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("wishlist_remote_fs: uid is empty")
	}

	docs := make([]wishlistItemDoc, 0, len(items))
	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			continue
		}
		docs = append(docs, wishlistItemDoc{
			ProductID: pid,
			Name:      strings.TrimSpace(it.Name),
			ImageURL:  strings.TrimSpace(it.ImageURL),
			Price:     it.Price,
		})
	}

	_, err := r.col().Doc(uid).Set(ctx, map[string]any{
		"wishlist":          docs,
		"wishlistUpdatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

type wishlistItemDoc struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name,omitempty"`
	ImageURL  string `firestore:"imageUrl,omitempty"`
	Price     int64  `firestore:"price,omitempty"`
}
