// internal/adapters/out/firestore/cart_remote_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "atelier/internal/domain/cart"
)

// CartRemoteFS reads and writes the "cart" field of the per-user document
// (collection: users, docId: uid).
//
// Supported stored shapes:
//  1. cart: [ {productId, name, size, material, fingerprint, unitPrice, qty} ]
//  2. cart: map[lineKey] = qty (legacy; lineKey is "productId|size|material|fp")
type CartRemoteFS struct {
	Client *firestore.Client
}

func NewCartRemoteFS(client *firestore.Client) *CartRemoteFS {
	return &CartRemoteFS{Client: client}
}

func (r *CartRemoteFS) col() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

// Fetch returns (nil, false, nil) when the user document or its cart field
// does not exist yet.
func (r *CartRemoteFS) Fetch(ctx context.Context, uid string) ([]cartdom.Item, bool, error) {
	if r == nil || r.Client == nil {
		return nil, false, errors.New("cart_remote_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, false, errors.New("cart_remote_fs: uid is empty")
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
	field, ok := raw["cart"]
	if !ok || field == nil {
		return nil, false, nil
	}

	return parseCartField(field), true, nil
}

// Store overwrites the cart field, merge-written so unrelated per-user
// fields (wishlist, roles, onboarding) are never clobbered.
func (r *CartRemoteFS) Store(ctx context.Context, uid string, items []cartdom.Item) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_remote_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("cart_remote_fs: uid is empty")
	}

	docs := make([]cartItemDoc, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" || it.Qty <= 0 {
			continue
		}
		docs = append(docs, cartItemDoc{
			ProductID:   strings.TrimSpace(it.ProductID),
			Name:        strings.TrimSpace(it.Name),
			Size:        strings.TrimSpace(it.Size),
			Material:    strings.TrimSpace(it.Material),
			Fingerprint: strings.TrimSpace(it.Fingerprint),
			UnitPrice:   it.UnitPrice,
			Qty:         it.Qty,
		})
	}

	_, err := r.col().Doc(uid).Set(ctx, map[string]any{
		"cart":          docs,
		"cartUpdatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

type cartItemDoc struct {
	ProductID   string `firestore:"productId"`
	Name        string `firestore:"name,omitempty"`
	Size        string `firestore:"size"`
	Material    string `firestore:"material"`
	Fingerprint string `firestore:"fingerprint"`
	UnitPrice   int64  `firestore:"unitPrice"`
	Qty         int    `firestore:"qty"`
}

// parseCartField handles both stored shapes with loose typing.
func parseCartField(field any) []cartdom.Item {
	switch v := field.(type) {
	case []any:
		items := make([]cartdom.Item, 0, len(v))
		for _, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			it := cartdom.Item{
				ProductID:   strings.TrimSpace(asString(m["productId"])),
				Name:        strings.TrimSpace(asString(m["name"])),
				Size:        strings.TrimSpace(asString(m["size"])),
				Material:    strings.TrimSpace(asString(m["material"])),
				Fingerprint: strings.TrimSpace(asString(m["fingerprint"])),
				UnitPrice:   asInt64(m["unitPrice"]),
				Qty:         asInt(m["qty"]),
			}
			if it.ProductID == "" || it.Qty <= 0 {
				continue
			}
			items = append(items, it)
		}
		return items

	case map[string]any:
		// legacy shape: lineKey -> qty
		items := make([]cartdom.Item, 0, len(v))
		for key, qtyRaw := range v {
			qty := asInt(qtyRaw)
			if qty <= 0 {
				continue
			}
			it := itemFromLegacyKey(key)
			if it.ProductID == "" {
				continue
			}
			it.Qty = qty
			items = append(items, it)
		}
		return items
	}

	return nil
}

// itemFromLegacyKey splits the derived line key back into its components.
// Fields beyond what the key encodes (name, price) are unrecoverable and
// are backfilled from the catalog at render time.
func itemFromLegacyKey(key string) cartdom.Item {
	parts := strings.SplitN(key, "|", 4)
	it := cartdom.Item{ProductID: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		it.Size = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		it.Material = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		it.Fingerprint = strings.TrimSpace(parts[3])
	}
	return it
}
