// internal/adapters/out/firestore/like_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LikeRepositoryFS persists like toggles:
//   - users/{uid}.likedItemIds: the user's liked set (ArrayUnion/ArrayRemove)
//   - products/{itemId}.likeCount: the shared base counter (Increment)
//
// Both writes are merge-writes so concurrent field-level updates from other
// devices are not clobbered wholesale.
type LikeRepositoryFS struct {
	Client *firestore.Client
}

func NewLikeRepositoryFS(client *firestore.Client) *LikeRepositoryFS {
	return &LikeRepositoryFS{Client: client}
}

func (r *LikeRepositoryFS) users() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

func (r *LikeRepositoryFS) products() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

// SetLiked records the toggle outcome. The user-set write is authoritative
// for membership; the counter update is best-effort display data.
func (r *LikeRepositoryFS) SetLiked(ctx context.Context, uid, itemID string, liked bool) error {
	if r == nil || r.Client == nil {
		return errors.New("like_repository_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	itemID = strings.TrimSpace(itemID)
	if uid == "" || itemID == "" {
		return errors.New("like_repository_fs: uid and itemId are required")
	}

	var membership any = firestore.ArrayRemove(itemID)
	delta := -1
	if liked {
		membership = firestore.ArrayUnion(itemID)
		delta = 1
	}

	if _, err := r.users().Doc(uid).Set(ctx, map[string]any{
		"likedItemIds": membership,
	}, firestore.MergeAll); err != nil {
		return err
	}

	_, err := r.products().Doc(itemID).Set(ctx, map[string]any{
		"likeCount": firestore.Increment(delta),
	}, firestore.MergeAll)
	return err
}

// BaseCount returns the shared counter; a missing product doc counts as 0.
func (r *LikeRepositoryFS) BaseCount(ctx context.Context, itemID string) (int, error) {
	if r == nil || r.Client == nil {
		return 0, errors.New("like_repository_fs: firestore client is nil")
	}

	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return 0, errors.New("like_repository_fs: itemId is empty")
	}

	snap, err := r.products().Doc(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, err
	}

	raw := snap.Data()
	if raw == nil {
		return 0, nil
	}
	n := asInt(raw["likeCount"])
	if n < 0 {
		n = 0
	}
	return n, nil
}

// LikedSet returns the user's liked item ids; a missing doc is an empty set.
func (r *LikeRepositoryFS) LikedSet(ctx context.Context, uid string) ([]string, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("like_repository_fs: firestore client is nil")
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("like_repository_fs: uid is empty")
	}

	snap, err := r.users().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	raw := snap.Data()
	if raw == nil {
		return nil, nil
	}
	return asStringSlice(raw["likedItemIds"]), nil
}
