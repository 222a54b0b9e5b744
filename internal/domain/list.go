package domain

import "time"

// ProductSnapshot is the denormalized product data cached alongside a list
// entry at the time it was added. The external catalog owns the product
// itself; only the snapshot lives here.
type ProductSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"` // cents
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Entry is one saved product reference in a wishlist or cart. Quantity is
// zero for wishlist entries and at least 1 for cart lines.
type Entry struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity,omitempty"`
	Snapshot  *ProductSnapshot `json:"snapshot,omitempty"`
}

// Collection identifies which list an engine instance manages.
type Collection string

const (
	CollectionWishlist Collection = "wishlist"
	CollectionCart     Collection = "cart"
)

// SiteAsset is a stored logo or banner image. Retention keeps only the N
// most-recently-created assets per folder.
type SiteAsset struct {
	ID         string    `json:"id"`
	Folder     string    `json:"folder"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Asset folder retention limits.
const (
	LogoFolder      = "logos"
	BannerFolder    = "banners"
	LogoKeepCount   = 5
	BannerKeepCount = 10
	ProductImageDir = "products"
)

// KeepCountForFolder returns the retention keep-count for a known asset
// folder, or 0 when the folder has no retention policy.
func KeepCountForFolder(folder string) int {
	switch folder {
	case LogoFolder:
		return LogoKeepCount
	case BannerFolder:
		return BannerKeepCount
	default:
		return 0
	}
}

// ProductIDs returns the ordered product ids of the given entries.
func ProductIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	return ids
}

// FindEntry returns the index of the entry with the given product id,
// or -1 if absent.
func FindEntry(entries []Entry, productID string) int {
	for i := range entries {
		if entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// MergeEntries reconciles a remote list with a local list at login.
// The result is the set union keyed by product id: all remote entries first
// in their stable remote order, then local-only entries appended in local
// order. When an id appears in both lists the remote entry wins.
func MergeEntries(remote, local []Entry) []Entry {
	merged := make([]Entry, 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote))

	for _, e := range remote {
		if _, dup := seen[e.ProductID]; dup {
			continue
		}
		seen[e.ProductID] = struct{}{}
		merged = append(merged, e)
	}

	for _, e := range local {
		if _, dup := seen[e.ProductID]; dup {
			continue
		}
		seen[e.ProductID] = struct{}{}
		merged = append(merged, e)
	}

	return merged
}

// TotalCount returns the listener-visible count for a list: the sum of
// quantities for cart lines, or the number of entries for wishlists.
func TotalCount(entries []Entry) int {
	count := 0
	for _, e := range entries {
		if e.Quantity > 1 {
			count += e.Quantity
		} else {
			count++
		}
	}
	return count
}
