package scanner

import (
	"database/sql"

	"visdedupe/database"
	"visdedupe/imageprocessor"
	"visdedupe/logging"
	"visdedupe/types"
)

// CheckCache returns a catalog item built from the cache when the file has
// not changed since it was fingerprinted at the same max side. Cache errors
// are logged and treated as a miss.
func CheckCache(db *sql.DB, file types.SourceFile, maxSide int) (*types.CatalogItem, bool) {
	if db == nil {
		return nil, false
	}

	entry, ok, err := database.LookupFingerprint(db, file, maxSide)
	if err != nil {
		logging.LogWarning("Cache lookup failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	logging.DebugLog("Skipping unchanged image: %s", file.Path)
	item := &types.CatalogItem{
		SourceFile:  file,
		Fingerprint: entry.Fingerprint,
		Preview:     entry.Preview,
		Cached:      true,
	}
	if t, ok := imageprocessor.ReadCaptureTime(file.Path); ok {
		item.CaptureTime = t
	}
	return item, true
}

// StoreCache records a freshly computed item. Failures are logged only.
func StoreCache(db *sql.DB, item *types.CatalogItem, maxSide int) {
	if db == nil || item == nil || item.Cached {
		return
	}

	err := database.StoreFingerprint(db, database.CachedFingerprint{
		Path:        item.Path,
		Size:        item.Size,
		ModifiedAt:  item.ModTime,
		MaxSide:     maxSide,
		Fingerprint: item.Fingerprint,
		Preview:     item.Preview,
	})
	if err != nil {
		logging.LogWarning("Cache store failed: %v", err)
	}
}
