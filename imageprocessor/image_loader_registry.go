package imageprocessor

import (
	"image"
	"path/filepath"
	"strings"
	"sync"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with loaders for every
// recognized extension.
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerSpecializedLoaders()

	return registry
}

// registerStandardLoaders registers loaders for standard image formats
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()

	r.RegisterLoader(".jpg", standardLoader)
	r.RegisterLoader(".jpeg", standardLoader)
	r.RegisterLoader(".png", standardLoader)
	r.RegisterLoader(".bmp", standardLoader)
	r.RegisterLoader(".gif", standardLoader)
	r.RegisterLoader(".webp", standardLoader)
}

// registerSpecializedLoaders registers loaders for specialized formats
func (r *ImageLoaderRegistry) registerSpecializedLoaders() {
	tiffLoader := NewTiffImageLoader()
	r.RegisterLoader(".tif", tiffLoader)
	r.RegisterLoader(".tiff", tiffLoader)

	r.RegisterLoader(".psd", NewLayeredImageLoader())
	r.RegisterLoader(".heic", NewHEICPreviewLoader())
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader for the path's extension, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// LoadImage loads an image using the appropriate registered loader.
// Extensions without a loader that accepts them yield
// *UnsupportedFormatError.
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil || !loader.CanLoad(path) {
		return nil, &UnsupportedFormatError{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
	}
	return loader.LoadImage(path)
}
