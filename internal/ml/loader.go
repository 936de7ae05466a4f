package ml

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
)

// Loader resolves a model reference to a ready model.
type Loader interface {
	Load(ctx context.Context, ref string) (Model, error)
}

// FileLoader reads JSON artifacts from disk on every call.
type FileLoader struct{}

// Load reads and validates the artifact at path ref.
func (FileLoader) Load(ctx context.Context, ref string) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	model, err := NewLinearModel(artifact)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", ref, err)
	}

	log := logging.Component("ml")
	log.Debug().
		Str("path", ref).
		Str("device", artifact.Device).
		Str("version", artifact.Version).
		Int("classes", len(artifact.Classes)).
		Msg("loaded model")

	return model, nil
}

// CachedLoader loads each reference at most once and shares the model afterwards.
// Concurrent first loads of the same reference wait on a single read. Failed
// loads are not cached. The shared read is detached from the caller that started
// it; each caller stops waiting when its own context ends.
type CachedLoader struct {
	next   Loader
	group  singleflight.Group
	models sync.Map // ref -> Model
}

// NewCachedLoader wraps next with a load-once cache.
func NewCachedLoader(next Loader) *CachedLoader {
	return &CachedLoader{next: next}
}

// Load returns the cached model for ref, loading it on first use.
func (c *CachedLoader) Load(ctx context.Context, ref string) (Model, error) {
	if m, ok := c.models.Load(ref); ok {
		return m.(Model), nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ref, func() (interface{}, error) {
		if m, ok := c.models.Load(ref); ok {
			return m, nil
		}
		m, err := c.next.Load(loadCtx, ref)
		if err != nil {
			return nil, err
		}
		c.models.Store(ref, m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Model), nil
	}
}

// Cached reports whether ref has been loaded.
func (c *CachedLoader) Cached(ref string) bool {
	_, ok := c.models.Load(ref)
	return ok
}
