package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gaze-network/btcname-indexer/internal/metrics"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/entity"
	"github.com/gaze-network/btcname-indexer/modules/btcname/internal/names"
	"github.com/samber/lo"
)

// Resolution is a name bound in one mode.
type Resolution struct {
	Mode       string
	Name       names.Name
	Collection *entity.Collection
}

// ResolveName returns the bindings of the name in every enabled mode that accepts it.
// Returns errs.InvalidArgument if no mode accepts the name and errs.NotFound if no mode has it bound.
func (u *Usecase) ResolveName(ctx context.Context, name string) ([]*Resolution, error) {
	parsed := lo.Filter(u.ParseName([]byte(name)), func(item ParsedName, _ int) bool { return item.Err == nil })
	if len(parsed) == 0 {
		return nil, errors.Wrapf(errs.InvalidArgument, "%q is not a valid name", name)
	}

	keys := lo.Map(parsed, func(item ParsedName, _ int) string { return item.Key })
	collections, err := u.GetCollectionsByKeys(ctx, keys)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	results := make([]*Resolution, 0, len(parsed))
	for _, item := range parsed {
		collection, ok := collections[item.Key]
		if !ok {
			continue
		}
		results = append(results, &Resolution{
			Mode:       item.Mode,
			Name:       item.Name,
			Collection: collection,
		})
	}
	if len(results) == 0 {
		return nil, errors.Wrapf(errs.NotFound, "name %q is not registered", name)
	}
	return results, nil
}

// GetCollectionsByKeys returns the bound keys among the given keys.
// Bound keys are served from the name cache until FlushNameCache is called or they expire.
func (u *Usecase) GetCollectionsByKeys(ctx context.Context, keys []string) (map[string]*entity.Collection, error) {
	result := make(map[string]*entity.Collection, len(keys))
	missing := make([]string, 0, len(keys))
	for _, key := range lo.Uniq(keys) {
		if v, ok := u.nameCache.Get(key); ok {
			result[key] = v.(*entity.Collection)
			metrics.NameCacheLookups.WithLabelValues("hit").Inc()
			continue
		}
		metrics.NameCacheLookups.WithLabelValues("miss").Inc()
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return result, nil
	}

	collections, err := u.btcnameDg.GetCollectionsByKeys(ctx, missing)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get collections by keys")
	}
	for key, collection := range collections {
		u.nameCache.SetDefault(key, collection)
		result[key] = collection
	}
	return result, nil
}

// FlushNameCache drops every cached binding. Call it when indexed data is reverted.
func (u *Usecase) FlushNameCache() {
	u.nameCache.Flush()
}
