package resolver_test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Sumatoshi-tech/modcache/pkg/identity"
	"github.com/Sumatoshi-tech/modcache/pkg/loader"
	"github.com/Sumatoshi-tech/modcache/pkg/metadata"
	"github.com/Sumatoshi-tech/modcache/pkg/resolver"
)

var (
	errNoHeader    = errors.New("no header")
	errCorrupt     = errors.New("corrupt module")
	errFactoryDown = errors.New("factory down")
)

// fakeReader serves identity headers from a map and counts reads.
type fakeReader struct {
	headers map[string]identity.Identity
	reads   atomic.Int64
}

func (r *fakeReader) ReadIdentity(location string) (identity.Identity, error) {
	r.reads.Add(1)

	id, ok := r.headers[location]
	if !ok {
		return identity.Identity{}, errNoHeader
	}

	return id, nil
}

// fakeLoader returns "handle:<location>" and counts loads. Locations in fail
// are reported corrupt; onLoad runs before returning.
type fakeLoader struct {
	fail   map[string]bool
	onLoad func(location string)
	loads  atomic.Int64
}

func (l *fakeLoader) Load(location string) (any, error) {
	l.loads.Add(1)

	if l.onLoad != nil {
		l.onLoad(location)
	}

	if l.fail[location] {
		return nil, errCorrupt
	}

	return "handle:" + location, nil
}

// countingFactory wraps the catalog factory and counts Produce calls.
type countingFactory struct {
	calls  atomic.Int64
	err    error
	before func()
}

func (f *countingFactory) Produce(ctx context.Context, locator metadata.Locator) (*metadata.Catalog, error) {
	f.calls.Add(1)

	if f.before != nil {
		f.before()
	}

	if f.err != nil {
		return nil, f.err
	}

	return metadata.CatalogFactory{}.Produce(ctx, locator)
}

type harness struct {
	cache   *resolver.Cache
	reader  *fakeReader
	loader  *fakeLoader
	factory *countingFactory
}

func newHarness(headers map[string]identity.Identity, mutate func(*resolver.Options)) *harness {
	h := &harness{
		reader:  &fakeReader{headers: headers},
		loader:  &fakeLoader{},
		factory: &countingFactory{},
	}

	opts := resolver.Options{
		Reader:   h.reader,
		Loader:   h.loader,
		Factory:  h.factory,
		Builtins: map[string]*loader.Module{},
	}

	if mutate != nil {
		mutate(&opts)
	}

	h.cache = resolver.New(opts)

	return h
}
