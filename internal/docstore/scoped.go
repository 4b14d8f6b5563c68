package docstore

import "context"

// Scoped namespaces every collection of an underlying client under a tenant,
// so tenants sharing one database never see each other's records.
type Scoped struct {
	inner  Client
	prefix string
}

func NewScoped(inner Client, tenantID string) *Scoped {
	return &Scoped{inner: inner, prefix: tenantID + "__"}
}

func (s *Scoped) name(collection string) string {
	return s.prefix + collection
}

func (s *Scoped) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	return s.inner.LoadAll(ctx, s.name(collection))
}

func (s *Scoped) Add(ctx context.Context, collection string, fields Record) (string, error) {
	return s.inner.Add(ctx, s.name(collection), fields)
}

func (s *Scoped) Update(ctx context.Context, collection, id string, patch Record) error {
	return s.inner.Update(ctx, s.name(collection), id, patch)
}

func (s *Scoped) Delete(ctx context.Context, collection, id string) error {
	return s.inner.Delete(ctx, s.name(collection), id)
}

func (s *Scoped) Subscribe(ctx context.Context, collection string, onChange func([]Record)) (func(), error) {
	return s.inner.Subscribe(ctx, s.name(collection), onChange)
}

// Close is a no-op; the shared client is closed by its owner.
func (s *Scoped) Close() error { return nil }
