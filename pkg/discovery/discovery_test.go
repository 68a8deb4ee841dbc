package discovery

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/resolver"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newDiscoverer(t *testing.T, opts ...Option) *Discoverer {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	d, err := New(opts...)
	require.NoError(t, err)
	return d
}

func ids(decls []component.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.ID
	}
	return out
}

func seedTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "billing/seeders/InvoiceSeeder.toml", `
namespace = "billing.seeders"
priority = 20
after = ["users.seeders.UserSeeder"]
`)
	writeFile(t, root, "users/seeders/UserSeeder.yaml", `
namespace: users.seeders
priority: 10
`)
	writeFile(t, root, "seeders/CoreSeeder.hcl", `
namespace = "core"
priority  = 5
`)
	return root
}

func TestDiscover_Layouts(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t)

	decls, err := d.Declarations(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"billing.seeders.InvoiceSeeder",
		"users.seeders.UserSeeder",
		"core.CoreSeeder",
	}, ids(decls))

	order, err := d.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"core.CoreSeeder",
		"users.seeders.UserSeeder",
		"billing.seeders.InvoiceSeeder",
	}, order)
}

func TestDiscover_IgnoresNonMatchingFiles(t *testing.T) {
	root := seedTree(t)
	writeFile(t, root, "billing/seeders/helpers.toml", `namespace = "billing"`)
	writeFile(t, root, "billing/other/StraySeeder.toml", `namespace = "billing"`)
	writeFile(t, root, "billing/seeders/NotesSeeder.txt", `namespace = "billing"`)
	writeFile(t, root, "deep/nested/seeders/DeepSeeder.toml", `namespace = "deep"`)

	decls, err := newDiscoverer(t).Declarations(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, decls, 3)
}

func TestDiscover_MissingRootsAreSkipped(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t)

	order, err := d.Discover(context.Background(), filepath.Join(root, "does-not-exist"), root)
	require.NoError(t, err)
	assert.Len(t, order, 3)

	order, err = d.Discover(context.Background(), filepath.Join(root, "nope"))
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestDiscover_InvalidRoot(t *testing.T) {
	_, err := newDiscoverer(t).Discover(context.Background(), "")
	assert.Error(t, err)
}

func TestDiscover_MalformedFilesAreSkipped(t *testing.T) {
	root := seedTree(t)
	writeFile(t, root, "broken/seeders/BrokenSeeder.toml", "namespace = \"broken\"\npriority = = 3\n")
	writeFile(t, root, "anon/seeders/AnonSeeder.yaml", "priority: 1\n")
	writeFile(t, root, "typed/seeders/TypedSeeder.yaml", "namespace: typed\npriority: high\n")
	writeFile(t, root, "hcl/seeders/BadSeeder.hcl", "namespace = \"hcl\"\nordering {\n")

	d := newDiscoverer(t)
	order, err := d.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, order, 3)

	stats := d.Stats()
	assert.Equal(t, 4, stats.Skipped)
	assert.Equal(t, 7, stats.Scanned)
}

func TestDiscover_StructuredOrderingWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/services/MailService.toml", `
namespace = "app"
priority = 90
after = ["app.QueueService"]

[ordering]
priority = 1
before = ["app.HttpService"]
`)
	writeFile(t, root, "app/services/QueueService.yaml", `
namespace: app
priority: 90
after: [app.Nothing]
ordering:
  after: [app.Other]
`)
	writeFile(t, root, "app/services/HttpService.hcl", `
namespace = "app"
version   = "1.4.0"
priority  = 70

ordering {
  priority = 3
  after    = ["app.QueueService"]
}

requires "app.QueueService" {
  constraint = ">=1.0.0"
  optional   = true
}
`)

	d := newDiscoverer(t, WithConvention(ServicesConvention))
	decls, err := d.Declarations(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, decls, 3)

	byID := make(map[string]component.Declaration)
	for _, decl := range decls {
		byID[decl.ID] = decl
	}

	mail := byID["app.MailService"]
	assert.Equal(t, 1, mail.Priority)
	assert.Empty(t, mail.After)
	assert.Equal(t, []string{"app.HttpService"}, mail.Before)

	queue := byID["app.QueueService"]
	assert.Equal(t, component.DefaultPriority, queue.Priority)
	assert.Equal(t, []string{"app.Other"}, queue.After)

	http := byID["app.HttpService"]
	assert.Equal(t, 3, http.Priority)
	assert.Equal(t, "1.4.0", http.Version)
	assert.Equal(t, []component.Requirement{{ID: "app.QueueService", Constraint: ">=1.0.0", Optional: true}}, http.Requires)
	assert.Equal(t, filepath.Join(root, "app/services/HttpService.hcl"), http.Source)
}

func TestDiscover_Exclude(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t, WithExclude("users.seeders.UserSeeder"))

	order, err := d.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"core.CoreSeeder", "billing.seeders.InvoiceSeeder"}, order)
	assert.Equal(t, 1, d.Stats().Excluded)
}

func TestDiscover_DuplicateIdentityKeepsFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/seeders/SameSeeder.toml", "namespace = \"x\"\npriority = 1\n")
	writeFile(t, root, "b/seeders/SameSeeder.toml", "namespace = \"x\"\npriority = 2\n")

	d := newDiscoverer(t)
	decls, err := d.Declarations(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, 1, decls[0].Priority)
	assert.Equal(t, 1, d.Stats().Duplicates)
}

func TestDiscover_CyclePropagates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "m/seeders/ASeeder.toml", "namespace = \"m\"\nafter = [\"m.BSeeder\"]\n")
	writeFile(t, root, "m/seeders/BSeeder.toml", "namespace = \"m\"\nafter = [\"m.ASeeder\"]\n")

	_, err := newDiscoverer(t).Discover(context.Background(), root)
	var ce *resolver.CycleError
	require.True(t, errors.As(err, &ce), "want *CycleError, got %v", err)
	assert.Equal(t, []string{"m.ASeeder", "m.BSeeder", "m.ASeeder"}, ce.Path)
}

func TestDiscover_MemoizedUntilReset(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t)
	ctx := context.Background()

	first, err := d.Declarations(ctx, root)
	require.NoError(t, err)
	require.Len(t, first, 3)

	writeFile(t, root, "late/seeders/LateSeeder.toml", `namespace = "late"`)

	cached, err := d.Declarations(ctx, root)
	require.NoError(t, err)
	assert.Len(t, cached, 3)

	d.Reset()
	fresh, err := d.Declarations(ctx, root)
	require.NoError(t, err)
	assert.Len(t, fresh, 4)
}

func TestDiscover_DeclarationsAreCopies(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t)

	decls, err := d.Declarations(context.Background(), root)
	require.NoError(t, err)
	decls[0].After[0] = "mutated"
	decls[0].Priority = -1

	again, err := d.Declarations(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "users.seeders.UserSeeder", again[0].After[0])
	assert.Equal(t, 20, again[0].Priority)
}

func TestDiscover_RegistryAndFiles(t *testing.T) {
	root := seedTree(t)
	d := newDiscoverer(t)

	reg, err := d.Registry(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
	assert.True(t, reg.Has("core.CoreSeeder"))

	files, err := d.Files(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "billing/seeders/InvoiceSeeder.toml"),
		filepath.Join(root, "users/seeders/UserSeeder.yaml"),
		filepath.Join(root, "seeders/CoreSeeder.hcl"),
	}, files)
}

func TestDiscover_MatchDoesNotDecode(t *testing.T) {
	root := seedTree(t)
	writeFile(t, root, "broken/seeders/BrokenSeeder.toml", "namespace = [")
	d := newDiscoverer(t)

	files, err := d.Match(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Equal(t, Stats{}, d.Stats())

	all, err := d.Files(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, all, files)
	assert.Equal(t, 1, d.Stats().Skipped)

	_, err = d.Match(context.Background(), "")
	assert.Error(t, err)
}

func TestDiscover_CanceledContext(t *testing.T) {
	root := seedTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDiscoverer(t).Discover(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConvention(t *testing.T) {
	_, err := New(WithConvention(Convention{Subdir: "../etc", Suffix: "Seeder"}))
	assert.Error(t, err)
}
