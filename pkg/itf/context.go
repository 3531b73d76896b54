package itf

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-hq/atrium/modules/core/domain/entities/segment"
	"github.com/atrium-hq/atrium/modules/core/domain/entities/tenant"
	coreservices "github.com/atrium-hq/atrium/modules/core/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/composables"
)

// TestContext is a builder for integration test environments: a dedicated
// database per test, migrated schemas, a seeded tenant and segment, and a
// context carrying a transaction rolled back on cleanup.
type TestContext struct {
	modules []application.Module
	dbName  string
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// WithModules adds extra modules on top of the built-in set.
func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

// WithDBName overrides the database name derived from the test name.
func (tc *TestContext) WithDBName(name string) *TestContext {
	tc.dbName = name
	return tc
}

func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	if tc.dbName == "" {
		tc.dbName = tb.Name()
	}
	CreateDB(tc.dbName)
	pool := NewPool(DbOpts(tc.dbName))

	app, err := SetupApplication(pool, tc.modules...)
	if err != nil {
		tb.Fatal(err)
	}

	ctx := composables.WithPool(context.Background(), pool)

	tenants := app.Service(coreservices.TenantService{}).(*coreservices.TenantService)
	testTenant, err := tenants.CreateTenant(ctx, "test "+uuid.NewString()[:8])
	if err != nil {
		tb.Fatal(err)
	}
	testSegment, err := tenants.CreateSegment(ctx, testTenant.ID, "default")
	if err != nil {
		tb.Fatal(err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		tb.Fatal(err)
	}
	ctx = composables.WithTx(ctx, tx)
	ctx = composables.WithTenantID(ctx, testTenant.ID)
	ctx = composables.WithSegmentID(ctx, testSegment.ID)

	tb.Cleanup(func() {
		if err := tx.Rollback(context.Background()); err != nil && err != pgx.ErrTxClosed {
			tb.Logf("failed to rollback test transaction: %v", err)
		}
		pool.Close()
	})

	return &TestEnvironment{
		Ctx:     ctx,
		Pool:    pool,
		Tx:      tx,
		App:     app,
		Tenant:  testTenant,
		Segment: testSegment,
	}
}

type TestEnvironment struct {
	Ctx     context.Context
	Pool    *pgxpool.Pool
	Tx      pgx.Tx
	App     application.Application
	Tenant  tenant.Tenant
	Segment segment.Segment
}

func (te *TestEnvironment) Service(service interface{}) interface{} {
	return te.App.Service(service)
}

// GetService retrieves and casts a service from the registry.
func GetService[T any](te *TestEnvironment) *T {
	return te.App.Service(*new(T)).(*T)
}

func (te *TestEnvironment) TenantID() uuid.UUID {
	return te.Tenant.ID
}
