package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilpos/vigilpos/internal/audit"
	"github.com/vigilpos/vigilpos/internal/fraud"
)

type mockRecorder struct {
	entries []audit.Entry
	err     error
}

func (m *mockRecorder) Record(ctx context.Context, entry audit.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockEmitter struct {
	signals []fraud.Signal
	err     error
}

func (m *mockEmitter) Submit(ctx context.Context, signal fraud.Signal) error {
	if m.err != nil {
		return m.err
	}
	m.signals = append(m.signals, signal)
	return nil
}

func newTestResolver() (*Resolver, *mockRecorder, *mockEmitter) {
	rec := &mockRecorder{}
	em := &mockEmitter{}
	return NewResolver(NewRoleCache(), rec, em, nil), rec, em
}

func TestEveryRoleHasPermissions(t *testing.T) {
	for _, role := range Roles() {
		assert.NotEmpty(t, PermissionsFor(role), "role %s must map to a non-empty set", role)
	}
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	perms := PermissionsFor(RoleCashier)
	require.NotEmpty(t, perms)
	perms[0] = Permission("mutated")
	assert.NotContains(t, PermissionsFor(RoleCashier), Permission("mutated"))
}

func TestHasPermissionUnauthenticated(t *testing.T) {
	r, rec, _ := newTestResolver()
	assert.False(t, r.HasPermission("u1", PermCreateBill))
	assert.Empty(t, rec.entries, "pure lookup must not log")
}

func TestHasPermissionByRole(t *testing.T) {
	r, _, _ := newTestResolver()
	r.SetUserRole("u1", RoleCashier)

	assert.True(t, r.HasPermission("u1", PermCreateBill))
	assert.False(t, r.HasPermission("u1", PermAdjustStock))

	r.ClearUserCache("u1")
	assert.False(t, r.HasPermission("u1", PermCreateBill))
}

func TestCheckPermissionDenialAuditsAndSignals(t *testing.T) {
	r, rec, em := newTestResolver()
	r.SetUserRole("u1", RoleCashier)

	ok := r.CheckPermission(context.Background(), "u1", "biz1", PermDeleteBill, "billing screen")
	assert.False(t, ok)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, audit.ActionDenied, entry.Action)
	assert.Equal(t, audit.EntityPermission, entry.Entity)
	payload, okPayload := entry.NewValue.(audit.PermissionDenied)
	require.True(t, okPayload)
	assert.Equal(t, string(PermDeleteBill), payload.Permission)
	assert.Equal(t, string(RoleCashier), payload.Role)

	require.Len(t, em.signals, 1)
	assert.Equal(t, fraud.SignalRoleAbuse, em.signals[0].Type)
	assert.Equal(t, "biz1", em.signals[0].BusinessID)
}

func TestCheckPermissionAllowedHasNoSideEffects(t *testing.T) {
	r, rec, em := newTestResolver()
	r.SetUserRole("u1", RoleOwner)

	assert.True(t, r.CheckPermission(context.Background(), "u1", "biz1", PermDeleteBill, ""))
	assert.Empty(t, rec.entries)
	assert.Empty(t, em.signals)
}

func TestCheckPermissionSideCallFailuresIgnored(t *testing.T) {
	rec := &mockRecorder{err: errors.New("sink down")}
	em := &mockEmitter{err: errors.New("queue down")}
	r := NewResolver(NewRoleCache(), rec, em, nil)
	r.SetUserRole("u1", RoleStockist)

	assert.False(t, r.CheckPermission(context.Background(), "u1", "biz1", PermCreateBill, ""))
}

func TestAggregateCombinators(t *testing.T) {
	r, _, _ := newTestResolver()
	r.SetUserRole("u1", RoleAccountant)

	assert.True(t, r.HasAnyPermission("u1", PermCreateBill, PermViewReports))
	assert.False(t, r.HasAnyPermission("u1", PermCreateBill, PermAdjustStock))
	assert.True(t, r.HasAllPermissions("u1", PermViewReports, PermLockPeriods))
	assert.False(t, r.HasAllPermissions("u1", PermViewReports, PermCreateBill))
}
