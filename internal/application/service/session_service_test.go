package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

func TestSessionService_BeginLoadsOnce(t *testing.T) {
	deps := newTestDeps()
	var loads atomic.Int32
	deps.invoices.listFunc = func(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
		loads.Add(1)
		return []entity.Invoice{storedInvoice("INV-1", "2024-01-01", "Ravi", 1)}, nil
	}
	svc := NewSessionService(deps.gateways(), fixedClock, deps.logger)

	first, err := svc.Begin(context.Background(), testSession)
	require.NoError(t, err)
	second, err := svc.Begin(context.Background(), testSession)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, 1, svc.ActiveCount())

	found, err := svc.Lookup(testOwner)
	require.NoError(t, err)
	assert.Same(t, first, found)
}

func TestSessionService_BeginLoadFailure(t *testing.T) {
	deps := newTestDeps()
	deps.invoices.listFunc = func(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
		return nil, errors.New("timeout")
	}
	svc := NewSessionService(deps.gateways(), fixedClock, deps.logger)

	editor, err := svc.Begin(context.Background(), testSession)

	assert.True(t, IsGatewayError(err))
	require.NotNil(t, editor)
	assert.True(t, editor.Active(), "session stays signed in so the load can be retried")
}

func TestSessionService_End(t *testing.T) {
	deps := newTestDeps()
	deps.invoices.listFunc = func(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
		return []entity.Invoice{
			storedInvoice("INV-1", "2024-01-01", "Ravi", 1),
			storedInvoice("INV-2", "2024-01-02", "Jane", 2),
		}, nil
	}
	deps.profiles.getLogoFunc = func(ctx context.Context, ownerID string) (string, error) {
		return "logo", nil
	}
	svc := NewSessionService(deps.gateways(), fixedClock, deps.logger)
	editor, err := svc.Begin(context.Background(), testSession)
	require.NoError(t, err)
	_, err = editor.Open("INV-2")
	require.NoError(t, err)

	svc.End(testOwner)

	assert.False(t, editor.Active())
	_, err = svc.Lookup(testOwner)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, svc.ActiveCount())

	// ending an unknown owner is a no-op
	svc.End("someone-else")
}

func TestSessionService_OwnersAreIsolated(t *testing.T) {
	deps := newTestDeps()
	deps.invoices.listFunc = func(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
		if ownerID == testOwner {
			return []entity.Invoice{storedInvoice("INV-1", "2024-01-01", "Ravi", 1)}, nil
		}
		return nil, nil
	}
	svc := NewSessionService(deps.gateways(), fixedClock, deps.logger)

	mine, err := svc.Begin(context.Background(), testSession)
	require.NoError(t, err)
	theirs, err := svc.Begin(context.Background(), entity.Session{OwnerID: "9b2d6c1e-0000-4000-8000-000000000002"})
	require.NoError(t, err)

	mySaved, _ := mine.Saved()
	theirSaved, _ := theirs.Saved()
	assert.Len(t, mySaved, 1)
	assert.Empty(t, theirSaved)
}
