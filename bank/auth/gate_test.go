package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/registry"
)

func newGate(t *testing.T, maxAttempts int) *Gate {
	t.Helper()
	reg, err := registry.NewMemoryRegistry(registry.DefaultSeed())
	require.NoError(t, err)
	return NewGate(reg, maxAttempts)
}

func TestGateLocksOutOnThirdFailure(t *testing.T) {
	t.Parallel()

	gate := newGate(t, 3)
	ctx := context.Background()
	attempts := 0

	for i := 1; i <= 2; i++ {
		res, err := gate.Attempt(ctx, attempts, "12345678900", "01/01/1980")
		require.NoError(t, err)
		assert.Equal(t, StatusUnauthenticated, res.Status)
		assert.Equal(t, i, res.Attempts)
		assert.Equal(t, 3-i, res.Remaining)
		assert.ErrorIs(t, res.Err(), domain.ErrAuthenticationFailed)
		attempts = res.Attempts
	}

	res, err := gate.Attempt(ctx, attempts, "12345678900", "01/01/1980")
	require.NoError(t, err)
	assert.Equal(t, StatusLockedOut, res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.Err(), domain.ErrLockedOut)

	res, err = gate.Attempt(ctx, res.Attempts, "12345678900", "15/03/1985")
	require.NoError(t, err)
	assert.Equal(t, StatusLockedOut, res.Status, "locked out sessions cannot authenticate")
}

func TestGateSuccessResetsAttempts(t *testing.T) {
	t.Parallel()

	gate := newGate(t, 3)
	res, err := gate.Attempt(context.Background(), 2, "123.456.789-00", "15/03/1985")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, res.Status)
	assert.Equal(t, 0, res.Attempts)
	assert.NoError(t, res.Err())
	require.NotNil(t, res.Client)
	assert.Equal(t, "João Silva", res.Client.Name)
}

func TestGateMalformedInputDoesNotConsumeAttempt(t *testing.T) {
	t.Parallel()

	gate := newGate(t, 3)
	res, err := gate.Attempt(context.Background(), 1, "123", "15/03/1985")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, StatusUnauthenticated, res.Status)

	res, err = gate.Attempt(context.Background(), 1, "12345678900", "15-03-1985")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, res.Attempts)
}

type failingAuthenticator struct{}

func (failingAuthenticator) Authenticate(context.Context, string, string) (*domain.ClientRecord, error) {
	return nil, domain.ErrDataAccess
}

func TestGateSurfacesDataAccessErrors(t *testing.T) {
	t.Parallel()

	gate := NewGate(failingAuthenticator{}, 0)
	assert.Equal(t, DefaultMaxAttempts, gate.MaxAttempts())

	res, err := gate.Attempt(context.Background(), 0, "12345678900", "15/03/1985")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataAccess))
	assert.Equal(t, 0, res.Attempts)
}
