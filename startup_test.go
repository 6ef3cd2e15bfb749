package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartupRegistry_DrainsInLevelOrder(t *testing.T) {
	r := &startupHookRegistry{}
	var order []string

	require.NoError(t, r.add(&StartupHook{level: StartupLevelApplication, fn: func() {
		order = append(order, "application")
	}}))
	require.NoError(t, r.add(&StartupHook{level: StartupLevelTestInfra, fn: func() {
		order = append(order, "test_infra")
	}}))
	require.NoError(t, r.add(&StartupHook{level: StartupLevelMiddleware, fn: func() {
		order = append(order, "middleware")
	}}))
	require.NoError(t, r.add(&StartupHook{level: StartupLevelSystem, fn: func() {
		order = append(order, "system")
	}}))

	r.notifyStartupClients()

	assert.Equal(t, []string{"test_infra", "system", "middleware", "application"}, order)
}

func TestStartupRegistry_NotifyIsIdempotent(t *testing.T) {
	r := &startupHookRegistry{}
	var calls int
	require.NoError(t, r.add(&StartupHook{level: StartupLevelSystem, fn: func() { calls++ }}))

	r.notifyStartupClients()
	r.notifyStartupClients()

	assert.Equal(t, 1, calls)
}

func TestStartupRegistry_AddWhileDrainingReturnsError(t *testing.T) {
	r := &startupHookRegistry{}
	var lateErr error

	require.NoError(t, r.add(&StartupHook{level: StartupLevelSystem, fn: func() {
		lateErr = r.add(&StartupHook{level: StartupLevelApplication, fn: func() {}})
	}}))

	r.notifyStartupClients()
	assert.ErrorIs(t, lateErr, ErrStartupAlreadyDraining)
}

func TestStartupRegistry_RemoveUnregistersHook(t *testing.T) {
	r := &startupHookRegistry{}
	var called bool
	h := &StartupHook{level: StartupLevelMiddleware, fn: func() { called = true }}
	require.NoError(t, r.add(h))

	r.remove(h)
	r.notifyStartupClients()

	assert.False(t, called)
}

func TestStartupRegistry_RegisterStartupHookFatalWhenDraining(t *testing.T) {
	priorRegistry := startupRegistry
	startupRegistry = &startupHookRegistry{}
	defer func() { startupRegistry = priorRegistry }()

	require.NoError(t, startupRegistry.add(&StartupHook{level: StartupLevelSystem, fn: func() {
		var caught *FatalError
		SetFatalHandler(func(e *FatalError) { caught = e })
		defer SetFatalHandler(nil)

		h := RegisterStartupHook(StartupLevelApplication, func() {})
		assert.Nil(t, h, "RegisterStartupHook routes an add() failure through Fatal rather than returning a hook")
		require.NotNil(t, caught)
		assert.ErrorIs(t, caught.Err, ErrStartupAlreadyDraining)
	}}))

	startupRegistry.notifyStartupClients()
}

func TestStartupLevel_String(t *testing.T) {
	assert.Equal(t, "TEST_INFRA", StartupLevelTestInfra.String())
	assert.Equal(t, "SYSTEM", StartupLevelSystem.String())
	assert.Equal(t, "MIDDLEWARE", StartupLevelMiddleware.String())
	assert.Equal(t, "APPLICATION", StartupLevelApplication.String())
	assert.Equal(t, "UNKNOWN", StartupLevel(99).String())
}
