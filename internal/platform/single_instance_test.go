package platform

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueAppName(t *testing.T) string {
	return fmt.Sprintf("mindhaven-test-%s-%d", t.Name(), time.Now().UnixNano())
}

func TestPortFromNameIsStableAndInRange(t *testing.T) {
	port := portFromName("MindHaven")
	assert.Equal(t, port, portFromName("MindHaven"))
	assert.GreaterOrEqual(t, port, 20000)
	assert.LessOrEqual(t, port, 39999)
}

func TestSecondAcquireFails(t *testing.T) {
	name := uniqueAppName(t)
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()

	_, err = AcquireSingleInstance(name)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, guard.Release())
	assert.NoError(t, guard.Release())

	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestSignalRunningShowsInstance(t *testing.T) {
	name := uniqueAppName(t)
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)

	shown := make(chan struct{}, 1)
	guard.Listen(func() { shown <- struct{}{} })

	require.NoError(t, SignalRunning(name))
	select {
	case <-shown:
	case <-time.After(2 * time.Second):
		t.Fatal("show signal not delivered")
	}

	require.NoError(t, guard.Release())
	select {
	case <-guard.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not exit")
	}
}

func TestSignalWithoutInstanceFails(t *testing.T) {
	assert.Error(t, SignalRunning(uniqueAppName(t)))
}

func TestNilGuardIsSafe(t *testing.T) {
	var guard *InstanceGuard
	assert.NoError(t, guard.Release())
	assert.Empty(t, guard.Address())
	guard.Listen(nil)
}
