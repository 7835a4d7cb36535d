package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/api/robots"
	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
)

func newFleetServer(t *testing.T) (*fleet.MemoryStore, string) {
	t.Helper()
	store := fleet.NewMemoryStore()
	require.NoError(t, store.Replace(context.Background(), fleet.SampleFleet()))
	srv := httptest.NewServer(robots.NewServer(robots.NewHandler(store), robots.ServerOptions{}))
	t.Cleanup(srv.Close)
	return store, srv.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", ""))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		serverURL, output = "", "table"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFleetLs(t *testing.T) {
	_, url := newFleetServer(t)
	out, err := execute(t, "fleet", "ls", "--server", url, "--status", "On Delivery")
	require.NoError(t, err)
	assert.Contains(t, out, "R2D1")
	assert.Contains(t, out, "R1D3")
	assert.NotContains(t, out, "R2D2")
}

func TestFleetMutations(t *testing.T) {
	store, url := newFleetServer(t)

	out, err := execute(t, "fleet", "battery", "R2D2", "--delta", "-20", "--server", url, "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "R2D2,Robo-2,V2,Idle,67")

	_, err = execute(t, "fleet", "status", "R2D1", "charging", "--server", url)
	require.NoError(t, err)
	r, _ := store.Get("R2D1")
	assert.Equal(t, model.StatusCharging, r.Status)

	_, err = execute(t, "fleet", "return", "R2D1", "--server", url)
	assert.ErrorContains(t, err, "cannot return to base")

	out, err = execute(t, "fleet", "return", "R2D2", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "R2D2 returning to base")

	out, err = execute(t, "fleet", "rm", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "removed R1D3")
	assert.Len(t, store.Snapshot(), 2)
}
