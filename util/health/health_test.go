package health

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/errors"
)

func TestCheckAllHealthy(t *testing.T) {
	checks := []Check{
		{Name: "store", Check: func(ctx context.Context, liveness bool) (int, string, error) {
			return http.StatusOK, "OK", nil
		}},
		{Name: "pool", Check: func(ctx context.Context, liveness bool) (int, string, error) {
			return http.StatusOK, "OK: 3 entries", nil
		}},
	}

	status, body, err := CheckAll(context.Background(), false, checks)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	var report healthReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Equal(t, http.StatusOK, report.Status)
	require.Len(t, report.Dependencies, 2)
	require.Equal(t, "store", report.Dependencies[0].Resource)
	require.Equal(t, "OK: 3 entries", report.Dependencies[1].Message)
	require.Empty(t, report.Dependencies[0].Error)
}

func TestCheckAllOneFailing(t *testing.T) {
	checks := []Check{
		{Name: "store", Check: func(ctx context.Context, liveness bool) (int, string, error) {
			return http.StatusOK, "OK", nil
		}},
		{Name: "kafka", Check: func(ctx context.Context, liveness bool) (int, string, error) {
			return http.StatusServiceUnavailable, "", errors.NewServiceError("broker unreachable")
		}},
	}

	status, body, err := CheckAll(context.Background(), false, checks)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, status)

	var report healthReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Equal(t, http.StatusServiceUnavailable, report.Status)
	require.Len(t, report.Dependencies, 2)
	require.Equal(t, http.StatusOK, report.Dependencies[0].Status)
	require.Contains(t, report.Dependencies[1].Error, "broker unreachable")
}

func TestCheckAllForwardsLivenessFlag(t *testing.T) {
	var sawLiveness bool

	checks := []Check{
		{Name: "probe", Check: func(ctx context.Context, liveness bool) (int, string, error) {
			sawLiveness = liveness
			return http.StatusOK, "", nil
		}},
	}

	status, _, err := CheckAll(context.Background(), true, checks)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.True(t, sawLiveness)
}
