package main

import (
	"errors"
	"testing"

	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/wire"
)

// deviceSim answers parameter writes with a real parameter store, mapping
// rejections to wire statuses the way the device gateway does.
func deviceSim(store *params.Store) func(params.Field, float64) (*wire.Response, error) {
	return func(f params.Field, v float64) (*wire.Response, error) {
		if err := store.Write(f, v); err != nil {
			status := wire.StatusValueOutOfRange
			if errors.Is(err, params.ErrConstraint) {
				status = wire.StatusConstraintViolation
			}
			return &wire.Response{Status: status}, nil
		}
		return &wire.Response{Status: wire.StatusSuccess}, nil
	}
}

func TestProgramParametersLowersBothRateLimits(t *testing.T) {
	store := params.NewStore() // power-on limits: 60 / 120

	rejected, err := programParameters(deviceSim(store), map[string]float64{
		"lower_rate_limit": 40,
		"upper_rate_limit": 50,
	})
	if err != nil {
		t.Fatalf("programParameters failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("rejected = %v, want none", rejected)
	}

	lrl, _ := store.Read(params.FieldLowerRateLimit)
	url, _ := store.Read(params.FieldUpperRateLimit)
	if lrl != 40 || url != 50 {
		t.Errorf("device limits = %v/%v, want 40/50", lrl, url)
	}
}

func TestProgramParametersRaisesBothRateLimits(t *testing.T) {
	store := params.NewStore()

	rejected, err := programParameters(deviceSim(store), map[string]float64{
		"lower_rate_limit": 150,
		"upper_rate_limit": 175,
	})
	if err != nil {
		t.Fatalf("programParameters failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("rejected = %v, want none", rejected)
	}

	lrl, _ := store.Read(params.FieldLowerRateLimit)
	url, _ := store.Read(params.FieldUpperRateLimit)
	if lrl != 150 || url != 175 {
		t.Errorf("device limits = %v/%v, want 150/175", lrl, url)
	}
}

func TestProgramParametersReportsStubbornRejects(t *testing.T) {
	store := params.NewStore()

	// 42 is off-step in every rate band; the retry cannot save it.
	rejected, err := programParameters(deviceSim(store), map[string]float64{
		"lower_rate_limit": 42,
		"vrp":              320,
	})
	if err != nil {
		t.Fatalf("programParameters failed: %v", err)
	}
	if len(rejected) != 1 || rejected[0] != "lower_rate_limit" {
		t.Errorf("rejected = %v, want [lower_rate_limit]", rejected)
	}

	lrl, _ := store.Read(params.FieldLowerRateLimit)
	if lrl != 60 {
		t.Errorf("lower rate limit = %v, want untouched 60", lrl)
	}
}
