package info

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
)

type probePayload struct {
	Status  string   `json:"status"`
	Details []string `json:"details,omitempty"`
}

func (ih *InfoHandler) respondProbe(w http.ResponseWriter, r *http.Request, statusCode int, state string, details ...string) {
	ih.RespondWithJSON(w, r, statusCode, probePayload{Status: state, Details: details})
}

// runChecks runs the checks concurrently under one shared deadline. The
// failures are joined in check order.
func (ih *InfoHandler) runChecks(ctx context.Context, checks []ProbeFunc) error {
	if len(checks) == 0 {
		return nil
	}

	timeout := ih.probeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	failures := make([]error, len(checks))
	var wg sync.WaitGroup
	for idx, check := range checks {
		if check == nil {
			continue
		}
		wg.Go(func() {
			err := check(probeCtx)
			switch {
			case err == nil:
			case errors.Is(err, context.DeadlineExceeded):
				failures[idx] = fmt.Errorf("probe %d timed out after %s", idx+1, timeout)
			case errors.Is(err, context.Canceled):
				failures[idx] = fmt.Errorf("probe %d was cancelled", idx+1)
			default:
				failures[idx] = fmt.Errorf("probe %d failed: %w", idx+1, err)
			}
		})
	}
	wg.Wait()

	return errors.Join(failures...)
}

// compactProbes drops nil checks and returns nil when none remain.
func compactProbes(checks []ProbeFunc) []ProbeFunc {
	checks = slices.DeleteFunc(slices.Clone(checks), func(check ProbeFunc) bool { return check == nil })
	if len(checks) == 0 {
		return nil
	}
	return checks
}
