package experiment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
)

const DefaultWaitStep = 5 * time.Second

// StateFunc returns the current state of what is waited for.
type StateFunc func(ctx context.Context) (string, error)

// Wait waits until experiment expID is in one of states, a comma separated
// list. It fails if the experiment is Terminated or Error first.
// A zero timeout waits forever.
func Wait(ctx context.Context, api API, expID int, states string, step, timeout time.Duration) (string, error) {
	stateFn := func(ctx context.Context) (string, error) {
		return State(ctx, api, expID)
	}
	return WaitState(ctx, stateFn, strconv.Itoa(expID), states, step, timeout)
}

// WaitState polls stateFn every step until it returns one of states.
func WaitState(ctx context.Context, stateFn StateFunc, expStr, states string, step, timeout time.Duration) (string, error) {
	expected, err := models.SplitStates(states)
	if err != nil {
		return "", err
	}
	if step <= 0 {
		step = DefaultWaitStep
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		state, err := stateFn(ctx)
		if err != nil {
			return "", err
		}
		utils.Log.Debugf("Experiment %s state: %s", expStr, state)

		for _, s := range expected {
			if s == state {
				return state, nil
			}
		}
		if models.IsStopped(state) {
			return "", &models.StateError{
				Msg: fmt.Sprintf("Experiment %s already in state '%s'", expStr, state),
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", models.ErrTimeout
		case <-ticker.C:
		}
	}
}
