package models

import (
	"strings"
)

// States known by the testbed scheduler.
var States = []string{
	"Waiting",
	"toLaunch",
	"Launching",
	"Finishing",
	"Running",
	"Error",
	"Terminated",
}

// ActiveStates are the states of an experiment that has not finished yet.
var ActiveStates = []string{"Waiting", "toLaunch", "Launching", "Running"}

// StoppedStates are final.
var StoppedStates = []string{"Terminated", "Error"}

// CheckStates validates a comma separated list of states and returns it
// unchanged. An empty string is valid and means 'all states'.
func CheckStates(states string) (string, error) {
	if states == "" {
		return states, nil
	}
	for _, state := range strings.Split(states, ",") {
		if !containsString(States, state) {
			return "", Argumentf("Invalid experiment state %q, should be in %s", state, QuoteList(States))
		}
	}
	return states, nil
}

// SplitStates validates and splits a comma separated list of states.
func SplitStates(states string) ([]string, error) {
	if states == "" {
		return nil, Argumentf("Empty experiment states")
	}
	if _, err := CheckStates(states); err != nil {
		return nil, err
	}
	return strings.Split(states, ","), nil
}

// IsStopped tells if state is final.
func IsStopped(state string) bool {
	return containsString(StoppedStates, state)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// QuoteList formats list the way error messages display choices.
func QuoteList(list []string) string {
	quoted := make([]string, len(list))
	for i, item := range list {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
