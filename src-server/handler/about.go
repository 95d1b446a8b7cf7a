// This package contains the command line commands.
//
// There are 2 functions per command, one building the *cli.Command with its
// flags (public), and one returning the action (private).
//
// Only return errors when the command itself failed; per-event problems are
// printed and the command still succeeds.
package handler

import (
	"context"
	"sync"

	"eventsync/src-server/utils"
)

// State opens the app state on first use, so commands that fail flag
// validation never touch the database.
type State struct {
	mu   sync.Mutex
	open func(ctx context.Context) (*utils.AppState, error)
	as   *utils.AppState
}

func NewState(open func(ctx context.Context) (*utils.AppState, error)) *State {
	return &State{open: open}
}

func (s *State) Get(ctx context.Context) (*utils.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.as != nil {
		return s.as, nil
	}
	as, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.as = as
	return as, nil
}

func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.as == nil {
		return nil
	}
	err := s.as.Close()
	s.as = nil
	return err
}
