package main

import (
	"context"

	"mprisbar/player"
)

// Controller is what the UI needs from the player bridge. *player.Bridge
// implements it; tests use a fake.
type Controller interface {
	Updates() <-chan player.Update
	Issue(cmd player.Command)
	Refresh()
	Reconnect(ctx context.Context) error
}

var _ Controller = (*player.Bridge)(nil)
