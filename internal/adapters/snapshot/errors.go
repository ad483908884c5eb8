package snapshot

import "errors"

// ErrPublish wraps every failure to write a snapshot.
var ErrPublish = errors.New("publish snapshot")
