package redis

import (
	"fmt"

	"github.com/mcoot/impostor/internal/model"
)

// Key prefix for all session data
const keyPrefix = "impostor"

// sessionKey returns the Redis key for a Session snapshot
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}
