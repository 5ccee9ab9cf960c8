package matching

import (
	"fmt"
	"sync"

	"github.com/upms-lab/upms-backend/dao/model"
)

// partLocks serializes the quota check-and-insert per (project, part) so
// two concurrent confirmations cannot both take the last seat. The unique
// (project, challenger) index remains the last-resort duplicate guard.
type partLocks struct {
	locks sync.Map
}

func (l *partLocks) lock(projectID uint, part model.Part) (unlock func()) {
	key := fmt.Sprintf("%d/%s", projectID, part)
	v, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Shared by the manual decision path and the auto-decision job.
var partMu partLocks
