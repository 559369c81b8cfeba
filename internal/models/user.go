package models

import "time"

// User owns a set of pending tasks. PendingTasks is an ordered sequence of
// task ids with no duplicates; every entry must reference an existing,
// incomplete task assigned to this user.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks []string  `json:"pendingTasks"`
	DateCreated  time.Time `json:"dateCreated"`
}

// HasPendingTask reports whether taskID is already in the pending list.
func (u *User) HasPendingTask(taskID string) bool {
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddPendingTask appends taskID if not already present and reports whether
// the list changed.
func (u *User) AddPendingTask(taskID string) bool {
	if u.HasPendingTask(taskID) {
		return false
	}
	u.PendingTasks = append(u.PendingTasks, taskID)
	return true
}

// RemovePendingTask deletes taskID from the list and reports whether the
// list changed.
func (u *User) RemovePendingTask(taskID string) bool {
	for i, id := range u.PendingTasks {
		if id == taskID {
			u.PendingTasks = append(u.PendingTasks[:i], u.PendingTasks[i+1:]...)
			return true
		}
	}
	return false
}
