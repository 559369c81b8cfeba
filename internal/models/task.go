package models

import "time"

// Unassigned is the display name carried by a task that has no assignee.
const Unassigned = "unassigned"

// Task is a single unit of work. AssignedUser holds the id of the owning
// user, or the empty string when the task is unassigned. AssignedUserName
// is a denormalized copy of the owner's display name and must be refreshed
// whenever AssignedUser changes.
type Task struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Deadline         time.Time `json:"deadline"`
	Completed        bool      `json:"completed"`
	AssignedUser     string    `json:"assignedUser"`
	AssignedUserName string    `json:"assignedUserName"`
	DateCreated      time.Time `json:"dateCreated"`
}
