package model

import "time"

// ClassroomBlock marks a classroom as unavailable on a recurring weekly
// schedule, e.g. for timetabled lessons.  Days holds ISO weekday numbers
// (1=Monday .. 7=Sunday); Start/End are wall-clock times in "HH:MM:SS".
type ClassroomBlock struct {
	ID        uint64    // classrooms.id
	Room      uint64    // classrooms.classroom
	Days      []int     // classrooms.days – stored comma-separated
	StartTime string    // classrooms.start_time
	EndTime   string    // classrooms.end_time
	Operator  string    // classrooms.operator – admin who created the block
	Active    bool      // classrooms.unavailable – block currently enforced
	CreatedAt time.Time // classrooms.created_at
}
