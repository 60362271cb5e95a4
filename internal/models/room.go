package models

import "time"

// RoomKind categorises a physical teaching space.
type RoomKind string

const (
	RoomKindAmphitheater RoomKind = "amphitheater"
	RoomKindLecture      RoomKind = "lecture"
	RoomKindTD           RoomKind = "td"
	RoomKindLab          RoomKind = "lab"
	RoomKindOther        RoomKind = "other"
)

// Room represents a physical resource with a capacity and scheduling priority.
type Room struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Kind         RoomKind  `db:"kind" json:"kind"`
	Capacity     int       `db:"capacity" json:"capacity"`
	Priority     int       `db:"priority" json:"priority"`
	Available    bool      `db:"available" json:"available"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	DepartmentID string
	Kind         RoomKind
	Available    *bool
	MinCapacity  int
}
