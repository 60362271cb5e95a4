package solver

import (
	"sort"

	"github.com/univops/timetable-api/internal/models"
)

// preferredRoomKinds maps a subject's teaching format to the room kinds tried
// first. Lab subjects are pinned to lab rooms whenever the department has one.
var preferredRoomKinds = map[models.SubjectKind][]models.RoomKind{
	models.SubjectKindLecture: {models.RoomKindAmphitheater, models.RoomKindLecture},
	models.SubjectKindTD:      {models.RoomKindTD, models.RoomKindLecture},
	models.SubjectKindLab:     {models.RoomKindLab},
	models.SubjectKindExam:    {models.RoomKindAmphitheater, models.RoomKindLecture, models.RoomKindTD},
}

// candidateRooms returns the rooms a unit may occupy, preferred kinds first and
// highest capacity first within each band, then any other department room.
func candidateRooms(idx *Index, subject *models.Subject, needed int) []*models.Room {
	if subject.MinRoomCapacity > needed {
		needed = subject.MinRoomCapacity
	}

	preferred := preferredRoomKinds[subject.Kind]
	preferredSet := make(map[models.RoomKind]bool, len(preferred))
	for _, kind := range preferred {
		preferredSet[kind] = true
	}
	labOnly := subject.Kind == models.SubjectKindLab && idx.HasLabRoom(subject.DepartmentID)

	var primary, fallback []*models.Room
	for _, room := range idx.RoomsOf(subject.DepartmentID) {
		if !room.Available || room.Capacity < needed {
			continue
		}
		if labOnly && room.Kind != models.RoomKindLab {
			continue
		}
		if preferredSet[room.Kind] {
			primary = append(primary, room)
		} else {
			fallback = append(fallback, room)
		}
	}

	byCapacity := func(rooms []*models.Room) {
		sort.Slice(rooms, func(i, j int) bool {
			if rooms[i].Capacity != rooms[j].Capacity {
				return rooms[i].Capacity > rooms[j].Capacity
			}
			return rooms[i].ID < rooms[j].ID
		})
	}
	byCapacity(primary)
	byCapacity(fallback)

	return append(primary, fallback...)
}
