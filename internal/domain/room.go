// Package domain contains entities without logic, just meta-data.
package domain

import "strings"

type RoomID string

// NormalizeRoomID lowercases caller-supplied identifiers so that "ABCDE"
// and "abcde" address the same room.
func NormalizeRoomID(raw string) RoomID {
	return RoomID(strings.ToLower(strings.TrimSpace(raw)))
}
