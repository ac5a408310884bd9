package domain

import "fmt"

// PrivateRoom derives the room id for a two-party chat. The ids are ordered
// ascending before joining so both participants compute the same room
// regardless of who initiates.
func PrivateRoom(a, b int64) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}
