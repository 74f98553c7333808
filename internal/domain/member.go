package domain

// Role is only meaningful in the local-file signaling flow. In plain
// playback-sync usage it stays empty.
type Role string

const (
	RoleHost Role = "host"
	RolePeer Role = "peer"
)

// Member represents one connection's membership record within a room.
// No transport or lifecycle logic here.
type Member struct {
	Name string
	Role Role
}

// MemberInfo is a read-only view for the wire (no transport fields).
type MemberInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
