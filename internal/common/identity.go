package common

import (
	"encoding/json"
	"fmt"
)

// Identity is the sender of a message or notification. On the wire it shows
// up either as a bare username string or as an object with a "username"
// field; both decode into the same value so callers compare and display
// through Username alone.
type Identity struct {
	Username string
}

func NewIdentity(username string) Identity {
	return Identity{Username: username}
}

func (id Identity) String() string {
	return id.Username
}

func (id Identity) IsZero() bool {
	return id.Username == ""
}

func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Username)
}

func (id *Identity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.Username = s
		return nil
	}

	var obj struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("identity is neither a string nor an object: %w", err)
	}
	id.Username = obj.Username
	return nil
}
