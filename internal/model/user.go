package model

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// User is a platform account. Two users are the same user when their IDs match.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// DecodeUser builds a User from a raw user object.
func DecodeUser(r gjson.Result) (User, error) {
	id, err := requireInt(r, "user", "id")
	if err != nil {
		return User{}, err
	}
	first, err := requireString(r, "user", "first_name")
	if err != nil {
		return User{}, err
	}
	return User{
		ID:        id,
		FirstName: first,
		LastName:  optionalString(r, "last_name"),
		Username:  optionalString(r, "username"),
	}, nil
}

// Equal compares users by ID only.
func (u User) Equal(other User) bool {
	return u.ID == other.ID
}

func (u User) String() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}
