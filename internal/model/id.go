package model

import "github.com/rs/xid"

// ValidID reports whether s is a well-formed identity reference. It says
// nothing about whether the referenced record exists.
func ValidID(s string) bool {
	_, err := xid.FromString(s)
	return err == nil
}
