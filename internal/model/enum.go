package model

import (
	"encoding/json"
	"strings"
)

// Canonical status vocabularies are upper-case. Decoding accepts any casing
// plus the localized labels found in older fixtures; encoding always emits
// the canonical form.

// ClassStatus is whether a class accepts enrollments.
type ClassStatus string

const (
	ClassOpen   ClassStatus = "OPEN"
	ClassClosed ClassStatus = "CLOSED"
)

func (s *ClassStatus) UnmarshalJSON(b []byte) error {
	v, err := unquote(b)
	if err != nil {
		return err
	}
	*s = ClassStatus(strings.ToUpper(v))
	return nil
}

// UserStatus is whether an account may log in.
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

func (s *UserStatus) UnmarshalJSON(b []byte) error {
	v, err := unquote(b)
	if err != nil {
		return err
	}
	*s = UserStatus(strings.ToUpper(v))
	return nil
}

// Level is a course difficulty level.
type Level string

const (
	LevelBeginner     Level = "BEGINNER"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
)

var levelAliases = map[string]Level{
	"BEGINNER":     LevelBeginner,
	"INTERMEDIATE": LevelIntermediate,
	"ADVANCED":     LevelAdvanced,
	"CƠ BẢN":       LevelBeginner,
	"TRUNG CẤP":    LevelIntermediate,
	"NÂNG CAO":     LevelAdvanced,
}

// ParseLevel normalizes a level label. Unknown labels are returned
// upper-cased so validation can reject them.
func ParseLevel(s string) Level {
	key := strings.ToUpper(strings.TrimSpace(s))
	if l, ok := levelAliases[key]; ok {
		return l
	}
	return Level(key)
}

func (l *Level) UnmarshalJSON(b []byte) error {
	v, err := unquote(b)
	if err != nil {
		return err
	}
	*l = ParseLevel(v)
	return nil
}

// AttendanceStatus is the outcome recorded for one student on one date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

func (s *AttendanceStatus) UnmarshalJSON(b []byte) error {
	v, err := unquote(b)
	if err != nil {
		return err
	}
	*s = AttendanceStatus(strings.ToUpper(v))
	return nil
}

func unquote(b []byte) (string, error) {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}
