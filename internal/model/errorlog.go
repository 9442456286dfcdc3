package model

import "time"

// ErrorLog is a single logged incident: an error the owning user ran into,
// with enough context (project, git state, language) to find it again and
// a record of how it was eventually fixed.
//
// Every ErrorLog belongs to exactly one User. The repositories enforce
// ownership by filtering on both the record id and the requesting user's
// id for every read, update, and delete.
//
// Message is the only required field. The short string fields (ErrorType,
// Project, Language, ...) are optional and several are indexed for
// filtering. Tags is an ordered list of free-form labels.
type ErrorLog struct {
	ID           int64
	UserID       int64
	Message      string
	ErrorType    string
	Project      string
	GitBranch    string
	GitCommit    string
	OS           string
	Language     string
	Tags         []string
	Solution     string
	Notes        string
	TimeToFixMin int
	Resolved     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time // nil until the record is first updated
}
