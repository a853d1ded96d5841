package repository

import (
	"context"
	"errors"
)

// PrincipalKind distinguishes the two account populations.
type PrincipalKind int16

const (
	KindStaff PrincipalKind = iota + 1
	KindCustomer
)

// Principal is an authenticated caller. Resolution is an external concern;
// the chat core only needs the id and which population it belongs to.
type Principal struct {
	ID   string
	Kind PrincipalKind
}

var (
	// ErrUnauthenticated means the presented token resolved to no account.
	ErrUnauthenticated = errors.New("identity: unauthenticated")
	// ErrNotFound means the directory has no record for the id.
	ErrNotFound = errors.New("identity: not found")
)

// PrincipalResolver turns an opaque bearer token into a Principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// CustomerProfile is the display data the staff inbox is enriched with.
type CustomerProfile struct {
	ID       string  `json:"id"`
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Avatar   *string `json:"avatar"`
}

// CustomerDirectory looks up customer display data. Lookup failures degrade
// a single inbox row to placeholders; they never abort a listing.
type CustomerDirectory interface {
	Lookup(ctx context.Context, customerID string) (CustomerProfile, error)
}
