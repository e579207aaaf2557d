package entity

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSyncInProgress  = errors.New("synchronization already in progress")
	ErrKeyNotFound     = errors.New("key not found")
)

// ValidationError rejected user input; nothing was mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StorageError failed to serialize, parse or write the local store.
// The in-memory collection stays authoritative.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NetworkError the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError the remote resource answered with a non-2xx status.
type HTTPError struct {
	Op     string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP error! status: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}
