package repository

import "errors"

// ErrStorage marks storage-layer malformation: broken schema, failed
// statements, undecodable rows. Absence of data is never an error here.
var ErrStorage = errors.New("storage error")
