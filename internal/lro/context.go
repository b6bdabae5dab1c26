package lro

// Context carries ambient caller identity through every queue mutation so
// OperationRecords stay auditable. It holds no deadline or cancellation
// semantics of its own — callers pass a context.Context alongside it for
// that; Context here is plain data, cheap to copy, and immutable after
// construction.
type Context struct {
	userID   string
	systemID string
}

// NewContext builds an identity carrier for a caller acting as systemID on
// behalf of userID. Either may be empty for anonymous/system-only callers.
func NewContext(systemID, userID string) Context {
	return Context{systemID: systemID, userID: userID}
}

// UserID returns the end-user identity attached to this context.
func (c Context) UserID() string { return c.userID }

// SystemID returns the system/worker identity attached to this context.
func (c Context) SystemID() string { return c.systemID }
