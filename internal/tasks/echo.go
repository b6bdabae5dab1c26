// Package tasks holds example Task payload types exercised by cmd/broker
// and cmd/worker. A real deployment of this module would replace EchoTask
// with its own domain payload and TypeName.
package tasks

// EchoTask is a minimal example payload: the worker reverses Message and
// returns it as the operation's result.
type EchoTask struct {
	Message string `json:"message"`
}

// TypeName implements lro.Task.
func (EchoTask) TypeName() string { return "echo.v1" }

// EchoResult is the JSON-encoded success payload Complete records.
type EchoResult struct {
	Reversed string `json:"reversed"`
}
