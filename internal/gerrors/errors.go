// Package gerrors defines the error taxonomy raised by the gumpi engine:
// configuration failures, transport failures, and the partial-batch outcomes
// the hub reports when a peer command sequence fails mid-stream.
package gerrors

import "fmt"

// ConfigError wraps a failure loading or validating Options/JobConfig,
// before any hub session is created.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError wraps an HTTP or I/O failure talking to the hub.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeserializationError is raised when a hub response body cannot be decoded
// into the expected type. Body is a bounded prefix of the raw response, kept
// around for diagnostics.
type DeserializationError struct {
	Err  error
	Body string
}

const maxBodyPrefix = 2048

// NewDeserializationError truncates body to a bounded prefix before storing it.
func NewDeserializationError(err error, body []byte) *DeserializationError {
	b := body
	if len(b) > maxBodyPrefix {
		b = b[:maxBodyPrefix]
	}
	return &DeserializationError{Err: err, Body: string(b)}
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("could not decode response: %v (body: %q)", e.Err, e.Body)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// ProcessingResult is the hub's signal that a command batch submitted to a
// peer failed partway through. Partial carries the outputs of the commands
// that completed before the failure; its length is < the submitted batch
// length, except in the execution driver's special two-element case (see
// §4.G of SPEC_FULL.md) where the hub reports a full-length batch as failed.
type ProcessingResult struct {
	Partial []string
}

func (e *ProcessingResult) Error() string {
	return fmt.Sprintf("processing failed after %d command(s) succeeded", len(e.Partial))
}

// CompilationError is raised by the deployment pipeline when a peer's build
// command batch comes back as a ProcessingResult. Logs holds whatever
// per-step output strings the peer produced before the batch failed.
type CompilationError struct {
	Node string
	Logs []string
}

func (e *CompilationError) Error() string {
	joined := ""
	for i, l := range e.Logs {
		if i > 0 {
			joined += "\n----------\n"
		}
		joined += l
	}
	return fmt.Sprintf("compilation error on %s:\n%s", e.Node, joined)
}

// ExecutionError is raised by the execution driver when the hostfile write
// succeeded but mpirun failed. Output is whatever the peer reported for the
// exec command before the batch was flagged as failed.
type ExecutionError struct {
	Output string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error:\n%s", e.Output)
}

// CancellationEvent marks termination by user interrupt. It always wins any
// race against normal completion and is printed with a distinct message
// rather than the generic cause chain.
type CancellationEvent struct{}

func (e *CancellationEvent) Error() string { return "ctrl+c pressed" }

// InsufficientResources is raised when the sum of peer cores is below the
// requested process count, before any build or exec work begins.
type InsufficientResources struct {
	Requested int
	Available int
}

func (e *InsufficientResources) Error() string {
	return fmt.Sprintf("Not enough CPUs available: requested: %d, available: %d", e.Requested, e.Available)
}

// NoPeers is raised when zero peers survive provisioning (either the
// --providers filter excluded everything, or every peer failed hardware
// query / container creation).
type NoPeers struct{}

func (e *NoPeers) Error() string { return "no peers available" }
