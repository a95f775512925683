package kernel

import (
	_ "embed"
)

//go:embed bootstrap.py
var bootstrapSource string

// Message types exchanged with the bootstrap script.
const (
	msgReady    = "ready"
	msgExecute  = "execute"
	msgResult   = "result"
	msgError    = "error"
	msgShutdown = "shutdown"
)

// Environment variables read by the bootstrap script.
const (
	envArtifacts = "PYMD_ARTIFACTS"
	envBackend   = "MPLBACKEND"
	envEncoding  = "PYTHONIOENCODING"
)

// request is sent to the kernel.
type request struct {
	Type string `json:"type"`
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// message is any line received from the kernel.
type message struct {
	Type string `json:"type"`
	ID   int    `json:"id"`

	// ready
	Python   string `json:"python"`
	Charting bool   `json:"charting"`
	PID      int    `json:"pid"`

	// result
	Stdout    string         `json:"stdout"`
	Error     string         `json:"error"`
	Artifacts []chartMessage `json:"artifacts"`

	// error
	Message string `json:"message"`
}

// chartMessage carries one intercepted chart; PNG is base64 on the wire.
type chartMessage struct {
	Title string `json:"title"`
	PNG   []byte `json:"png"`
}
