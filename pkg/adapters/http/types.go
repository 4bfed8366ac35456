package http

import (
	"errors"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/pkg/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WorkspaceResponse is returned when a workspace is created.
type WorkspaceResponse struct {
	Name     string           `json:"name"`
	Document *domain.Document `json:"document"`
}

// StateResponse describes a workspace after a request.
type StateResponse struct {
	Name     string           `json:"name"`
	Document *domain.Document `json:"document"`
	Outputs  string           `json:"outputs"`
	Undo     int              `json:"undo"`
	Redo     int              `json:"redo"`
}

// ComponentResponse reports the index of an added component.
type ComponentResponse struct {
	Index    int              `json:"index"`
	Document *domain.Document `json:"document"`
}

// StepResponse is returned by undo and redo.
type StepResponse struct {
	Changed  bool             `json:"changed"`
	Undo     int              `json:"undo"`
	Redo     int              `json:"redo"`
	Document *domain.Document `json:"document"`
}

// ProcessRequest carries a stimulus either as booleans or as a bit string.
type ProcessRequest struct {
	Inputs []bool `json:"inputs,omitempty"`
	Bits   string `json:"bits,omitempty"`
}

func (p ProcessRequest) stimulus() ([]bool, error) {
	if p.Bits == "" {
		return p.Inputs, nil
	}
	if len(p.Inputs) > 0 {
		return nil, errors.New("inputs and bits are mutually exclusive")
	}
	return circuitry.ParseBits(p.Bits)
}

// ProcessResponse holds output port values in port order.
type ProcessResponse struct {
	Outputs []bool `json:"outputs"`
	Bits    string `json:"bits"`
}

func newProcessResponse(out []bool) ProcessResponse {
	if out == nil {
		out = []bool{}
	}
	return ProcessResponse{Outputs: out, Bits: circuitry.FormatBits(out)}
}

// EvaluateRequest evaluates a circuit without creating a workspace.
type EvaluateRequest struct {
	Circuit *domain.Document `json:"circuit"`
	ProcessRequest
}

// TruthRow is one line of a truth table as bit strings.
type TruthRow struct {
	Inputs  string `json:"inputs"`
	Outputs string `json:"outputs"`
}

// CustomRequest names the custom component saved from a workspace.
type CustomRequest struct {
	Name string `json:"name"`
}

// CustomResponse describes a saved custom component.
type CustomResponse struct {
	Name    string `json:"name"`
	Inputs  int    `json:"inputs"`
	Outputs int    `json:"outputs"`
}

// ChangeEvent is broadcast to SSE subscribers after each mutation.
type ChangeEvent struct {
	Workspace string `json:"workspace"`
	Op        string `json:"op"`
	Undo      int    `json:"undo"`
	Redo      int    `json:"redo"`
}
