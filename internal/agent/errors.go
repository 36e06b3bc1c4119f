package agent

import (
	"errors"

	"github.com/crystaldolphin/gitcourier/internal/directive"
)

// Every run that ends early carries one of these in RunResult.Err.
var (
	ErrParse        = errors.New("unrecognized directive")
	ErrUnknownTool  = errors.New("unknown tool")
	ErrInvocation   = errors.New("tool invocation failed")
	ErrModelTimeout = errors.New("model request timed out")

	// ErrArgument matches coercion failures of the directive package.
	ErrArgument = directive.ErrArgument
)
