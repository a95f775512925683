package pymd

import "errors"

// Sentinel errors for library operations.
var (
	ErrNoFragments      = errors.New("no python fragments found")
	ErrInvalidExtension = errors.New("input file must have the .pymd extension")
	ErrInterpreterStart = errors.New("failed to start python interpreter")
	ErrInterpreterLost  = errors.New("python interpreter stopped responding")
	ErrArtifactWrite    = errors.New("failed to save chart")
	ErrRewrite          = errors.New("failed to assemble compiled document")
	ErrInternal         = errors.New("internal error")

	// Rendering errors.
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrStyleNotFound  = errors.New("style not found")
)
