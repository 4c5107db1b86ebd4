package main

// Exit codes for the refcheck CLI.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing keys, invalid paths)
	ExitInputError  = 3 // Unusable input (no reference section, zero citations)
	ExitExtractErr  = 4 // Extraction service failed or output unrecoverable
)
