package main

// Exit codes
const (
	ExitSuccess     = 0 // Success, including runs where some lookups failed
	ExitError       = 1 // General error (missing input, write failure, invalid arguments)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config file)
	ExitDataError   = 3 // Data error (input could not be parsed)
)
