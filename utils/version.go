package utils

// Version is overridable at link time.
var Version = "dev"
