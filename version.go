package formwork

// Version is stamped by the release pipeline via -ldflags; the default
// marks development builds.
var Version = "0.0.0-dev"
