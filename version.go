package automaton

// Version is the module release, overridden at build time with
// -ldflags "-X github.com/aretw0/automaton.Version=...".
var Version = "v0.1.0-dev"
