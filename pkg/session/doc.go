/*
Package session runs many automaton instances against shared storage.

A Manager persists one fsm.Snapshot per session ID and serializes every
read-modify-write on that ID, first with a local reference-counted mutex and
then, when configured, with a ports.DistributedLocker so that replicas
sharing a Redis store do not interleave events.
*/
package session
