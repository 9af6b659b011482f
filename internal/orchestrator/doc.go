// Package orchestrator runs the sound-effect agent for one brief.
//
// A run moves through fixed stages:
//
//	Perceiving -> Planning -> Acting -> Evaluating -> Done
//
// Perceiving validates the brief and configuration. Planning decomposes the
// brief into sound parameters and expands them into render jobs. Acting
// renders the jobs on a bounded worker pool; a failed job never aborts the
// others. Evaluating optionally asks for feedback on each render. Done
// appends every completed render to the library in a single write.
package orchestrator
