// Package tui provides the terminal user interface for sfxagent.
//
// It contains two small models. BriefPrompt asks for a sound brief when none
// was given on the command line. Progress follows a run by consuming
// orchestrator events and renders the current state and one row per render
// job.
//
// Usage:
//
//	brief, err := tui.PromptBrief(os.Stdin, os.Stdout)
//
//	program, _ := tui.NewProgressProgram(cancel, os.Stdout)
//	go tui.Forward(program, emitter.Events())
//	program.Run()
//
// Users can quit with Esc or Ctrl+C. Quitting the progress view cancels the
// run.
package tui
