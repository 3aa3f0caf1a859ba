// Package main hosts the sleeve CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, opens the release catalog
// and the confirmation store on demand, and hands scans to the
// identification engine. Output goes to stdout as tables or JSON; logs go to
// stderr and, when a log directory is configured, to sleeve.log.
//
// Keep this package lean: new behavior belongs in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
