// Package api implements the gateway's HTTP surface: authentication,
// competitions, teams, attendance, tags, containers, and the scoreboard.
// Handlers resolve the session principal, evaluate the authorization policy,
// and proxy to the interpreter, mapping its failures onto the gateway's
// error taxonomy.
package api
