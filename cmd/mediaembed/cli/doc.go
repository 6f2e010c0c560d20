// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the mediaembed
// binary.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/mediaembed/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// Subcommands may be reached by [Command.Aliases]. Flag parse failures
// are rewritten from pflag's typed errors into messages naming the flag
// the user typed; a misspelled subcommand or long flag gets the closest
// known name by Levenshtein distance (at most 3) as a suggestion.
//
// Errors returned by commands are categorised with [Validation],
// [NotFound] and [Internal]; [ExitError] carries a status for commands
// that already reported their own outcome. [NewCommandLogger] picks a
// text or JSON slog handler depending on whether stderr is a terminal.
package cli
