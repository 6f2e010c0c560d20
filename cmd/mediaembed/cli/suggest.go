// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still worth
// suggesting. Three catches transpositions plus a dropped or doubled
// letter without proposing unrelated names.
const maxSuggestDistance = 3

// suggestCommand returns the name of the subcommand closest to unknown.
// Aliases are matched too, but the canonical name is returned.
func suggestCommand(unknown string, commands []*Command) string {
	best, bestDistance := "", maxSuggestDistance+1
	for _, command := range commands {
		for _, name := range append([]string{command.Name}, command.Aliases...) {
			if distance := levenshtein(unknown, name); distance < bestDistance {
				best, bestDistance = command.Name, distance
			}
		}
	}
	return best
}

// suggestFlag returns "--name" for the visible flag closest to the
// misspelled long flag name, or "".
func suggestFlag(name string, flagSet *pflag.FlagSet) string {
	best, bestDistance := "", maxSuggestDistance+1
	flagSet.VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden {
			return
		}
		if distance := levenshtein(name, flag.Name); distance < bestDistance {
			best, bestDistance = flag.Name, distance
		}
	})
	if best == "" {
		return ""
	}
	return "--" + best
}

// didYouMean formats a suggestion suffix for an error message. Command
// names are quoted; flags already carry their dashes.
func didYouMean(suggestion string, quote bool) string {
	switch {
	case suggestion == "":
		return ""
	case quote:
		return fmt.Sprintf(" (did you mean %q?)", suggestion)
	default:
		return fmt.Sprintf(" (did you mean %s?)", suggestion)
	}
}

// levenshtein is the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	source, target := []rune(a), []rune(b)
	if len(source) > len(target) {
		source, target = target, source
	}

	previous := make([]int, len(source)+1)
	current := make([]int, len(source)+1)
	for i := range previous {
		previous[i] = i
	}
	for j, targetRune := range target {
		current[0] = j + 1
		for i, sourceRune := range source {
			substitution := previous[i]
			if sourceRune != targetRune {
				substitution++
			}
			current[i+1] = min(previous[i+1]+1, current[i]+1, substitution)
		}
		previous, current = current, previous
	}
	return previous[len(source)]
}
