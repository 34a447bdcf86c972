package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/qbitapi"
)

// torrentFilter is a compiled filter expression evaluated per torrent.
type torrentFilter struct {
	expression string
	program    *vm.Program
}

// compileFilter compiles a filter expression like
//
//	Progress == 1.0 and Ratio > 2.0 and HasTag("public")
//
// Torrent fields are exposed by name; an unknown name evaluates as nil rather
// than failing, so one expression can serve daemons that omit some fields.
func compileFilter(expression string) (*torrentFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(helperFunctions()),
		expr.AllowUndefinedVariables(), // Allow torrent properties
		expr.AsBool(),                  // Ensure boolean result
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return &torrentFilter{expression: expression, program: program}, nil
}

// Evaluate evaluates the filter against a torrent
func (f *torrentFilter) Evaluate(t *qbitapi.Torrent) bool {
	result, err := expr.Run(f.program, runtimeEnvironment(t))
	if err != nil {
		return false
	}
	return result.(bool)
}

func helperFunctions() map[string]any {
	return map[string]any{
		"HasTag":     func(tag string) bool { return false },
		"AddedSince": func(d string) bool { return false },
	}
}

// runtimeEnvironment exposes the torrent's fields and tag/time helpers to the
// expression.
func runtimeEnvironment(t *qbitapi.Torrent) map[string]any {
	added := time.Unix(t.AddedOn, 0)
	return map[string]any{
		"Hash":         t.Hash,
		"Name":         t.Name,
		"State":        t.State,
		"Category":     t.Category,
		"Tags":         t.TagList(),
		"SavePath":     t.SavePath,
		"Size":         t.Size,
		"Downloaded":   t.Downloaded,
		"Uploaded":     t.Uploaded,
		"Progress":     t.Progress,
		"Ratio":        t.Ratio,
		"DownloadRate": t.DownloadRate,
		"UploadRate":   t.UploadRate,
		"ETA":          t.ETA,
		"NumSeeds":     t.NumSeeds,
		"NumLeechs":    t.NumLeechs,
		"Added":        added,
		"Complete":     t.IsComplete(),
		"Tracker":      t.Tracker,

		"HasTag": func(tag string) bool {
			for _, have := range t.TagList() {
				if strings.EqualFold(have, tag) {
					return true
				}
			}
			return false
		},
		"AddedSince": func(d string) bool {
			dur, err := time.ParseDuration(d)
			if err != nil {
				return false
			}
			return time.Since(added) <= dur
		},
	}
}
