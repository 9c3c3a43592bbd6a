// Package flagx holds small helpers that let several components share one
// os.Args without tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags listed in known (plus their values) and
// drops everything else. Both "-f value" and "-f=value" forms are recognised.
// The result is never nil.
func FilterArgs(args []string, known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}

	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := set[name]; ok {
				out = append(out, arg)
			}
			continue
		}

		if _, ok := set[arg]; !ok {
			continue
		}
		out = append(out, arg)

		// a following non-flag token is this flag's value
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// JsonConfigFlags returns the config file path passed via -c or -config,
// or an empty string when neither is present.
func JsonConfigFlags() string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return path
}
