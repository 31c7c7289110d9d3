// Package flagx lets several flag sets share one command line: every parser
// keeps only the arguments it owns and ignores the rest.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments of args that name a flag defined in fs,
// together with their values. Accepted spellings are -name, --name and the
// -name=value form. A flag whose value is a separate argument consumes the
// next argument unless it starts with "-". Boolean flags never consume the
// next argument, so "-l -r addr" keeps -l as true and -r with its value.
//
// The result is never nil.
func FilterArgs(args []string, fs *flag.FlagSet) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		name, inline := flagName(args[i])
		if name == "" {
			continue
		}

		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		filtered = append(filtered, args[i])
		if inline || isBoolFlag(f) {
			continue
		}

		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the JSON config file named with -c or -config in args,
// or "" when neither is present. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, fs))

	return path
}

// flagName strips the leading dashes and an inline "=value" from arg.
// inline reports whether the value was attached.
func flagName(arg string) (name string, inline bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
		return "", false
	}

	name = strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true
	}

	return name, false
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
