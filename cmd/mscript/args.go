package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/mscript/internal/typesystem"
	mscript "github.com/funvibe/mscript/pkg/embed"
)

// options are the host-only flags shared by the commands. They may appear
// anywhere before the positional arguments.
type options struct {
	configPath string
	cachePath  string
	output     string
	positional []string
}

// parseOptions splits args into flags and positional arguments. Everything
// after "--" is positional, so script arguments may start with a dash.
func parseOptions(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			opts.positional = append(opts.positional, args[i+1:]...)
			break
		}
		var target *string
		switch arg {
		case "-config", "--config":
			target = &opts.configPath
		case "-cache", "--cache":
			target = &opts.cachePath
		case "-o", "--output":
			target = &opts.output
		default:
			opts.positional = append(opts.positional, arg)
			continue
		}
		if i+1 >= len(args) {
			return options{}, fmt.Errorf("flag %s needs a value", arg)
		}
		i++
		*target = args[i]
	}
	return opts, nil
}

// parseScriptArgs converts command line words to the parameter types of fn.
func parseScriptArgs(prog *mscript.Program, fn string, words []string) ([]mscript.Value, error) {
	f, ok := prog.Function(fn)
	if !ok {
		return nil, fmt.Errorf("%s has no function named %q", prog.Name, fn)
	}
	if len(words) != len(f.Params) {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", fn, len(f.Params), len(words))
	}
	args := make([]mscript.Value, len(words))
	for i, word := range words {
		v, err := parseWord(prog, f.Params[i].Type, word)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s) of %s: %w", i+1, f.Params[i].Name, fn, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseWord(prog *mscript.Program, t typesystem.Type, word string) (mscript.Value, error) {
	switch typesystem.TagOf(t) {
	case typesystem.TagInt:
		n, err := strconv.ParseInt(word, 0, 64)
		if err != nil {
			return mscript.Value{}, fmt.Errorf("invalid int %q", word)
		}
		return mscript.Int(n), nil
	case typesystem.TagFloat:
		f, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return mscript.Value{}, fmt.Errorf("invalid float %q", word)
		}
		return mscript.Float(f), nil
	case typesystem.TagBool:
		b, err := strconv.ParseBool(word)
		if err != nil {
			return mscript.Value{}, fmt.Errorf("invalid bool %q", word)
		}
		return mscript.Bool(b), nil
	case typesystem.TagString:
		return mscript.String(word), nil
	case typesystem.TagEnum:
		name := t.(typesystem.TEnum).Name
		def, ok := prog.Enum(name)
		if !ok {
			return mscript.Value{}, fmt.Errorf("unknown enum %s", name)
		}
		member := strings.TrimPrefix(word, name+".")
		if m, ok := def.Lookup(member); ok {
			return mscript.Int(m.Value), nil
		}
		n, err := strconv.ParseInt(word, 0, 64)
		if err != nil || !def.Has(n) {
			return mscript.Value{}, fmt.Errorf("%q is not a member of enum %s", word, name)
		}
		return mscript.Int(n), nil
	}
	return mscript.Value{}, fmt.Errorf("%s values cannot be given on the command line", t)
}
