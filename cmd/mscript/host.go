package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tliron/commonlog"

	"github.com/funvibe/mscript/internal/cache"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/utils"
	mscript "github.com/funvibe/mscript/pkg/embed"
)

var log = commonlog.GetLogger("mscript.cli")

// Prototypes of the natives every CLI program can call. They are part of
// the cache key: a program compiled against other prototypes must not be
// reused.
var hostPrototypes = []string{
	"fn print(msg: string)",
	"fn printInt(v: int)",
}

// newHostSystem creates a system reading sources relative to the working
// directory, with the CLI natives writing to out.
func newHostSystem(cfg config.Config, out io.Writer) (*mscript.System, error) {
	sys := mscript.NewSystem(mscript.DirLoader{Root: "."}, mscript.WithVMConfig(cfg.VM))
	impls := []mscript.NativeFunc{
		func(ctx context.Context, args []mscript.Value) (mscript.Value, error) {
			_, err := fmt.Fprintln(out, args[0].AsString())
			return mscript.Void(), err
		},
		func(ctx context.Context, args []mscript.Value) (mscript.Value, error) {
			_, err := fmt.Fprintln(out, args[0].AsInt())
			return mscript.Void(), err
		},
	}
	for i, proto := range hostPrototypes {
		if err := sys.Bind(proto, impls[i]); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

// loadConfig reads the config file when one is given.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// compileFile compiles the source at path. When a cache is configured the
// encoded program is looked up first and stored after a fresh compile;
// entries older than the configured max age are pruned beforehand.
func compileFile(sys *mscript.System, path string, cc config.CacheConfig) (*mscript.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	name := utils.ExtractProgramName(path)
	source := string(data)
	if cc.Path == "" {
		return sys.Compile(name, source)
	}

	c, err := cache.Open(cc.Path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if cc.MaxAge > 0 {
		n, err := c.Prune(time.Now().Add(-cc.MaxAge))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Infof("pruned %d cached program(s) older than %s", n, cc.MaxAge)
		}
	}

	key := cache.Key(name, source, hostPrototypes...)
	if bundle, ok, err := c.Get(key); err != nil {
		return nil, err
	} else if ok {
		if prog, err := sys.Decode(bundle); err == nil {
			return prog, nil
		}
		// A stale entry is recompiled and overwritten.
		if err := c.Delete(key); err != nil {
			return nil, err
		}
	}

	prog, err := sys.Compile(name, source)
	if err != nil {
		return nil, err
	}
	bundle, err := sys.Encode(prog)
	if err != nil {
		return nil, err
	}
	if err := c.Put(key, name, bundle); err != nil {
		return nil, err
	}
	return prog, nil
}
