package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/db47h/fxsim"
	"github.com/db47h/fxsim/internal/config"
	"github.com/db47h/fxsim/internal/design"
	"github.com/db47h/fxsim/internal/drc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] design.json\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func setupLog(c *config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	log.SetLevel(lvl)
	if c.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	fxsim.SetLogger(log)
	return log, nil
}

func run(log *logrus.Logger, cfg *config.Config, path, module string, check, quantized bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	d, err := design.Parse(data)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	if module == "" {
		module = d.Module
	}
	c := cfg.NewContext(module)
	if _, err = d.Build(c, cfg.Clock); err != nil {
		return err
	}

	if check {
		facts, err := c.Facts()
		if err != nil {
			return err
		}
		ctx := context.Background()
		e, err := drc.New(ctx)
		if err != nil {
			return err
		}
		res, err := e.Evaluate(ctx, drc.Input{Facts: facts, Limits: drc.Limits{
			MaxWidth:       cfg.DRC.MaxWidth,
			MaxBufferDepth: cfg.DRC.MaxBufferDepth,
			MaxLUTEntries:  cfg.DRC.MaxLUTEntries,
			MaxLUTWidth:    cfg.DRC.MaxLUTWidth,
		}})
		if err != nil {
			return err
		}
		for _, v := range res.Violations {
			entry := log.WithFields(logrus.Fields{"rule": v.Rule, "name": v.Name})
			if v.Severity == "error" {
				entry.Error(v.Message)
			} else {
				entry.Warn(v.Message)
			}
		}
		if res.Failed() {
			return errors.Errorf("%d design rule errors", res.Summary.Errors)
		}
	}

	if err = c.PrintToFile(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"module": c.Module, "dir": c.OutputDir}).Info("module written")

	vs, err := c.Values(d.Picks(quantized))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(vs))
}

func main() {
	var (
		cfgFile   = flag.String("config", "", "configuration `file`")
		outDir    = flag.String("out", "", "output `directory`")
		module    = flag.String("module", "", "module `name`")
		check     = flag.Bool("drc", true, "run design rule checks")
		quantized = flag.Bool("quantized", true, "print quantized output values instead of ideal ones")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		cfg *config.Config
		err error
	)
	if *cfgFile != "" {
		cfg, err = config.LoadFile(*cfgFile)
	} else {
		cfg, err = config.Load(filepath.Dir(flag.Arg(0)))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	log, err := setupLog(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = run(log, cfg, flag.Arg(0), *module, *check, *quantized); err != nil {
		log.Fatal(err)
	}
}
