package main

// ---------------------------------------------------------------------------
// cmd_config.go — initialize or show the configuration
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/socsentry-project/socsentry/internal/core"
)

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	force := fs.Bool("force", false, "Overwrite an existing config on init")
	fs.Parse(args)

	action := "show"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	path := envConfig(*configPath)

	switch action {
	case "init":
		if _, err := os.Stat(path); err == nil && !*force {
			errorf("config %s already exists (use -force to overwrite)", path)
		}
		if err := core.SaveConfig(core.DefaultConfig(), path); err != nil {
			errorf("writing config: %v", err)
		}
		fmt.Printf("%s wrote %s\n", green("ok:"), path)
	case "show":
		cfg, err := core.LoadConfig(path)
		if err != nil {
			errorf("loading config: %v", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			errorf("marshaling config: %v", err)
		}
		os.Stdout.Write(data)
	default:
		errorf("unknown config action %q (want init or show)", action)
	}
}
