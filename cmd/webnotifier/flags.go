package main

import (
	"flag"
)

type AppFlags struct {
	TargetsFile      string
	GlobalConfigFile string
	ShowVersion      bool
}

func ParseFlags() AppFlags {
	targetsFile := flag.String("targets", "", "Path to a text file containing page URLs to watch, one per line. Merged with target_urls from the config file.")
	targetsFileAlias := flag.String("t", "", "Alias for -targets")

	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	flags := AppFlags{ShowVersion: *showVersion}

	if *targetsFile != "" {
		flags.TargetsFile = *targetsFile
	} else if *targetsFileAlias != "" {
		flags.TargetsFile = *targetsFileAlias
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	return flags
}
