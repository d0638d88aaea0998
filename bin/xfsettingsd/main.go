// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/linuxdeepin/go-lib/dbusutil"
	. "github.com/linuxdeepin/go-lib/gettext"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/xfce-mirror/xfce4-settings/loader"

	// modules:
	_ "github.com/xfce-mirror/xfce4-settings/display1"
)

var logger = log.NewLogger("xfsettingsd")

var _options struct {
	verbose  bool
	logLevel string
	enable   string
	disable  string
	ignore   bool
	force    bool
}

func toLogLevel(name string) (log.Priority, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return log.LevelInfo, nil
	case "error":
		return log.LevelError, nil
	case "warn":
		return log.LevelWarning, nil
	case "debug":
		return log.LevelDebug, nil
	case "no":
		return log.LevelDisable, nil
	}
	return log.LevelInfo, fmt.Errorf("%s is not support", name)
}

func init() {
	// -v | -verbose
	const verboseUsage = "Show much more message, shorthand for --loglevel debug."
	flag.BoolVar(&_options.verbose, "v", false, verboseUsage)
	flag.BoolVar(&_options.verbose, "verbose", false, verboseUsage)

	// -l | -loglevel
	const logLevelUsage = "Set log level, possible value is error/warn/info/debug/no, info is default"
	flag.StringVar(&_options.logLevel, "l", "", logLevelUsage)
	flag.StringVar(&_options.logLevel, "loglevel", "", logLevelUsage)

	// -f | -force
	const forceUsage = "Force start disabled module."
	flag.BoolVar(&_options.force, "f", false, forceUsage)
	flag.BoolVar(&_options.force, "force", false, forceUsage)

	// -i | -ignore
	const ignoreUsage = "Ignore missing modules."
	flag.BoolVar(&_options.ignore, "i", true, ignoreUsage)
	flag.BoolVar(&_options.ignore, "ignore", true, ignoreUsage)

	flag.StringVar(&_options.enable, "enable", "", "Enable modules and their dependencies, comma separated.")
	flag.StringVar(&_options.disable, "disable", "", "Disable modules, comma separated.")
}

func splitModules(str string) []string {
	if str == "" {
		return nil
	}
	return strings.Split(str, ",")
}

func main() {
	flag.Parse()
	InitI18n()
	BindTextdomainCodeset("xfce4-settings", "UTF-8")
	Textdomain("xfce4-settings")

	if _options.verbose {
		_options.logLevel = "debug"
	}
	logLevel, err := toLogLevel(_options.logLevel)
	if err != nil {
		logger.Warning("failed to parse loglevel:", err)
		os.Exit(1)
	}
	logger.SetLogLevel(logLevel)
	loader.SetLogLevel(logLevel)

	service, err := dbusutil.NewSessionService()
	if err != nil {
		logger.Fatal("failed to new session service:", err)
	}
	loader.SetService(service)

	enablingModules := splitModules(_options.enable)
	if len(enablingModules) == 0 {
		for _, module := range loader.List() {
			enablingModules = append(enablingModules, module.Name())
		}
	}

	var flags loader.EnableFlag
	if _options.ignore {
		flags |= loader.EnableFlagIgnoreMissingModule
	}
	if _options.force {
		flags |= loader.EnableFlagForceStart
	}
	err = loader.EnableModules(enablingModules, splitModules(_options.disable), flags)
	if err != nil {
		logger.Fatal("failed to enable modules:", err)
	}
	defer loader.StopAll()

	service.Wait()
}
