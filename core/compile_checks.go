package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Logger          = glog.Nop()
	_ LoggerProvider  = glog.ProviderFromLogger(glog.Nop())
	_ RawConfigLoader = StaticConfigLoader{}
	_ RawConfigLoader = YAMLFileLoader{}
	_ RawConfigLoader = EnvConfigLoader{}
)
