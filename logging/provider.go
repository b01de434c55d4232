package logging

import glog "github.com/goliatone/go-logger/glog"

// Provider hands out component loggers derived from one root logger.
type Provider struct {
	Root *Logger
}

func NewProvider(root *Logger) *Provider {
	return &Provider{Root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.Root == nil {
		return glog.Nop()
	}
	return p.Root.Named(name)
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

var _ glog.LoggerProvider = (*Provider)(nil)
