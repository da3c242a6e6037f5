package conf

// Context carries the settings of one CLI invocation. Settings is nil until Load runs.
type Context struct {
	ConfigFile string
	Debug      bool
	Settings   *Settings
}

// Load reads the settings once. The debug flag lowers the default log level.
func (c *Context) Load() error {
	if c.Settings != nil {
		return nil
	}
	settings, err := Load(c.ConfigFile)
	if err != nil {
		return err
	}
	if c.Debug {
		settings.Debug = true
	}
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
	}
	c.Settings = settings
	return nil
}
