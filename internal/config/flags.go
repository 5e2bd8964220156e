package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Only flags the user actually set are
// applied, so an explicit zero still overrides the file.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	Epsilon    float64
	Digits     int
	Workers    int
	Encoding   string

	set *pflag.FlagSet
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{set: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.Float64Var(&f.Epsilon, "epsilon", 0, "Geometric tolerance")
	fs.IntVar(&f.Digits, "digits", 0, "Significant digits kept when classifying points (0 = no rounding)")
	fs.IntVar(&f.Workers, "workers", 0, "Goroutines used to build polygons (0 = one per CPU)")
	fs.StringVar(&f.Encoding, "encoding", "", "Source text encoding (auto, utf-8, windows-1252, ...)")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.changed("epsilon") {
		cfg.Geometry.Epsilon = f.Epsilon
	}
	if f.changed("digits") {
		cfg.Geometry.SignificantDigits = f.Digits
	}
	if f.changed("workers") {
		cfg.Parser.Workers = f.Workers
	}
	if f.changed("encoding") {
		cfg.Parser.Encoding = f.Encoding
	}
}
