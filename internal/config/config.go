package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/green-sentinel/internal/device/audio"
	"github.com/oshokin/green-sentinel/internal/device/haptic"
	"github.com/oshokin/green-sentinel/internal/domain/detection"
	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/logger"
)

// Config holds the settings of the sentinel and its control client.
type Config struct {
	// Log configures the global logger.
	Log Log `yaml:"log"`
	// Detection configures the color presence detector.
	Detection Detection `yaml:"detection"`
	// Source configures where frames come from.
	Source Source `yaml:"source"`
	// Alarm configures the alarm devices.
	Alarm Alarm `yaml:"alarm"`
	// Control configures the gRPC control endpoint.
	Control Control `yaml:"control"`
	// Metrics configures the Prometheus endpoint.
	Metrics Metrics `yaml:"metrics"`
}

// Log holds logger settings.
type Log struct {
	// Level is the minimal level: debug, info, warn or error.
	Level string `yaml:"level"`
	// File receives log output while the terminal UI owns the screen.
	File string `yaml:"file"`
}

// Detection holds the target color and probe grid.
type Detection struct {
	// ColorRange is the accepted HSV region.
	detection.ColorRange `yaml:",inline"`
	// Stride is the probe grid spacing in pixels.
	Stride int `yaml:"stride"`
}

// SourceKind selects the frame source implementation.
type SourceKind string

const (
	// SourceCamera captures frames from a video device.
	SourceCamera SourceKind = "camera"
	// SourceImages replays image files from a directory.
	SourceImages SourceKind = "images"
)

// Source holds frame source settings.
type Source struct {
	// Kind is camera or images.
	Kind SourceKind `yaml:"kind"`
	// Device is the camera index.
	Device int `yaml:"device"`
	// Directory holds the images replayed by the images source.
	Directory string `yaml:"directory"`
	// FPS caps the capture rate.
	FPS float64 `yaml:"fps"`
	// Loop restarts the image sequence when it is exhausted.
	Loop bool `yaml:"loop"`
}

// Alarm holds alarm device settings.
type Alarm struct {
	// SoundFile is the looping alarm sound.
	SoundFile string `yaml:"sound_file"`
	// FallbackSoundFile is the ringtone used when SoundFile cannot be played.
	FallbackSoundFile string `yaml:"fallback_sound_file"`
	// Player is the audio command; "{file}" is replaced with the sound path.
	// Empty means auto-detect.
	Player []string `yaml:"player,flow"`
	// BellInterval is the terminal bell period of the fallback ring.
	BellInterval time.Duration `yaml:"bell_interval"`
	// VibrationPattern alternates off and on durations, starting with off.
	VibrationPattern haptic.Pattern `yaml:"vibration_pattern,flow"`
	// MotorPath is a sysfs-style file driving the vibration motor. Empty disables vibration.
	MotorPath string `yaml:"motor_path"`
}

// Control holds control endpoint settings.
type Control struct {
	// ListenAddress is where the sentinel serves control requests and where
	// the control client connects.
	ListenAddress string `yaml:"listen_addr"`
	// Timeout bounds every control call.
	Timeout time.Duration `yaml:"timeout"`
}

// Metrics holds metrics endpoint settings.
type Metrics struct {
	// ListenAddress is where /metrics and /healthz are served. Empty disables the endpoint.
	ListenAddress string `yaml:"listen_addr"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "green-sentinel.yaml"

	// DefaultLogLevel is the default logger level.
	DefaultLogLevel = "info"

	// DefaultLogFilename receives logs while the terminal UI is shown.
	DefaultLogFilename = "green-sentinel.log"

	// DefaultImagesDirectory is the default images source directory.
	DefaultImagesDirectory = "frames"

	// DefaultFPS is the default capture rate.
	DefaultFPS = 10

	// DefaultSoundFilename is the default alarm sound.
	DefaultSoundFilename = "alarm.wav"

	// DefaultFallbackSoundFilename is the default fallback ringtone.
	DefaultFallbackSoundFilename = "ringtone.wav"

	// DefaultControlAddress is the default control endpoint.
	DefaultControlAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for control calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalidSource is returned for unknown source kinds or bad source parameters.
	ErrInvalidSource = errors.New("invalid source settings")
	// ErrInvalidLogLevel is returned for unknown log levels.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file at the default path yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := validateLog(&cfg.Log); err != nil {
		return err
	}

	if err := validateDetection(&cfg.Detection); err != nil {
		return err
	}

	if err := validateSource(&cfg.Source); err != nil {
		return err
	}

	if err := validateAlarm(&cfg.Alarm); err != nil {
		return err
	}

	if err := validateControl(&cfg.Control); err != nil {
		return err
	}

	if cfg.Metrics.ListenAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Metrics.ListenAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	return nil
}

func validateLog(l *Log) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(l.Level); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	if l.File == "" {
		l.File = DefaultLogFilename
	}

	return nil
}

func validateDetection(d *Detection) error {
	if d.ColorRange == (detection.ColorRange{}) {
		d.ColorRange = detection.Green
	}

	if d.Stride <= 0 {
		d.Stride = frame.DefaultStride
	}

	if err := d.ColorRange.Validate(); err != nil {
		return fmt.Errorf("invalid detection range: %w", err)
	}

	return nil
}

func validateSource(s *Source) error {
	if s.Kind == "" {
		s.Kind = SourceCamera
	}

	if s.FPS <= 0 {
		s.FPS = DefaultFPS
	}

	switch s.Kind {
	case SourceCamera:
		if s.Device < 0 {
			return fmt.Errorf("%w: negative camera device %d", ErrInvalidSource, s.Device)
		}
	case SourceImages:
		if s.Directory == "" {
			s.Directory = DefaultImagesDirectory
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSource, s.Kind)
	}

	return nil
}

func validateAlarm(a *Alarm) error {
	if a.SoundFile == "" {
		a.SoundFile = DefaultSoundFilename
	}

	if a.FallbackSoundFile == "" {
		a.FallbackSoundFile = DefaultFallbackSoundFilename
	}

	if a.BellInterval <= 0 {
		a.BellInterval = audio.DefaultBellInterval
	}

	if len(a.VibrationPattern) == 0 {
		a.VibrationPattern = append(haptic.Pattern(nil), haptic.DefaultPattern...)
	}

	if err := a.VibrationPattern.Validate(); err != nil {
		return fmt.Errorf("invalid alarm settings: %w", err)
	}

	return nil
}

func validateControl(c *Control) error {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultControlAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", c.ListenAddress); err != nil {
		return fmt.Errorf("invalid control address: %w", err)
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return nil
}
