// Package config handles tour configuration loading and management.
package config

import "time"

// Config holds all tour settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Demo     DemoConfig     `yaml:"demo"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and context settings.
type GraphicsConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Backend    string `yaml:"backend"` // "sdl" or "glfw"
}

// DemoConfig selects the scene and its assets.
type DemoConfig struct {
	Variant        string        `yaml:"variant"`
	Image          string        `yaml:"image"` // path or URL of the cube texture
	Video          string        `yaml:"video"` // path or URL of the animated GIF
	ScreenshotDir  string        `yaml:"screenshot_dir"`
	FPSLogInterval time.Duration `yaml:"fps_log_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Title:      "GL Tour",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Backend:    "sdl",
		},
		Demo: DemoConfig{
			Variant:        "video",
			Image:          "textures/cube.png",
			Video:          "textures/cube.gif",
			ScreenshotDir:  "screenshots",
			FPSLogInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
