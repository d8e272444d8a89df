package config

import (
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/verte-zerg/furitype/internal/model"
)

// Defaults for practice settings.
const (
	DefaultWeakTop     = 8
	DefaultWeakFactor  = 3.0
	DefaultWeakWindow  = 20
	DefaultDrillLines  = 4
	DefaultDrillLength = 12
	DefaultCurveWindow = 10
)

// Defaults returns a practice config filled with default values.
func Defaults() model.Config {
	return model.Config{
		ProblemsDir: DefaultProblemsDir(),
		WeakTop:     DefaultWeakTop,
		WeakFactor:  DefaultWeakFactor,
		WeakWindow:  DefaultWeakWindow,
		DrillLines:  DefaultDrillLines,
		DrillLength: DefaultDrillLength,
	}
}

// Validate checks the merged practice settings. Failures are reported per
// setting as validation.Errors.
func Validate(cfg model.Config) error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.LayoutPath, validation.By(layoutFile)),
		validation.Field(&cfg.WeakTop, validation.Min(0)),
		validation.Field(&cfg.WeakFactor, validation.Min(0.0)),
		validation.Field(&cfg.WeakWindow, validation.Min(0)),
		validation.Field(&cfg.DrillLines, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&cfg.DrillLength, validation.Required, validation.Min(1), validation.Max(200)),
	)
}

func layoutFile(value any) error {
	path, _ := value.(string)
	if strings.TrimSpace(path) == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
	default:
		return validation.NewError("validation_layout_format", "must be a .yaml or .toml file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return validation.NewError("validation_layout_missing", "file does not exist")
	}
	if info.IsDir() {
		return validation.NewError("validation_layout_dir", "must be a file, not a directory")
	}
	return nil
}
